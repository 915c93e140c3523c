/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package wikiapi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// jsonAPI keeps numbers as json.Number so that integer fields are not rounded through float64.
var jsonAPI = sonic.Config{UseNumber: true}.Froze()

// timestampLayouts are tried in order when parsing "timestamp".
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

type fieldMapping struct {
	name   string
	assign func(r *SearchResult, v any) bool
}

// resultFields maps every key of a search hit to its SearchResult field.
// All of them are required.
var resultFields = []fieldMapping{
	{"pageid", func(r *SearchResult, v any) (ok bool) { r.PageID, ok = asInt(v); return }},
	{"snippet", func(r *SearchResult, v any) (ok bool) { r.Preview, ok = v.(string); return }},
	{"size", func(r *SearchResult, v any) (ok bool) { r.Size, ok = asInt(v); return }},
	{"title", func(r *SearchResult, v any) (ok bool) { r.Title, ok = v.(string); return }},
	{"wordcount", func(r *SearchResult, v any) (ok bool) { r.WordCount, ok = asInt(v); return }},
	{"timestamp", func(r *SearchResult, v any) (ok bool) { r.LastEdited, ok = asTime(v); return }},
}

// parseResults decodes a sanitized body and maps query.search into results.
func parseResults(body string) ([]SearchResult, error) {
	var root any
	if err := jsonAPI.UnmarshalFromString(body, &root); err != nil {
		return nil, newSearchError(KindMalformedResponse, err, "json unmarshal failed")
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, schemaError("", "response is not a JSON object")
	}

	queryNode, ok := obj["query"]
	if !ok {
		e := schemaError("query", "missing field %q", "query")
		if apiErr := extractAPIError(obj); apiErr != nil {
			e.Err = apiErr
		}
		return nil, e
	}
	query, ok := queryNode.(map[string]any)
	if !ok {
		return nil, schemaError("query", "field %q is not an object", "query")
	}

	searchNode, ok := query["search"]
	if !ok {
		return nil, schemaError("search", "missing field %q", "query.search")
	}
	search, ok := searchNode.([]any)
	if !ok {
		return nil, schemaError("search", "field %q is not an array", "query.search")
	}

	results := make([]SearchResult, 0, len(search))
	for i, item := range search {
		hit, ok := item.(map[string]any)
		if !ok {
			return nil, schemaError("search", "query.search[%d] is not an object", i)
		}
		r, err := mapResult(i, hit)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func mapResult(i int, hit map[string]any) (SearchResult, error) {
	var r SearchResult
	for _, f := range resultFields {
		v, ok := hit[f.name]
		if !ok {
			return SearchResult{}, schemaError(f.name, "query.search[%d]: missing field %q", i, f.name)
		}
		if !f.assign(&r, v) {
			return SearchResult{}, schemaError(f.name, "query.search[%d]: field %q has unexpected value %v", i, f.name, v)
		}
	}
	return r, nil
}

// asInt accepts integral numbers only. jsonAPI decodes every number as json.Number.
func asInt(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	return i, err == nil
}

func asTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// extractAPIError reads the error payload MediaWiki sends instead of a result,
// in both the "errors" (errorformat=plaintext) and the legacy "error" shape.
func extractAPIError(obj map[string]any) *APIError {
	if list, ok := obj["errors"].([]any); ok && len(list) > 0 {
		if e, ok := list[0].(map[string]any); ok {
			return &APIError{Code: stringOf(e["code"]), Text: stringOf(e["text"])}
		}
	}
	if e, ok := obj["error"].(map[string]any); ok {
		text := stringOf(e["text"])
		if text == "" {
			text = stringOf(e["info"])
		}
		return &APIError{Code: stringOf(e["code"]), Text: text}
	}
	return nil
}

func stringOf(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
