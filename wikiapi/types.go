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
	"net/http"
	"strconv"
	"time"
)

const pageURLPrefix = "https://en.wikipedia.org/?curid="

// SearchResult is a single hit of a Wikipedia search.
type SearchResult struct {
	// Title is the title of the page.
	Title string `json:"title"`
	// PageID is the numerical ID of the page on Wikipedia's servers.
	PageID int64 `json:"pageid"`
	// Preview is a short, markup free excerpt of the page.
	Preview string `json:"snippet"`
	// Size is the size reported by the API for the page. Its unit is not documented upstream.
	Size int64 `json:"size"`
	// WordCount is the number of words in the article.
	WordCount int64 `json:"wordcount"`
	// LastEdited is the time of the last edit.
	LastEdited time.Time `json:"timestamp"`
}

// URL returns the address of the article, built from its page ID.
func (r SearchResult) URL() string {
	return pageURLPrefix + strconv.FormatInt(r.PageID, 10)
}

// SearchResponse is the outcome of one Client.Search call.
type SearchResponse struct {
	rawBody    string
	statusCode int
	header     http.Header
	results    []SearchResult
}

func newSearchResponse(rawBody string, resp *http.Response, results []SearchResult) *SearchResponse {
	if results == nil {
		results = []SearchResult{}
	}
	return &SearchResponse{
		rawBody:    rawBody,
		statusCode: resp.StatusCode,
		header:     resp.Header.Clone(),
		results:    results,
	}
}

// RawBody returns the sanitized JSON text that was parsed.
func (r *SearchResponse) RawBody() string {
	return r.rawBody
}

// StatusCode returns the HTTP status code of the exchange.
func (r *SearchResponse) StatusCode() int {
	return r.statusCode
}

// Header returns a copy of the HTTP response headers.
func (r *SearchResponse) Header() http.Header {
	return r.header.Clone()
}

// Results returns the hits in server order. The slice is never nil.
func (r *SearchResponse) Results() []SearchResult {
	out := make([]SearchResult, len(r.results))
	copy(out, r.results)
	return out
}

// Len returns the number of hits.
func (r *SearchResponse) Len() int {
	return len(r.results)
}
