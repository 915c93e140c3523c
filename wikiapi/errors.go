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
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a search failure.
type Kind int

const (
	// KindInvalidArgument means the query was rejected before any network activity.
	KindInvalidArgument Kind = iota + 1
	// KindTransportFailure means the HTTP exchange itself failed or returned a non-2xx status.
	KindTransportFailure
	// KindMalformedResponse means the sanitized body is not valid JSON.
	KindMalformedResponse
	// KindUnexpectedSchema means the JSON parsed but did not have the expected shape.
	KindUnexpectedSchema
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindTransportFailure:
		return "transport failure"
	case KindMalformedResponse:
		return "malformed response"
	case KindUnexpectedSchema:
		return "unexpected schema"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SearchError is returned by every failing Client.Search call.
// It carries the failure kind and wraps the underlying cause, if any.
type SearchError struct {
	Kind Kind
	// Message is the human readable error message.
	Message string
	// Field names the offending JSON field for KindUnexpectedSchema errors.
	Field string
	// StatusCode is the HTTP status for KindTransportFailure errors caused by a non-2xx response.
	StatusCode int
	// Err is the original error.
	Err error
}

func (e *SearchError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a SearchError of the same kind, so that
// errors.Is(err, ErrUnexpectedSchema) matches any schema failure.
func (e *SearchError) Is(target error) bool {
	t, ok := target.(*SearchError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Field == ""
}

func newSearchError(kind Kind, err error, format string, args ...any) *SearchError {
	return &SearchError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func schemaError(field string, format string, args ...any) *SearchError {
	e := newSearchError(KindUnexpectedSchema, nil, format, args...)
	e.Field = field
	return e
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidArgument   = &SearchError{Kind: KindInvalidArgument}
	ErrTransportFailure  = &SearchError{Kind: KindTransportFailure}
	ErrMalformedResponse = &SearchError{Kind: KindMalformedResponse}
	ErrUnexpectedSchema  = &SearchError{Kind: KindUnexpectedSchema}
)

// KindOf returns the kind of a search failure, or 0 when err is not a SearchError.
func KindOf(err error) Kind {
	var searchErr *SearchError
	if errors.As(err, &searchErr) {
		return searchErr.Kind
	}
	return 0
}

// IsInvalidArgumentErr checks if the error is caused by an empty query.
func IsInvalidArgumentErr(err error) bool {
	return KindOf(err) == KindInvalidArgument
}

// IsTransportErr checks if the error comes from the HTTP exchange.
//
// Example:
//
//	if IsTransportErr(err) {
//		// the server could not be reached, try another proxy
//		client.SetProxy(fallback)
//	}
func IsTransportErr(err error) bool {
	return KindOf(err) == KindTransportFailure
}

// IsMalformedResponseErr checks if the server answered with something that is not JSON.
func IsMalformedResponseErr(err error) bool {
	return KindOf(err) == KindMalformedResponse
}

// IsUnexpectedSchemaErr checks if the server answered with JSON of an unknown shape.
func IsUnexpectedSchemaErr(err error) bool {
	return KindOf(err) == KindUnexpectedSchema
}

// APIError represents an error payload returned by the MediaWiki API
// (errorformat=plaintext). It is wrapped inside a KindUnexpectedSchema error.
type APIError struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (code: %s)", e.Text, e.Code)
}
