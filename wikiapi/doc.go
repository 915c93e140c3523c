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

// Package wikiapi provides a Go client for the Wikipedia search API.
//
// Every call to Search sends exactly one GET request to
// https://en.wikipedia.org/w/api.php (list=search), sanitizes the body
// (HTML entities decoded, snippet markup stripped) and maps query.search
// into SearchResult values. There is no retry, caching or pagination.
//
// Example usage:
//
//	client, err := wikiapi.New(
//		wikiapi.WithUserAgent("MyApp/1.0 (me@example.com)"),
//		wikiapi.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	resp, err := client.Search(context.Background(), "golang")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, r := range resp.Results() {
//		fmt.Printf("Title: %s\nURL: %s\nPreview: %s\n\n", r.Title, r.URL(), r.Preview)
//	}
//
// Failures are *SearchError values; use errors.Is with ErrInvalidArgument,
// ErrTransportFailure, ErrMalformedResponse or ErrUnexpectedSchema to tell them apart.
package wikiapi
