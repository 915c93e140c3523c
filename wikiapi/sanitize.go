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
	"html"
	"regexp"
	"strings"
)

// entityPattern matches a named or numeric character reference terminated by ';'.
var entityPattern = regexp.MustCompile(`&#?[0-9A-Za-z]+;`)

// tagPattern matches the shortest run from '<' to the next '>'.
var tagPattern = regexp.MustCompile(`<.*?>`)

// Sanitize turns a raw API payload into JSON that is safe to parse and strips
// the markup the search API embeds inside snippets.
//
// The steps run in a fixed order:
//  1. every "&quot;" becomes an escaped quote (\"), so that decoding cannot
//     produce a bare quote inside a JSON string;
//  2. the remaining HTML entities are decoded. Only references ending in ';'
//     are touched, so text like "a&notb" or "x&copy2" is kept verbatim;
//  3. every <...> tag is removed. An unterminated '<' is left as is.
func Sanitize(raw string) string {
	unquoted := strings.ReplaceAll(raw, "&quot;", `\"`)
	decoded := entityPattern.ReplaceAllStringFunc(unquoted, html.UnescapeString)
	return tagPattern.ReplaceAllString(decoded, "")
}
