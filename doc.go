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

// Package wikisearch provides two eino components over one Wikipedia search client:
//
//   - NewTool returns a tool.InvokableTool named "wiki_search" for agents that call tools.
//   - NewRetriever returns a retriever.Retriever that turns each search hit into a
//     schema.Document, for chains and graphs that retrieve context.
//
// Both send exactly one request per call through wikiapi.Client, share the same
// defaults (base url, user agent, 15s timeout) and accept the same proxy
// configuration. The retriever sits next to the tool rather than under
// components/retriever because both are thin adapters of the same client.
//
// Example usage:
//
//	searchTool, err := wikisearch.NewTool(ctx, &wikisearch.Config{TopK: 3})
//	...
//	rtr, err := wikisearch.NewRetriever(ctx, &wikisearch.RetrieverConfig{TopK: 5})
//	docs, err := rtr.Retrieve(ctx, "Go programming language")
//	for _, doc := range docs {
//		fmt.Println(wikisearch.GetTitle(doc), wikisearch.GetURL(doc))
//	}
package wikisearch
