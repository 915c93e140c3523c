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

package wikisearch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/cloudwego/eino-ext/components/tool/wikisearch/wikiapi"
)

const typ = "WikiSearch"

const (
	titleKey      = "title"
	urlKey        = "url"
	sizeKey       = "size"
	wordCountKey  = "word_count"
	lastEditedKey = "last_edited"
)

// RetrieverConfig is the configuration of the wikipedia retriever.
type RetrieverConfig struct {
	// BaseURL is the url of the search api. Default: "https://en.wikipedia.org/w/api.php".
	BaseURL string `json:"base_url"`
	// UserAgent is sent with every request. Default: "eino (https://github.com/cloudwego/eino)".
	UserAgent string `json:"user_agent"`
	// Timeout is the maximum time to wait for the http client to return a response.
	// Optional. Default: 15s.
	Timeout time.Duration `json:"timeout"`
	// Proxy routes every search through a proxy. Default: nil.
	Proxy *wikiapi.ProxyConfig `json:"proxy"`
	// TopK is the default number of documents returned, overridden by retriever.WithTopK.
	// Default: 0 (every result of the single search request).
	TopK int `json:"top_k"`
}

// Retriever retrieves Wikipedia search hits as documents.
type Retriever struct {
	config *RetrieverConfig
	client *wikiapi.Client
}

var _ retriever.Retriever = (*Retriever)(nil)

// NewRetriever creates a new wikipedia retriever.
func NewRetriever(_ context.Context, config *RetrieverConfig) (*Retriever, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.TopK < 0 {
		return nil, fmt.Errorf("top_k must not be negative")
	}
	if config.BaseURL == "" {
		config.BaseURL = wikiapi.DefaultBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = wikiapi.DefaultUserAgent
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	c, err := newClient(config.BaseURL, config.UserAgent, config.Timeout, config.Proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to create wiki search client: %w", err)
	}
	return &Retriever{
		config: config,
		client: c,
	}, nil
}

// Retrieve searches Wikipedia once for the query and converts each hit to a document.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) (docs []*schema.Document, err error) {
	defer func() {
		if err != nil {
			ctx = callbacks.OnError(ctx, err)
		}
	}()

	options := retriever.GetCommonOptions(&retriever.Options{TopK: &r.config.TopK}, opts...)
	topK := dereferenceOrZero(options.TopK)

	ctx = callbacks.OnStart(ctx, &retriever.CallbackInput{
		Query: query,
		TopK:  topK,
	})

	resp, err := r.client.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve documents: %w", err)
	}

	hits := resp.Results()
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}

	docs = make([]*schema.Document, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, toDocument(hit))
	}

	callbacks.OnEnd(ctx, &retriever.CallbackOutput{Docs: docs})

	return docs, nil
}

// SetProxy changes the proxy used by later Retrieve calls.
func (r *Retriever) SetProxy(proxy *wikiapi.ProxyConfig) error {
	return r.client.SetProxy(proxy)
}

func (r *Retriever) GetType() string {
	return typ
}

func (r *Retriever) IsCallbacksEnabled() bool {
	return true
}

func toDocument(hit wikiapi.SearchResult) *schema.Document {
	return &schema.Document{
		ID:      strconv.FormatInt(hit.PageID, 10),
		Content: hit.Preview,
		MetaData: map[string]any{
			titleKey:      hit.Title,
			urlKey:        hit.URL(),
			sizeKey:       hit.Size,
			wordCountKey:  hit.WordCount,
			lastEditedKey: hit.LastEdited,
		},
	}
}

// GetTitle returns the article title stored on a retrieved document.
func GetTitle(doc *schema.Document) string {
	return getMeta[string](doc, titleKey)
}

// GetURL returns the article url stored on a retrieved document.
func GetURL(doc *schema.Document) string {
	return getMeta[string](doc, urlKey)
}

// GetSize returns the article size stored on a retrieved document.
func GetSize(doc *schema.Document) int64 {
	return getMeta[int64](doc, sizeKey)
}

// GetWordCount returns the article word count stored on a retrieved document.
func GetWordCount(doc *schema.Document) int64 {
	return getMeta[int64](doc, wordCountKey)
}

// GetLastEdited returns the last edit time stored on a retrieved document.
func GetLastEdited(doc *schema.Document) time.Time {
	return getMeta[time.Time](doc, lastEditedKey)
}

func getMeta[T any](doc *schema.Document, key string) T {
	var zero T
	if doc == nil || doc.MetaData == nil {
		return zero
	}
	if v, ok := doc.MetaData[key].(T); ok {
		return v
	}
	return zero
}

func dereferenceOrZero[T any](v *T) T {
	if v == nil {
		var t T
		return t
	}
	return *v
}
