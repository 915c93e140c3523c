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
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"github.com/cloudwego/eino-ext/components/tool/wikisearch/wikiapi"
)

// defaultTimeout bounds each request of both the tool and the retriever.
const defaultTimeout = 15 * time.Second

// Config is the configuration for the wikipedia search tool.
type Config struct {
	// BaseURL is the url of the search api.
	// Optional. Default: "https://en.wikipedia.org/w/api.php".
	BaseURL string `json:"base_url"`
	// UserAgent is the user agent to use for the http client.
	// Optional but HIGHLY RECOMMENDED to override the default with your project's info.
	// It is recommended to follow Wikipedia's robot specification:
	// https://foundation.wikimedia.org/wiki/Policy:Wikimedia_Foundation_User-Agent_Policy
	// Optional. Default: "eino (https://github.com/cloudwego/eino)"
	UserAgent string `json:"user_agent"`
	// Timeout is the maximum time to wait for the http client to return a response.
	// Optional. Default: 15s.
	Timeout time.Duration `json:"timeout"`
	// Proxy routes every search through a proxy.
	// Optional. Default: nil (direct connection).
	Proxy *wikiapi.ProxyConfig `json:"proxy"`
	// TopK caps the number of results returned from the single search request.
	// Optional. Default: 0 (every result the server returns).
	TopK int `json:"top_k"`

	ToolName string `json:"tool_name"` // Optional. Default: "wiki_search".
	ToolDesc string `json:"tool_desc"` // Optional. Default: "search Wikipedia articles by keyword and get their titles, snippets and links"
}

// NewTool creates a new wikipedia search tool.
func NewTool(ctx context.Context, conf *Config) (tool.InvokableTool, error) {
	err := conf.validate()
	if err != nil {
		return nil, err
	}
	w, err := newWikiSearch(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create wiki search tool: %w", err)
	}
	t, err := utils.InferTool(conf.ToolName, conf.ToolDesc, w.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to infer tool: %w", err)
	}
	return t, nil
}

// validate validates the configuration and sets default values if not provided.
func (conf *Config) validate() error {
	if conf == nil {
		return fmt.Errorf("config is nil")
	}
	if conf.ToolName == "" {
		conf.ToolName = "wiki_search"
	}
	if conf.ToolDesc == "" {
		conf.ToolDesc = "search Wikipedia articles by keyword and get their titles, snippets and links"
	}
	if conf.UserAgent == "" {
		conf.UserAgent = wikiapi.DefaultUserAgent
	}
	if conf.BaseURL == "" {
		conf.BaseURL = wikiapi.DefaultBaseURL
	}
	if conf.Timeout <= 0 {
		conf.Timeout = defaultTimeout
	}
	if conf.TopK < 0 {
		conf.TopK = 0
	}
	return nil
}

func newClient(baseURL, userAgent string, timeout time.Duration, proxy *wikiapi.ProxyConfig) (*wikiapi.Client, error) {
	return wikiapi.New(
		wikiapi.WithBaseURL(baseURL),
		wikiapi.WithUserAgent(userAgent),
		wikiapi.WithTimeout(timeout),
		wikiapi.WithProxy(proxy),
	)
}

func newWikiSearch(_ context.Context, conf *Config) (*wikiSearch, error) {
	c, err := newClient(conf.BaseURL, conf.UserAgent, conf.Timeout, conf.Proxy)
	if err != nil {
		return nil, err
	}
	return &wikiSearch{
		conf:   conf,
		client: c,
	}, nil
}

type wikiSearch struct {
	conf   *Config
	client *wikiapi.Client
}

// Search searches Wikipedia for the query and returns the search results.
func (w *wikiSearch) Search(ctx context.Context, query SearchRequest) (*SearchResponse, error) {
	sr, err := w.client.Search(ctx, query.Query)
	if err != nil {
		return nil, err
	}

	hits := sr.Results()
	if w.conf.TopK > 0 && len(hits) > w.conf.TopK {
		hits = hits[:w.conf.TopK]
	}

	res := make([]*Result, 0, len(hits))
	for _, hit := range hits {
		res = append(res, &Result{
			Title:      hit.Title,
			URL:        hit.URL(),
			Snippet:    hit.Preview,
			PageID:     hit.PageID,
			Size:       hit.Size,
			WordCount:  hit.WordCount,
			LastEdited: hit.LastEdited,
		})
	}
	return &SearchResponse{Results: res}, nil
}

// Result is the page search result.
type Result struct {
	Title      string    `json:"title" jsonschema_description:"The title of the article"`
	URL        string    `json:"url" jsonschema_description:"The url of the article"`
	Snippet    string    `json:"snippet" jsonschema_description:"A short excerpt of the article matching the query"`
	PageID     int64     `json:"page_id" jsonschema_description:"The numerical id of the article"`
	Size       int64     `json:"size" jsonschema_description:"The size of the article as reported by Wikipedia"`
	WordCount  int64     `json:"word_count" jsonschema_description:"The number of words in the article"`
	LastEdited time.Time `json:"last_edited" jsonschema_description:"The time of the last edit of the article"`
}

// SearchRequest is the search request.
type SearchRequest struct {
	Query string `json:"query" jsonschema_description:"The keywords to search Wikipedia for"`
}

// SearchResponse is the search response.
type SearchResponse struct {
	Results []*Result `json:"results" jsonschema_description:"The results of the search"`
}
