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
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

const (
	// DefaultBaseURL is the search endpoint of the English Wikipedia.
	DefaultBaseURL = "https://en.wikipedia.org/w/api.php"
	// DefaultUserAgent follows the Wikimedia User-Agent policy.
	DefaultUserAgent = "eino (https://github.com/cloudwego/eino)"
)

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Wikipedia search API.
// It is safe for concurrent use; each Search issues exactly one request.
type Client struct {
	// httpClient is the template transport proxies are applied to.
	httpClient *http.Client
	// doer, when set, replaces httpClient and ignores proxies.
	doer Doer
	// baseURL is the API endpoint.
	baseURL string
	// userAgent is the user agent used in the requests.
	userAgent string
	// timeout, when positive, overrides the http client timeout.
	timeout time.Duration

	initialProxy *ProxyConfig
	// route is swapped as a whole by SetProxy; Search loads it once.
	route atomic.Pointer[route]
}

type route struct {
	proxy *ProxyConfig
	doer  Doer
}

// release closes the idle connections of a transport the client built for a proxy.
func (r *route) release() {
	if r == nil || r.proxy == nil {
		return
	}
	if hc, ok := r.doer.(*http.Client); ok {
		hc.CloseIdleConnections()
	}
}

// New creates a new search client.
func New(opts ...ClientOption) (*Client, error) {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if err := c.SetProxy(c.initialProxy); err != nil {
		return nil, err
	}
	return c, nil
}

// Proxy returns a copy of the proxy used by subsequent searches, or nil.
func (c *Client) Proxy() *ProxyConfig {
	return c.route.Load().proxy.clone()
}

// SetProxy changes the proxy for searches started after the call.
// Searches already in flight keep the transport they started with. A nil proxy disables proxying.
func (c *Client) SetProxy(proxy *ProxyConfig) error {
	proxy = proxy.clone()
	doer, err := c.newDoer(proxy, true)
	if err != nil {
		return err
	}
	old := c.route.Swap(&route{proxy: proxy, doer: doer})
	if c.doer == nil {
		old.release()
	}
	return nil
}

// newDoer builds the doer for proxy. Transports built without keepAlive
// close their connection after a single response.
func (c *Client) newDoer(proxy *ProxyConfig, keepAlive bool) (Doer, error) {
	if err := proxy.validate(); err != nil {
		return nil, err
	}
	if c.doer != nil {
		return c.doer, nil
	}

	hc := *c.httpClient
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	if proxy == nil {
		return &hc, nil
	}

	var transport *http.Transport
	switch rt := hc.Transport.(type) {
	case nil:
		transport = http.DefaultTransport.(*http.Transport).Clone()
	case *http.Transport:
		transport = rt.Clone()
	default:
		return nil, fmt.Errorf("proxy requires an *http.Transport, got %T", rt)
	}
	transport.Proxy = http.ProxyURL(proxy.URL())
	transport.DisableKeepAlives = !keepAlive
	hc.Transport = transport
	return &hc, nil
}

// Search searches Wikipedia for the query and returns the parsed hits.
// API documentation: https://www.mediawiki.org/wiki/API:Search
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newSearchError(KindInvalidArgument, nil, "a search query must be provided")
	}

	o := &searchOptions{}
	for _, opt := range opts {
		opt(o)
	}

	doer := c.route.Load().doer
	if o.proxySet {
		oneOff, err := c.newDoer(o.proxy, false)
		if err != nil {
			return nil, newSearchError(KindInvalidArgument, err, "invalid request proxy")
		}
		if c.doer == nil {
			defer (&route{proxy: o.proxy, doer: oneOff}).release()
		}
		doer = oneOff
	}

	resp, body, err := c.makeRequest(ctx, doer, searchParams(query))
	if err != nil {
		return nil, err
	}

	sanitized := Sanitize(body)
	results, err := parseResults(sanitized)
	if err != nil {
		return nil, err
	}

	return newSearchResponse(sanitized, resp, results), nil
}

// searchParams returns the fixed parameter set of a search request.
func searchParams(query string) url.Values {
	return url.Values{
		"format":      []string{"json"},
		"action":      []string{"query"},
		"errorformat": []string{"plaintext"},
		"list":        []string{"search"},
		"srsearch":    []string{query},
	}
}

// makeRequest sends one GET request and reads the whole body.
func (c *Client) makeRequest(ctx context.Context, doer Doer, params url.Values) (*http.Response, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, "", newSearchError(KindTransportFailure, err, "create request failed")
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		return nil, "", newSearchError(KindTransportFailure, err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", newSearchError(KindTransportFailure, err, "read response body failed")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := newSearchError(KindTransportFailure, nil, "unexpected status code: %d", resp.StatusCode)
		e.StatusCode = resp.StatusCode
		return nil, "", e
	}

	return resp, string(body), nil
}
