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
	"time"
)

// ClientOption is a functional option for the search client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used as the base transport.
// Proxy settings are applied on a copy of it, the given client is never modified.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithDoer replaces the transport entirely. Proxy settings are not applied to a custom Doer.
func WithDoer(doer Doer) ClientOption {
	return func(c *Client) {
		c.doer = doer
	}
}

// WithBaseURL sets the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithUserAgent sets the user agent sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout bounds each request. Zero keeps the transport default.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithProxy sets the initial proxy of the client.
func WithProxy(proxy *ProxyConfig) ClientOption {
	return func(c *Client) {
		c.initialProxy = proxy.clone()
	}
}

// SearchOption is a per call option for Client.Search.
type SearchOption func(*searchOptions)

type searchOptions struct {
	proxy    *ProxyConfig
	proxySet bool
}

// WithRequestProxy routes a single search through the given proxy,
// leaving the client's own proxy untouched. A nil proxy forces a direct connection.
func WithRequestProxy(proxy *ProxyConfig) SearchOption {
	return func(o *searchOptions) {
		o.proxy = proxy.clone()
		o.proxySet = true
	}
}
