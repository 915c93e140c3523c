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
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const singleHit = `{"query":{"search":[{"pageid":1,"title":"T","snippet":"S","size":10,"wordcount":2,"timestamp":"2020-01-01T00:00:00Z"}]}}`

// recordingDoer answers every request with a fixed response and counts calls.
type recordingDoer struct {
	calls   int
	lastReq *http.Request
	status  int
	body    string
	err     error
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	d.lastReq = req
	if d.err != nil {
		return nil, d.err
	}
	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(d.body)),
	}, nil
}

func newTestClient(t *testing.T, doer Doer) *Client {
	c, err := New(WithDoer(doer))
	assert.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ClientOption
		wantErr bool
	}{
		{name: "defaults"},
		{
			name: "full options",
			opts: []ClientOption{
				WithBaseURL("https://en.wikipedia.org/w/api.php"),
				WithUserAgent("eino (https://github.com/cloudwego/eino)"),
				WithTimeout(15 * time.Second),
				WithHTTPClient(&http.Client{}),
				WithProxy(&ProxyConfig{Host: "proxy.example.com", Port: 8080}),
			},
		},
		{
			name:    "invalid proxy",
			opts:    []ClientOption{WithProxy(&ProxyConfig{Scheme: "ftp", Host: "proxy.example.com"})},
			wantErr: true,
		},
		{
			name:    "proxy on custom round tripper",
			opts:    []ClientOption{WithHTTPClient(&http.Client{Transport: roundTripFunc(nil)}), WithProxy(&ProxyConfig{Host: "proxy"})},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, c)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestClient_Search(t *testing.T) {
	var gotQuery url.Values
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("X-Test", "yes")
		_, _ = w.Write([]byte(singleHit))
	}))
	defer server.Close()

	c, err := New(WithBaseURL(server.URL+"/w/api.php"), WithUserAgent("wikiapi-test"))
	assert.NoError(t, err)

	resp, err := c.Search(context.Background(), "  T ")
	assert.NoError(t, err)

	assert.Equal(t, url.Values{
		"format":      []string{"json"},
		"action":      []string{"query"},
		"errorformat": []string{"plaintext"},
		"list":        []string{"search"},
		"srsearch":    []string{"T"},
	}, gotQuery)
	assert.Equal(t, "wikiapi-test", gotUA)

	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "yes", resp.Header().Get("X-Test"))
	assert.Equal(t, singleHit, resp.RawBody())
	assert.Equal(t, 1, resp.Len())

	r := resp.Results()[0]
	assert.Equal(t, int64(1), r.PageID)
	assert.Equal(t, "T", r.Title)
	assert.Equal(t, "S", r.Preview)
	assert.Equal(t, int64(10), r.Size)
	assert.Equal(t, int64(2), r.WordCount)
	assert.True(t, r.LastEdited.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "https://en.wikipedia.org/?curid=1", r.URL())
}

func TestClient_Search_Sanitized(t *testing.T) {
	doer := &recordingDoer{body: `{"batchcomplete":"","query":{"searchinfo":{"totalhits":2},"search":[` +
		`{"ns":0,"title":"Go (programming language)","pageid":25039021,"size":98000,"wordcount":9000,` +
		`"snippet":"<span class=&quot;searchmatch&quot;>Go</span> is &quot;simple&quot; &amp; fast","timestamp":"2024-05-01T10:20:30Z"},` +
		`{"ns":0,"title":"Go","pageid":9007199254740993,"size":1,"wordcount":0,"snippet":"","timestamp":"2024-05-02T00:00:00Z"}]}}`}
	c := newTestClient(t, doer)

	resp, err := c.Search(context.Background(), "go")
	assert.NoError(t, err)
	assert.Equal(t, 1, doer.calls)

	results := resp.Results()
	assert.Len(t, results, 2)
	assert.Equal(t, `Go is "simple" & fast`, results[0].Preview)
	assert.Equal(t, "Go (programming language)", results[0].Title)
	assert.Equal(t, int64(9007199254740993), results[1].PageID)
	assert.Equal(t, "https://en.wikipedia.org/?curid=9007199254740993", results[1].URL())
	assert.NotContains(t, resp.RawBody(), "<span")
}

func TestClient_Search_EmptyResults(t *testing.T) {
	c := newTestClient(t, &recordingDoer{body: `{"query":{"search":[]}}`})

	resp, err := c.Search(context.Background(), "nothing matches this")
	assert.NoError(t, err)
	assert.NotNil(t, resp.Results())
	assert.Empty(t, resp.Results())
	assert.Equal(t, 0, resp.Len())
}

func TestClient_Search_ResultsAreCopies(t *testing.T) {
	c := newTestClient(t, &recordingDoer{body: singleHit})

	resp, err := c.Search(context.Background(), "T")
	assert.NoError(t, err)

	results := resp.Results()
	results[0].Title = "changed"
	assert.Equal(t, "T", resp.Results()[0].Title)
}

func TestClient_Search_InvalidArgument(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		doer := &recordingDoer{body: singleHit}
		c := newTestClient(t, doer)

		resp, err := c.Search(context.Background(), q)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.True(t, IsInvalidArgumentErr(err))
		assert.Equal(t, 0, doer.calls)
	}
}

func TestClient_Search_Errors(t *testing.T) {
	errNetwork := errors.New("connection refused")
	tests := []struct {
		name      string
		doer      *recordingDoer
		wantKind  error
		wantField string
	}{
		{"transport error", &recordingDoer{err: errNetwork}, ErrTransportFailure, ""},
		{"server error", &recordingDoer{status: http.StatusInternalServerError, body: singleHit}, ErrTransportFailure, ""},
		{"not json", &recordingDoer{body: "<html>Service unavailable</html>"}, ErrMalformedResponse, ""},
		{"truncated json", &recordingDoer{body: `{"query":{"search":[`}, ErrMalformedResponse, ""},
		{"root is array", &recordingDoer{body: `[]`}, ErrUnexpectedSchema, ""},
		{"missing query", &recordingDoer{body: `{"batchcomplete":""}`}, ErrUnexpectedSchema, "query"},
		{"query not object", &recordingDoer{body: `{"query":[]}`}, ErrUnexpectedSchema, "query"},
		{"missing search", &recordingDoer{body: `{"query":{}}`}, ErrUnexpectedSchema, "search"},
		{"search not array", &recordingDoer{body: `{"query":{"search":{}}}`}, ErrUnexpectedSchema, "search"},
		{"element not object", &recordingDoer{body: `{"query":{"search":[1]}}`}, ErrUnexpectedSchema, "search"},
		{
			"missing pageid",
			&recordingDoer{body: `{"query":{"search":[{"title":"T","snippet":"S","size":10,"wordcount":2,"timestamp":"2020-01-01T00:00:00Z"}]}}`},
			ErrUnexpectedSchema, "pageid",
		},
		{
			"size is not a number",
			&recordingDoer{body: `{"query":{"search":[{"pageid":1,"title":"T","snippet":"S","size":"big","wordcount":2,"timestamp":"2020-01-01T00:00:00Z"}]}}`},
			ErrUnexpectedSchema, "size",
		},
		{
			"fractional wordcount",
			&recordingDoer{body: `{"query":{"search":[{"pageid":1,"title":"T","snippet":"S","size":10,"wordcount":2.5,"timestamp":"2020-01-01T00:00:00Z"}]}}`},
			ErrUnexpectedSchema, "wordcount",
		},
		{
			"bad timestamp",
			&recordingDoer{body: `{"query":{"search":[{"pageid":1,"title":"T","snippet":"S","size":10,"wordcount":2,"timestamp":"yesterday"}]}}`},
			ErrUnexpectedSchema, "timestamp",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.doer)

			resp, err := c.Search(context.Background(), "T")
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, 1, tt.doer.calls)

			var searchErr *SearchError
			assert.True(t, errors.As(err, &searchErr))
			assert.Equal(t, tt.wantField, searchErr.Field)
		})
	}
}

func TestClient_Search_TransportDetails(t *testing.T) {
	errNetwork := errors.New("connection refused")
	c := newTestClient(t, &recordingDoer{err: errNetwork})
	_, err := c.Search(context.Background(), "T")
	assert.ErrorIs(t, err, errNetwork)
	assert.True(t, IsTransportErr(err))

	c = newTestClient(t, &recordingDoer{status: http.StatusTooManyRequests})
	_, err = c.Search(context.Background(), "T")
	var searchErr *SearchError
	assert.True(t, errors.As(err, &searchErr))
	assert.Equal(t, http.StatusTooManyRequests, searchErr.StatusCode)
}

func TestClient_Search_APIError(t *testing.T) {
	c := newTestClient(t, &recordingDoer{body: `{"errors":[{"code":"nosrsearch","text":"The \"srsearch\" parameter must be set.","module":"query+search"}],"docref":"See https://en.wikipedia.org/w/api.php for API usage."}`})

	_, err := c.Search(context.Background(), "T")
	assert.True(t, IsUnexpectedSchemaErr(err))

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "nosrsearch", apiErr.Code)
	assert.Equal(t, `The "srsearch" parameter must be set.`, apiErr.Text)
}

func TestClient_Search_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(singleHit))
	}))
	defer server.Close()

	c, err := New(WithBaseURL(server.URL))
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Search(ctx, "T")
	assert.True(t, IsTransportErr(err))
	assert.ErrorIs(t, err, context.Canceled)
}

// newProxyServer acts as a forward HTTP proxy and records the hosts it was asked to reach.
func newProxyServer(t *testing.T, body string, hosts chan<- string) (*httptest.Server, *ProxyConfig) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hosts <- r.URL.Host
		_, _ = w.Write([]byte(body))
	}))
	u, err := url.Parse(server.URL)
	assert.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	assert.NoError(t, err)
	return server, &ProxyConfig{Scheme: "http", Host: u.Hostname(), Port: port}
}

func TestClient_Proxy(t *testing.T) {
	hosts := make(chan string, 4)
	proxyServer, proxy := newProxyServer(t, singleHit, hosts)
	defer proxyServer.Close()

	c, err := New(WithBaseURL("http://wiki.invalid/w/api.php"), WithProxy(proxy))
	assert.NoError(t, err)
	assert.Equal(t, proxy, c.Proxy())

	resp, err := c.Search(context.Background(), "T")
	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Len())
	assert.Equal(t, "wiki.invalid", <-hosts)

	assert.NoError(t, c.SetProxy(nil))
	assert.Nil(t, c.Proxy())
}

func TestClient_RequestProxy(t *testing.T) {
	hosts := make(chan string, 4)
	proxyServer, proxy := newProxyServer(t, singleHit, hosts)
	defer proxyServer.Close()

	c, err := New(WithBaseURL("http://wiki.invalid/w/api.php"))
	assert.NoError(t, err)

	resp, err := c.Search(context.Background(), "T", WithRequestProxy(proxy))
	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Len())
	assert.Equal(t, "wiki.invalid", <-hosts)
	assert.Nil(t, c.Proxy())

	_, err = c.Search(context.Background(), "T", WithRequestProxy(&ProxyConfig{Scheme: "gopher", Host: "x"}))
	assert.True(t, IsInvalidArgumentErr(err))
}

// settleGoroutines waits until at most limit goroutines run and returns the last count.
func settleGoroutines(limit int) int {
	deadline := time.Now().Add(2 * time.Second)
	for {
		n := runtime.NumGoroutine()
		if n <= limit || time.Now().After(deadline) {
			return n
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClient_RequestProxy_ReleasesConnections(t *testing.T) {
	const searches = 30
	hosts := make(chan string, searches)
	proxyServer, proxy := newProxyServer(t, singleHit, hosts)
	defer proxyServer.Close()

	c, err := New(WithBaseURL("http://wiki.invalid/w/api.php"))
	assert.NoError(t, err)

	before := runtime.NumGoroutine()
	for i := 0; i < searches; i++ {
		resp, err := c.Search(context.Background(), "x", WithRequestProxy(proxy))
		assert.NoError(t, err)
		assert.Equal(t, 1, resp.Len())
		assert.Equal(t, "wiki.invalid", <-hosts)
	}

	after := settleGoroutines(before + 4)
	assert.LessOrEqual(t, after, before+4, "goroutines before %d, after %d", before, after)
}

func TestClient_SetProxy_ReleasesReplacedTransport(t *testing.T) {
	hosts := make(chan string, 4)
	proxyServer, proxy := newProxyServer(t, singleHit, hosts)
	defer proxyServer.Close()

	c, err := New(WithBaseURL("http://wiki.invalid/w/api.php"))
	assert.NoError(t, err)
	before := runtime.NumGoroutine()

	assert.NoError(t, c.SetProxy(proxy))
	_, err = c.Search(context.Background(), "x")
	assert.NoError(t, err)
	assert.Equal(t, "wiki.invalid", <-hosts)

	// let the transport park the connection before it is replaced
	time.Sleep(100 * time.Millisecond)
	assert.NoError(t, c.SetProxy(nil))

	after := settleGoroutines(before + 2)
	assert.LessOrEqual(t, after, before+2, "goroutines before %d, after %d", before, after)
}

func TestClient_SetProxy_AffectsLaterCallsOnly(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		_, _ = w.Write([]byte(`{"query":{"search":[{"pageid":1,"title":"direct","snippet":"","size":0,"wordcount":0,"timestamp":"2020-01-01T00:00:00Z"}]}}`))
	}))
	defer direct.Close()

	hosts := make(chan string, 4)
	proxyServer, proxy := newProxyServer(t,
		`{"query":{"search":[{"pageid":2,"title":"proxied","snippet":"","size":0,"wordcount":0,"timestamp":"2020-01-01T00:00:00Z"}]}}`,
		hosts)
	defer proxyServer.Close()

	c, err := New(WithBaseURL(direct.URL))
	assert.NoError(t, err)

	type outcome struct {
		resp *SearchResponse
		err  error
	}
	first := make(chan outcome, 1)
	go func() {
		resp, err := c.Search(context.Background(), "first")
		first <- outcome{resp, err}
	}()

	<-entered
	assert.NoError(t, c.SetProxy(proxy))
	close(release)

	got := <-first
	assert.NoError(t, got.err)
	assert.Equal(t, "direct", got.resp.Results()[0].Title)

	second, err := c.Search(context.Background(), "second")
	assert.NoError(t, err)
	assert.Equal(t, "proxied", second.Results()[0].Title)
	assert.Equal(t, strings.TrimPrefix(direct.URL, "http://"), <-hosts)
}
