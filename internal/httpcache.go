/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package internal

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/mikeb26/uefa-drawbot/s3cache"
)

// NewCachedHttpClient returns an http.Client that caches season data via an
// S3-backed httpcache. If the bucket is unreachable it falls back to an
// in-memory cache. Origin cache headers are rewritten to enforce maxAge.
func NewCachedHttpClient(ctx context.Context, maxAge time.Duration) *http.Client {
	var cache httpcache.Cache
	s3c := s3cache.New(ctx, WebCacheBucket, s3cache.WithGzip(),
		s3cache.WithKeyPrefix("seasons"), s3cache.WithErrorLogging())
	if err := s3c.Init(); err != nil {
		log.Printf("httpcache: warning failed to init S3 cache: %v; falling back to memory cache",
			err)
		cache = httpcache.NewMemoryCache()
	} else {
		cache = s3c
	}

	return newClient(cache, http.DefaultTransport, maxAge)
}

// NewMemoryHttpClient is NewCachedHttpClient without S3, wrapping base.
func NewMemoryHttpClient(base http.RoundTripper, maxAge time.Duration) *http.Client {
	return newClient(httpcache.NewMemoryCache(), base, maxAge)
}

func newClient(cache httpcache.Cache, base http.RoundTripper,
	maxAge time.Duration) *http.Client {

	hc := httpcache.NewTransport(cache)
	// we have to inject our own header overrides here in order to override
	// server responses that might indicate caching shouldn't be done
	hc.Transport = &HeaderOverrideTransport{
		wrappedRT: base,
		Request: func(req *http.Request) {
			if req.Header.Get("User-Agent") == "" {
				req.Header.Set("User-Agent", UserAgent)
			}
		},
		Response: func(resp *http.Response) error {
			// only successful responses are worth keeping
			if resp.StatusCode != http.StatusOK {
				return nil
			}
			resp.Header.Del("Pragma")
			resp.Header.Del("Expires")
			resp.Header.Del("Cache-Control")
			resp.Header.Set("Cache-Control",
				fmt.Sprintf("public, max-age=%d", int(maxAge/time.Second)))
			return nil
		},
	}

	return &http.Client{Transport: hc}
}

type HeaderOverrideTransport struct {
	Request  func(req *http.Request)
	Response func(resp *http.Response) error

	// Underlying RoundTripper (e.g. default transport or another decorator)
	wrappedRT http.RoundTripper
}

// RoundTrip applies Request and Response hooks around the underlying transport.
func (t *HeaderOverrideTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so we don’t stomp on the caller’s original
	req2 := req.Clone(req.Context())
	if t.Request != nil {
		t.Request(req2)
	}

	resp, err := t.wrappedRT.RoundTrip(req2)
	if err != nil {
		return nil, err
	}

	if t.Response != nil {
		if err := t.Response(resp); err != nil {
			resp.Body.Close()
			return nil, err
		}
	}
	return resp, nil
}
