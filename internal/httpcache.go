/* Copyright © 2025 Mike Brown. All Rights Reserved.
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
	"github.com/mikeb26/tkdrank/s3cache"
)

// NewCachedHttpClient returns an http.Client whose responses are cached in
// the given S3 bucket for maxAge regardless of what the origin asks for.
// When the bucket cannot be reached it falls back to an in-memory cache. An
// empty bucket name selects the in-memory cache directly.
func NewCachedHttpClient(ctx context.Context, bucket string,
	maxAge time.Duration) *http.Client {

	var cache httpcache.Cache
	if bucket != "" {
		s3c := s3cache.New(ctx, bucket, true, true)
		if err := s3c.Init(); err != nil {
			log.Printf("httpcache: warning failed to init S3 cache: %v; falling back to memory cache",
				err)
		} else {
			cache = s3c
		}
	}
	if cache == nil {
		cache = httpcache.NewMemoryCache()
	}

	return newCachingClient(cache, http.DefaultTransport, maxAge)
}

func newCachingClient(cache httpcache.Cache, rt http.RoundTripper,
	maxAge time.Duration) *http.Client {

	hc := httpcache.NewTransport(cache)
	// origin servers (SimplyCompete in particular) send no-store on
	// everything; rewrite so httpcache honors our TTL instead
	override := NewHeaderOverrideTransport(rt)
	override.Response = MaxAgeOverride(maxAge)
	hc.Transport = override

	return &http.Client{Transport: hc}
}

// MaxAgeOverride strips origin cache headers and enforces maxAge. Only
// successful responses are made cacheable.
func MaxAgeOverride(maxAge time.Duration) func(resp *http.Response) error {
	return func(resp *http.Response) error {
		resp.Header.Del("Pragma")
		resp.Header.Del("Expires")
		resp.Header.Del("Cache-Control")
		if resp.StatusCode != http.StatusOK {
			resp.Header.Set("Cache-Control", "no-store")
			return nil
		}
		resp.Header.Set("Cache-Control",
			fmt.Sprintf("public, max-age=%d", int(maxAge/time.Second)))
		return nil
	}
}

type HeaderOverrideTransport struct {
	Request  func(req *http.Request)
	Response func(resp *http.Response) error

	// Underlying RoundTripper (e.g. default transport or another decorator)
	wrappedRT http.RoundTripper
}

func NewHeaderOverrideTransport(rt http.RoundTripper) *HeaderOverrideTransport {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &HeaderOverrideTransport{wrappedRT: rt}
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
