/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package internal

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gregjones/httpcache"
)

func TestCachingClientOverridesNoStore(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Cache-Control", "no-store, no-cache")
		w.Header().Set("Pragma", "no-cache")
		fmt.Fprint(w, `{"events":[]}`)
	}))
	defer ts.Close()

	client := newCachingClient(httpcache.NewMemoryCache(), http.DefaultTransport,
		5*time.Minute)

	for i := 0; i < 3; i++ {
		req, err := http.NewRequest("GET", ts.URL+"/events/eventList", nil)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("User-Agent", UserAgent)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("do: %v", err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if len(data) == 0 {
			t.Errorf("Empty data")
		}
		if i > 0 && resp.Header.Get(httpcache.XFromCache) != "1" {
			t.Errorf("request %d not served from cache", i)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("origin hit %d times; want 1", got)
	}
}

func TestCachingClientSkipsErrors(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	client := newCachingClient(httpcache.NewMemoryCache(), http.DefaultTransport,
		time.Hour)
	for i := 0; i < 2; i++ {
		resp, err := client.Get(ts.URL)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("origin hit %d times; want 2 (403 must not be cached)", got)
	}
}

func TestHeaderOverrideRequestHook(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.Header.Get("X-Hook"))
	}))
	defer ts.Close()

	rt := NewHeaderOverrideTransport(nil)
	rt.Request = func(req *http.Request) { req.Header.Set("X-Hook", "set") }

	orig, _ := http.NewRequest("GET", ts.URL, nil)
	resp, err := (&http.Client{Transport: rt}).Do(orig)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "set" {
		t.Errorf("body = %q; want set", body)
	}
	if orig.Header.Get("X-Hook") != "" {
		t.Errorf("caller's request was mutated")
	}
}
