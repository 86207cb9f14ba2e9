/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package simplycompete

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
)

const (
	ClearanceCookie = "cf_clearance"
	ConsentCookie   = "cookieconsent_dismissed"
)

// CookieSource supplies the Cloudflare cookies SimplyCompete requires.
// Refresh is called after a 403 and should discard whatever was stale.
type CookieSource interface {
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	Refresh(ctx context.Context) ([]*http.Cookie, error)
}

// StaticCookies serves a fixed clearance token, typically from the
// environment.
type StaticCookies struct {
	Clearance string
	Consent   string
}

func (s StaticCookies) Cookies(context.Context) ([]*http.Cookie, error) {
	if s.Clearance == "" {
		return nil, nil
	}
	consent := s.Consent
	if consent == "" {
		consent = "yes"
	}
	return []*http.Cookie{
		{Name: ConsentCookie, Value: consent},
		{Name: ClearanceCookie, Value: s.Clearance},
	}, nil
}

// Refresh cannot mint a new token; it hands back the same one.
func (s StaticCookies) Refresh(ctx context.Context) ([]*http.Cookie, error) {
	return s.Cookies(ctx)
}

type fileCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FileCookies reads cookies exported from a browser session: a JSON array of
// objects with at least name and value. The file is only trusted if it
// carries cf_clearance; otherwise, and after Refresh removes a stale file,
// Fallback is used.
type FileCookies struct {
	Path     string
	Fallback CookieSource

	mu     sync.Mutex
	loaded []*http.Cookie
}

func (f *FileCookies) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loaded != nil {
		return f.loaded, nil
	}

	cookies, err := readCookiesFile(f.Path)
	if err == nil {
		f.loaded = cookies
		return cookies, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		log.Printf("simplycompete.cookies: ignoring %v: %v", f.Path, err)
	}
	return f.fallback(ctx)
}

func (f *FileCookies) Refresh(ctx context.Context) ([]*http.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loaded = nil
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("simplycompete.cookies: failed to remove stale %v: %v",
			f.Path, err)
	}
	if f.Fallback == nil {
		return nil, nil
	}
	return f.Fallback.Refresh(ctx)
}

func (f *FileCookies) fallback(ctx context.Context) ([]*http.Cookie, error) {
	if f.Fallback == nil {
		return nil, nil
	}
	return f.Fallback.Cookies(ctx)
}

func readCookiesFile(path string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []fileCookie
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid cookies file: %w", err)
	}

	var cookies []*http.Cookie
	hasClearance := false
	for _, c := range raw {
		if c.Name == "" {
			continue
		}
		if c.Name == ClearanceCookie {
			hasClearance = true
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	if !hasClearance {
		return nil, fmt.Errorf("invalid cookies file: no %v cookie", ClearanceCookie)
	}

	return cookies, nil
}

// SaveCookiesFile writes cookies in the format FileCookies reads.
func SaveCookiesFile(path string, cookies []*http.Cookie) error {
	raw := make([]fileCookie, 0, len(cookies))
	for _, c := range cookies {
		raw = append(raw, fileCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
