/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 *
 * Package simplycompete talks to the World Taekwondo event platform hosted at
 * worldtkd.simplycompete.com.
 */
package simplycompete

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/mikeb26/tkdrank/internal"
)

const DefaultBaseURL = "https://worldtkd.simplycompete.com"

// ErrForbidden is returned when Cloudflare rejects our cookies.
var ErrForbidden = errors.New("simplycompete: forbidden (cf_clearance missing or expired?)")

type Client struct {
	base       *url.URL
	httpClient *http.Client
	cookies    CookieSource
}

// NewClient returns a client for the SimplyCompete instance at baseURL. A nil
// httpClient selects http.DefaultClient; a nil cookie source sends no
// cookies, which Cloudflare usually answers with 403.
func NewClient(baseURL string, httpClient *http.Client,
	cookies CookieSource) (*Client, error) {

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("simplycompete: bad base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cookies == nil {
		cookies = StaticCookies{}
	}

	return &Client{base: base, httpClient: httpClient, cookies: cookies}, nil
}

func (client *Client) BaseURL() string {
	return client.base.String()
}

func (client *Client) endpoint(path string, q url.Values) string {
	u := client.base.ResolveReference(&url.URL{Path: path})
	u.RawQuery = q.Encode()
	return u.String()
}

// get performs a GET with browser-like headers and the current cookies and
// returns the body of a 200 response.
func (client *Client) get(ctx context.Context, endpoint, referer string,
	cookies []*http.Cookie) ([]byte, error) {

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", internal.BrowserUserAgent)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Client", internal.UserAgent)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing HTTP GET %v: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %v: %w", endpoint, err)
	}

	if resp.StatusCode == http.StatusForbidden {
		return nil, ErrForbidden
	}
	if resp.StatusCode != http.StatusOK {
		snippet := body
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		return nil, fmt.Errorf("HTTP %d fetching %s: %s", resp.StatusCode,
			endpoint, string(snippet))
	}

	return body, nil
}
