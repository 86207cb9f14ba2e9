/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package simplycompete

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/mikeb26/tkdrank/internal"
)

// Competition is an event listed on SimplyCompete.
type Competition struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
}

const competitionAttempts = 2

// GetCompetitions fetches the current (non-archived) event list. A 403 causes
// the cookies to be refreshed and the request retried once.
func (client *Client) GetCompetitions(ctx context.Context) ([]Competition, error) {
	q := url.Values{}
	q.Set("da", "true")
	q.Set("eventType", "All")
	q.Set("invitationStatus", "all")
	q.Set("isArchived", "false")
	q.Set("itemsPerPage", "12")
	q.Set("pageNumber", "1")
	endpoint := client.endpoint("/events/eventList", q)
	referer := client.endpoint("/events", nil)

	cookies, err := client.cookies.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading cookies: %w", err)
	}

	var body []byte
	for attempt := 1; attempt <= competitionAttempts; attempt++ {
		body, err = client.get(ctx, endpoint, referer, cookies)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrForbidden) || attempt == competitionAttempts {
			return nil, fmt.Errorf("unable to fetch competitions: %w", err)
		}
		log.Printf("simplycompete.competitions: 403 on attempt %v/%v; refreshing cookies",
			attempt, competitionAttempts)
		cookies, err = client.cookies.Refresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("refreshing cookies: %w", err)
		}
	}

	return parseCompetitions(body)
}

// parseCompetitions accepts the several envelopes the event list has been
// seen in: {"events":[...]}, {"data":[...]}, {"content":[...]} or a bare
// array. Entries without an id or name are dropped.
func parseCompetitions(body []byte) ([]Competition, error) {
	items, err := findEventArray(body)
	if err != nil {
		return nil, err
	}

	var comps []Competition
	for _, item := range items {
		id := flexField(item, "id")
		name := flexField(item, "name")
		if id == "" || name == "" {
			continue
		}
		rawStart := flexField(item, "startDate")
		if rawStart == "" {
			rawStart = flexField(item, "date")
		}
		start, err := internal.ParseDateOrZero(rawStart)
		if err != nil {
			log.Printf("simplycompete.competitions: bad start date %q for %v: %v",
				rawStart, id, err)
		}
		comps = append(comps, Competition{ID: id, Name: name, StartDate: start})
	}

	return comps, nil
}

func findEventArray(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("decoding competitions JSON: %w", err)
	}

	if obj, ok := top.(map[string]any); ok {
		found := false
		for _, k := range []string{"events", "data", "content"} {
			if v, ok := obj[k]; ok {
				top = v
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unexpected competitions response: no events, data or content key")
		}
	}

	arr, ok := top.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected competitions response structure: %T", top)
	}

	var items []map[string]any
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items, nil
}

// flexField renders a JSON scalar as a string; ids show up as both strings
// and numbers.
func flexField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}
