/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 *
 * Package wtrank scrapes World Taekwondo style ranking tables.
 */
package wtrank

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/mikeb26/tkdrank/internal"
	"github.com/mikeb26/tkdrank/rankchange"
)

// Entry is one athlete row of a division ranking.
type Entry struct {
	Rank     rankchange.Rank `json:"rank"`
	Previous rankchange.Rank `json:"previousRank"`
	Name     string          `json:"name"`
	Country  string          `json:"country"`
	Points   float64         `json:"points"`
}

// Change evaluates the row's movement since the previous ranking.
func (e Entry) Change() (rankchange.Change, bool) {
	return rankchange.Evaluate(e.Rank, e.Previous)
}

type Client struct {
	httpClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

// FetchDivision downloads and parses the ranking table at url.
func (client *Client) FetchDivision(ctx context.Context, url string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rankings (new): %w", err)
	}
	req.Header.Set("User-Agent", internal.UserAgent)

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rankings (do): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to fetch rankings (http): %v fetching %v",
			resp.StatusCode, url)
	}

	return ParseTable(resp.Body)
}

// FetchDivisions fetches several divisions concurrently, keyed by division
// name.
func (client *Client) FetchDivisions(ctx context.Context,
	urls map[string]string) (map[string][]Entry, error) {

	out := make(map[string][]Entry)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for div, url := range urls {
		g.Go(func() error {
			entries, err := client.FetchDivision(gctx, url)
			if err != nil {
				return fmt.Errorf("division %v: %w", div, err)
			}
			mu.Lock()
			out[div] = entries
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type columns struct {
	rank, prev, name, country, points int
}

// locateColumns maps header labels to column indexes; -1 marks an absent
// column.
func locateColumns(headers []string) columns {
	cols := columns{-1, -1, -1, -1, -1}
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.HasPrefix(h, "prev") || strings.HasPrefix(h, "last"):
			cols.prev = i
		case h == "rank" || h == "#" || h == "pos" || h == "position":
			cols.rank = i
		case strings.Contains(h, "name") || h == "athlete":
			cols.name = i
		case strings.Contains(h, "country") || h == "mna" ||
			strings.Contains(h, "nation"):
			cols.country = i
		case strings.HasPrefix(h, "point") || h == "pts":
			cols.points = i
		}
	}
	return cols
}

// ParseTable extracts entries from the first table whose header row names a
// rank column and a name column. Rows whose rank cell is not a number are
// skipped, as are ranks below 1; an empty or "-" previous cell means the
// athlete was unranked.
func ParseTable(r io.Reader) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var entries []Entry
	found := false
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var headers []string
		table.Find("tr").First().Find("th,td").Each(func(_ int, s *goquery.Selection) {
			headers = append(headers, s.Text())
		})
		cols := locateColumns(headers)
		if cols.rank < 0 || cols.name < 0 {
			return true // keep looking
		}
		found = true

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			tds := row.Find("td")
			cell := func(idx int) string {
				if idx < 0 || idx >= tds.Length() {
					return ""
				}
				return strings.TrimSpace(tds.Eq(idx).Text())
			}

			n, err := strconv.Atoi(cell(cols.rank))
			if err != nil || n < 1 {
				return
			}
			e := Entry{
				Rank:     rankchange.Ranked(n),
				Previous: rankchange.Unknown,
				Name:     internal.NormalizeName(cell(cols.name)),
				Country:  cell(cols.country),
			}
			if cols.prev >= 0 {
				prev, err := rankchange.ParseRank(cell(cols.prev))
				if err == nil {
					e.Previous = prev
				}
			}
			if p := cell(cols.points); p != "" {
				e.Points, _ = strconv.ParseFloat(strings.ReplaceAll(p, ",", ""), 64)
			}
			entries = append(entries, e)
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("ranking table not found")
	}
	return entries, nil
}
