/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package wtrank

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mikeb26/tkdrank/rankchange"
	"github.com/mikeb26/tkdrank/rankview"
)

const rankingPage = `<html><body>
<table class="nav"><tr><td>Home</td><td>Rankings</td></tr></table>
<table class="ranking">
  <tr><th>Rank</th><th>Previous</th><th>Name</th><th>Member Nation</th><th>Points</th></tr>
  <tr><td>1</td><td>3</td><td>JUN Jaewon</td><td>KOR</td><td>1,250.40</td></tr>
  <tr><td>2</td><td>2</td><td>Ulugbek Rashitov</td><td>UZB</td><td>980.00</td></tr>
  <tr><td>3</td><td>1</td><td>Vito Dell'Aquila</td><td>ITA</td><td>901.5</td></tr>
  <tr><td>4</td><td>-</td><td>Ana Novak</td><td>SLO</td><td>400</td></tr>
  <tr><td colspan="5">Updated weekly</td></tr>
</table>
</body></html>`

func TestParseTable(t *testing.T) {
	entries, err := ParseTable(strings.NewReader(rankingPage))
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d entries; want 4", len(entries))
	}

	first := entries[0]
	if first.Rank != rankchange.Ranked(1) || first.Previous != rankchange.Ranked(3) {
		t.Errorf("first ranks = %v/%v", first.Rank, first.Previous)
	}
	if first.Name != "JUN Jaewon" || first.Country != "KOR" {
		t.Errorf("first = %+v", first)
	}
	if first.Points != 1250.40 {
		t.Errorf("points = %v", first.Points)
	}
	if !entries[3].Previous.IsUnranked() {
		t.Errorf("dash previous should be unranked, got %v", entries[3].Previous)
	}

	wantDirs := []rankchange.Direction{rankchange.Up, rankchange.Same,
		rankchange.Down, rankchange.New}
	for i, want := range wantDirs {
		c, ok := entries[i].Change()
		if !ok || c.Direction != want {
			t.Errorf("entry %d change = %+v, %v; want %v", i, c, ok, want)
		}
	}
}

func TestParseTableWithoutPreviousColumn(t *testing.T) {
	page := `<table><tr><th>#</th><th>Athlete</th><th>Pts</th></tr>
<tr><td>1</td><td>Solo</td><td>10</td></tr></table>`
	entries, err := ParseTable(strings.NewReader(page))
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if len(entries) != 1 || !entries[0].Previous.IsUnknown() {
		t.Fatalf("entries = %+v", entries)
	}
	c, ok := entries[0].Change()
	if !ok || c.Direction != rankchange.New {
		t.Errorf("unknown previous should read as new, got %+v", c)
	}
}

func TestParseTableMissing(t *testing.T) {
	_, err := ParseTable(strings.NewReader(`<p>maintenance</p>`))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestFetchDivisions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/m58":
			fmt.Fprint(w, rankingPage)
		case "/f49":
			fmt.Fprint(w, `<table><tr><th>Rank</th><th>Name</th></tr>
<tr><td>1</td><td>Solo</td></tr></table>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.Client())
	got, err := client.FetchDivisions(context.Background(), map[string]string{
		"Male -58kg":   ts.URL + "/m58",
		"Female -49kg": ts.URL + "/f49",
	})
	if err != nil {
		t.Fatalf("FetchDivisions: %v", err)
	}
	if len(got["Male -58kg"]) != 4 || len(got["Female -49kg"]) != 1 {
		t.Errorf("unexpected result %+v", got)
	}

	_, err = client.FetchDivisions(context.Background(), map[string]string{
		"Gone": ts.URL + "/gone",
	})
	if err == nil || !strings.Contains(err.Error(), "Gone") {
		t.Errorf("expected division error, got %v", err)
	}
}

func TestBuildRankingsOutput(t *testing.T) {
	entries, err := ParseTable(strings.NewReader(rankingPage))
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	// reverse to make sure output is rank ordered
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	out := BuildRankingsOutput("Male -58kg", entries, rankview.Styler{Plain: true})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%v", len(lines), out)
	}
	if lines[0] != "Male -58kg" {
		t.Errorf("title = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "1 ") || !strings.HasSuffix(lines[2], "▲ +2") {
		t.Errorf("row 1 = %q", lines[2])
	}
	if !strings.HasSuffix(lines[3], "– —") {
		t.Errorf("row 2 = %q", lines[3])
	}
	if !strings.HasSuffix(lines[4], "▼ -2") {
		t.Errorf("row 3 = %q", lines[4])
	}
	if !strings.HasSuffix(lines[5], "★ NEW") {
		t.Errorf("row 4 = %q", lines[5])
	}

	empty := BuildRankingsOutput("Male -87kg", nil, rankview.Styler{Plain: true})
	if empty != "No rankings found for Male -87kg\n" {
		t.Errorf("empty = %q", empty)
	}
}

func TestParseTableSkipsNonPositiveRanks(t *testing.T) {
	page := `<table><tr><th>Rank</th><th>Name</th></tr>
<tr><td>0</td><td>Zero</td></tr>
<tr><td>-2</td><td>Negative</td></tr>
<tr><td>1</td><td>First</td></tr></table>`
	entries, err := ParseTable(strings.NewReader(page))
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "First" {
		t.Errorf("entries = %+v; want only First", entries)
	}
}

func TestFetchDivisionsNormalizesNamesConcurrently(t *testing.T) {
	page := `<table><tr><th>Rank</th><th>Name</th></tr>
<tr><td>1</td><td>KIM  MINSU</td></tr>
<tr><td>2</td><td>PARK TAEJOON</td></tr></table>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer ts.Close()

	urls := make(map[string]string)
	for i := 0; i < 8; i++ {
		urls[fmt.Sprintf("Division %d", i)] = fmt.Sprintf("%v/d%d", ts.URL, i)
	}

	got, err := NewClient(ts.Client()).FetchDivisions(context.Background(), urls)
	if err != nil {
		t.Fatalf("FetchDivisions: %v", err)
	}
	if len(got) != len(urls) {
		t.Fatalf("got %d divisions; want %d", len(got), len(urls))
	}
	for div, entries := range got {
		if len(entries) != 2 || entries[0].Name != "Kim Minsu" ||
			entries[1].Name != "Park Taejoon" {
			t.Errorf("%v names = %+v", div, entries)
		}
	}
}
