/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package rankview

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mikeb26/tkdrank/rankchange"
)

func TestPresentationMapping(t *testing.T) {
	cases := []struct {
		dir   rankchange.Direction
		icon  Icon
		color rankchange.Color
	}{
		{rankchange.Up, IconTrendUp, rankchange.Green},
		{rankchange.Down, IconTrendDown, rankchange.Red},
		{rankchange.Same, IconDash, rankchange.Gray},
		{rankchange.New, IconStar, rankchange.Gray},
	}
	for _, c := range cases {
		if got := IconOf(c.dir); got != c.icon {
			t.Errorf("IconOf(%v) = %v; want %v", c.dir, got, c.icon)
		}
		if got := rankchange.ColorOf(c.dir); got != c.color {
			t.Errorf("ColorOf(%v) = %v; want %v", c.dir, got, c.color)
		}
	}
}

func TestPlainRender(t *testing.T) {
	s := Styler{Plain: true}
	cases := []struct {
		cur, prev rankchange.Rank
		want      string
	}{
		{rankchange.Ranked(3), rankchange.Ranked(10), "▲ +7"},
		{rankchange.Ranked(10), rankchange.Ranked(3), "▼ -7"},
		{rankchange.Ranked(5), rankchange.Ranked(5), "– —"},
		{rankchange.Ranked(1), rankchange.Unranked, "★ NEW"},
		{rankchange.Unranked, rankchange.Ranked(1), ""},
	}
	for _, c := range cases {
		if got := s.RenderRanks(c.cur, c.prev); got != c.want {
			t.Errorf("RenderRanks(%v, %v) = %q; want %q", c.cur, c.prev, got,
				c.want)
		}
	}
}

func TestStyledRenderKeepsLabel(t *testing.T) {
	c, _ := rankchange.Evaluate(rankchange.Ranked(2), rankchange.Ranked(4))
	out := Styler{}.Render(NewView(c))
	if !strings.Contains(out, "+2") {
		t.Errorf("styled output %q lost its label", out)
	}
}

func TestViewJSON(t *testing.T) {
	c, _ := rankchange.Evaluate(rankchange.Ranked(8), rankchange.Unranked)
	out, err := json.Marshal(NewView(c))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"direction":"new","amount":0,"text":"NEW","color":"gray","icon":"star"}`
	if string(out) != want {
		t.Errorf("marshal = %s; want %s", out, want)
	}
}

func TestDiscordColorsDistinct(t *testing.T) {
	g := DiscordColor(rankchange.Green)
	r := DiscordColor(rankchange.Red)
	y := DiscordColor(rankchange.Gray)
	if g == r || r == y || g == y {
		t.Errorf("discord colors not distinct: %x %x %x", g, r, y)
	}
}
