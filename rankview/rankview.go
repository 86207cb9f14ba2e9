/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package rankview

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mikeb26/tkdrank/rankchange"
)

type Icon int

const (
	IconTrendUp Icon = iota
	IconTrendDown
	IconDash
	IconStar
)

func (i Icon) String() string {
	switch i {
	case IconTrendUp:
		return "trend-up"
	case IconTrendDown:
		return "trend-down"
	case IconDash:
		return "dash"
	case IconStar:
		return "star"
	}
	return "?"
}

func (i Icon) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// IconOf maps a direction to the icon shown beside a ranking row.
func IconOf(d rankchange.Direction) Icon {
	switch d {
	case rankchange.Up:
		return IconTrendUp
	case rankchange.Down:
		return IconTrendDown
	case rankchange.Same:
		return IconDash
	case rankchange.New:
		return IconStar
	}
	return IconDash
}

// Glyph is the plain-text icon used in terminal and chat output.
func (i Icon) Glyph() string {
	switch i {
	case IconTrendUp:
		return "▲"
	case IconTrendDown:
		return "▼"
	case IconDash:
		return "–"
	case IconStar:
		return "★"
	}
	return " "
}

// Emoji is the icon as rendered in Discord messages.
func (i Icon) Emoji() string {
	switch i {
	case IconTrendUp:
		return ":chart_with_upwards_trend:"
	case IconTrendDown:
		return ":chart_with_downwards_trend:"
	case IconDash:
		return ":heavy_minus_sign:"
	case IconStar:
		return ":star:"
	}
	return ""
}

// TermColor is the ANSI 256 palette entry for a color token.
func TermColor(c rankchange.Color) lipgloss.Color {
	switch c {
	case rankchange.Green:
		return lipgloss.Color("34")
	case rankchange.Red:
		return lipgloss.Color("160")
	case rankchange.Gray:
		return lipgloss.Color("245")
	}
	return lipgloss.Color("245")
}

// DiscordColor is the embed sidebar color for a color token.
func DiscordColor(c rankchange.Color) int {
	switch c {
	case rankchange.Green:
		return 0x2ecc71
	case rankchange.Red:
		return 0xe74c3c
	case rankchange.Gray:
		return 0x95a5a6
	}
	return 0x95a5a6
}

// View bundles a change with everything a renderer needs.
type View struct {
	rankchange.Change
	Icon Icon `json:"icon"`
}

func NewView(c rankchange.Change) View {
	return View{Change: c, Icon: IconOf(c.Direction)}
}

// Label is the glyph followed by the change text, e.g. "▲ +7".
func (v View) Label() string {
	return v.Icon.Glyph() + " " + v.Text
}

// Styler renders labels for a terminal. A Styler with Plain set emits no
// escape sequences.
type Styler struct {
	Plain bool
}

func (s Styler) Render(v View) string {
	if s.Plain {
		return v.Label()
	}
	style := lipgloss.NewStyle().Foreground(TermColor(v.Color))
	if v.Direction == rankchange.New {
		style = style.Bold(true)
	}
	return style.Render(v.Label())
}

// RenderRanks evaluates current against previous and renders the result, or
// returns "" when there is no current rank.
func (s Styler) RenderRanks(current, previous rankchange.Rank) string {
	c, ok := rankchange.Evaluate(current, previous)
	if !ok {
		return ""
	}
	return s.Render(NewView(c))
}
