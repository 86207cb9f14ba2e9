/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 *
 * Package rankchange classifies how an athlete's standing moved between two
 * ranking snapshots.
 */
package rankchange

import (
	"fmt"
	"math"
	"strconv"
)

type Direction int

const (
	Up Direction = iota
	Down
	Same
	New
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Same:
		return "same"
	case New:
		return "new"
	}
	return "?"
}

func (d Direction) MarshalText() ([]byte, error) {
	switch d {
	case Up, Down, Same, New:
		return []byte(d.String()), nil
	}
	return nil, fmt.Errorf("invalid direction %d", int(d))
}

type Color int

const (
	Gray Color = iota
	Green
	Red
)

func (c Color) String() string {
	switch c {
	case Green:
		return "green"
	case Red:
		return "red"
	case Gray:
		return "gray"
	}
	return "?"
}

func (c Color) MarshalText() ([]byte, error) {
	switch c {
	case Green, Red, Gray:
		return []byte(c.String()), nil
	}
	return nil, fmt.Errorf("invalid color %d", int(c))
}

const (
	NewText  = "NEW"
	SameText = "—"
)

// Change describes a movement in standing. Amount is always non-negative;
// Color is fixed by Direction.
type Change struct {
	Direction Direction `json:"direction"`
	Amount    int       `json:"amount"`
	Text      string    `json:"text"`
	Color     Color     `json:"color"`
}

// ColorOf returns the color token for d.
func ColorOf(d Direction) Color {
	switch d {
	case Up:
		return Green
	case Down:
		return Red
	case Same, New:
		return Gray
	}
	return Gray
}

func newChange(d Direction, amount int) Change {
	c := Change{Direction: d, Amount: amount, Color: ColorOf(d)}
	switch d {
	case Up:
		c.Text = "+" + strconv.Itoa(amount)
	case Down:
		c.Text = "-" + strconv.Itoa(amount)
	case Same:
		c.Text = SameText
	case New:
		c.Text = NewText
	}
	return c
}

// Evaluate compares the current rank against the previous one. Lower ranks
// are better, so current < previous is a climb. It reports false when
// current holds no rank; a previous rank that is unranked or unknown yields
// New.
func Evaluate(current, previous Rank) (Change, bool) {
	cur, ok := current.Int()
	if !ok {
		return Change{}, false
	}
	prev, ok := previous.Int()
	if !ok {
		return newChange(New, 0), true
	}

	switch {
	case cur == prev:
		return newChange(Same, 0), true
	case cur < prev:
		return newChange(Up, prev-cur), true
	default:
		return newChange(Down, cur-prev), true
	}
}

// EvaluateDelta classifies a precomputed delta where negative means the
// athlete climbed. A nil delta is absent, as is math.MinInt whose magnitude
// has no int representation; this path never yields New.
func EvaluateDelta(delta *Delta) (Change, bool) {
	if delta == nil || int(*delta) == math.MinInt {
		return Change{}, false
	}

	d := int(*delta)
	switch {
	case d == 0:
		return newChange(Same, 0), true
	case d < 0:
		return newChange(Up, -d), true
	default:
		return newChange(Down, d), true
	}
}

// DeltaOf returns a pointer to d; convenient for literal deltas.
func DeltaOf(d int) *Delta {
	v := Delta(d)
	return &v
}
