/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package rankchange

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type rankState uint8

const (
	stateUnknown rankState = iota
	stateUnranked
	stateRanked
)

// Rank is a competitive standing where a lower number is better. A Rank is
// in exactly one of three states: ranked with a value, known to be unranked,
// or unknown (not yet loaded). The zero value is Unknown.
type Rank struct {
	n     int
	state rankState
}

var (
	Unknown  = Rank{}
	Unranked = Rank{state: stateUnranked}
)

// Ranked returns a Rank holding n. Ranks start at 1; a non-positive n is not
// a standing and yields Unknown.
func Ranked(n int) Rank {
	if n < 1 {
		return Unknown
	}
	return Rank{n: n, state: stateRanked}
}

// rankedOrErr is Ranked for decoded input, where a non-positive value is an
// error rather than Unknown.
func rankedOrErr(n int) (Rank, error) {
	if n < 1 {
		return Unknown, fmt.Errorf("rank %d out of range: ranks start at 1", n)
	}
	return Ranked(n), nil
}

// Int returns the rank and whether one is present.
func (r Rank) Int() (int, bool) {
	return r.n, r.state == stateRanked
}

func (r Rank) IsRanked() bool { return r.state == stateRanked }
func (r Rank) IsUnranked() bool { return r.state == stateUnranked }
func (r Rank) IsUnknown() bool { return r.state == stateUnknown }

func (r Rank) String() string {
	switch r.state {
	case stateRanked:
		return strconv.Itoa(r.n)
	case stateUnranked:
		return "unranked"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the number, or null for both Unranked and Unknown.
func (r Rank) MarshalJSON() ([]byte, error) {
	if r.state != stateRanked {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(r.n)), nil
}

// UnmarshalJSON maps null to Unranked. A field missing from the document
// never reaches here and so stays Unknown.
func (r *Rank) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Unranked
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("rank unmarshal: %w", err)
		}
		parsed, err := ParseRank(s)
		if err != nil {
			return fmt.Errorf("rank unmarshal: %w", err)
		}
		*r = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("rank unmarshal: %w", err)
	}
	parsed, err := rankedOrErr(n)
	if err != nil {
		return fmt.Errorf("rank unmarshal: %w", err)
	}
	*r = parsed
	return nil
}

// Scan implements sql.Scanner; NULL scans as Unranked.
func (r *Rank) Scan(src any) error {
	var n int
	switch v := src.(type) {
	case nil:
		*r = Unranked
		return nil
	case int64:
		if v > math.MaxInt || v < math.MinInt {
			return fmt.Errorf("rank scan: %d out of range", v)
		}
		n = int(v)
	case int:
		n = v
	case []byte:
		var err error
		if n, err = strconv.Atoi(string(v)); err != nil {
			return fmt.Errorf("rank scan: %w", err)
		}
	case string:
		var err error
		if n, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("rank scan: %w", err)
		}
	default:
		return fmt.Errorf("rank scan: unsupported type %T", src)
	}

	parsed, err := rankedOrErr(n)
	if err != nil {
		return fmt.Errorf("rank scan: %w", err)
	}
	*r = parsed
	return nil
}

// Value implements driver.Valuer. Unranked and Unknown are stored as NULL.
func (r Rank) Value() (driver.Value, error) {
	if r.state != stateRanked {
		return nil, nil
	}
	return int64(r.n), nil
}

// Delta is a precomputed change in standing: negative means the athlete
// climbed, positive means they fell. This is the inverse of comparing
// current against previous rank numbers.
type Delta int

// ParseRank converts s to a Rank. Empty, "-" and "null" yield Unranked;
// numbers below 1 are rejected.
func ParseRank(s string) (Rank, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", "—", "null", "NEW", "new":
		return Unranked, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Unknown, fmt.Errorf("parse rank %q: %w", s, err)
	}
	r, err := rankedOrErr(n)
	if err != nil {
		return Unknown, fmt.Errorf("parse rank %q: %w", s, err)
	}
	return r, nil
}

// ParseDelta converts s to a Delta. An empty s yields nil, meaning no delta.
// math.MinInt is rejected since its magnitude does not fit an int.
func ParseDelta(s string) (*Delta, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("parse delta %q: %w", s, err)
	}
	if n == math.MinInt {
		return nil, fmt.Errorf("parse delta %q: out of range", s)
	}
	return DeltaOf(n), nil
}
