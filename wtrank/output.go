/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package wtrank

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mikeb26/tkdrank/rankview"
)

// BuildRankingsOutput renders a division ranking as an aligned table. The
// change column is last so that styled output does not disturb alignment.
func BuildRankingsOutput(division string, entries []Entry,
	styler rankview.Styler) string {

	if len(entries) == 0 {
		return fmt.Sprintf("No rankings found for %v\n", division)
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, _ := sorted[i].Rank.Int()
		rj, _ := sorted[j].Rank.Int()
		return ri < rj
	})

	maxR, maxN, maxC, maxP := len("Rank"), len("Name"), len("Country"), len("Points")
	points := make([]string, len(sorted))
	for i, e := range sorted {
		points[i] = fmt.Sprintf("%.2f", e.Points)
		maxR = max(maxR, len(e.Rank.String()))
		maxN = max(maxN, len(e.Name))
		maxC = max(maxC, len(e.Country))
		maxP = max(maxP, len(points[i]))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s\n", division))
	sb.WriteString(fmt.Sprintf("%-*s  %-*s  %-*s  %*s  %s\n", maxR, "Rank",
		maxN, "Name", maxC, "Country", maxP, "Points", "Change"))
	for i, e := range sorted {
		sb.WriteString(strings.TrimRight(fmt.Sprintf("%-*s  %-*s  %-*s  %*s  %s",
			maxR, e.Rank.String(), maxN, e.Name, maxC, e.Country, maxP, points[i],
			styler.RenderRanks(e.Rank, e.Previous)), " "))
		sb.WriteString("\n")
	}

	return sb.String()
}
