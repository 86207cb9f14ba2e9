/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package simplycompete

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// BuildParticipantsOutput formats participants into aligned tables grouped by
// weight division, followed by a per-division count summary.
func BuildParticipantsOutput(participants []Participant) string {
	if len(participants) == 0 {
		return "No participants found\n"
	}

	byDiv := make(map[string][]Participant)
	for _, p := range participants {
		byDiv[p.Division()] = append(byDiv[p.Division()], p)
	}
	divisions := make([]string, 0, len(byDiv))
	for d := range byDiv {
		divisions = append(divisions, d)
	}
	sort.Sort(DivisionSorter(divisions))

	var sb strings.Builder
	for _, div := range divisions {
		list := byDiv[div]

		type row struct{ seed, name, country, club, license string }
		var rows []row
		for _, p := range list {
			rows = append(rows, row{
				seed:    string(p.SeedNumber),
				name:    p.DisplayName(),
				country: p.Country,
				club:    p.Club(),
				license: string(p.LicenseID),
			})
		}
		// seeded athletes first, in seed order; then by name
		sort.SliceStable(rows, func(i, j int) bool {
			si, ei := strconv.Atoi(rows[i].seed)
			sj, ej := strconv.Atoi(rows[j].seed)
			if ei == nil && ej == nil && si != sj {
				return si < sj
			}
			if (ei == nil) != (ej == nil) {
				return ei == nil
			}
			return rows[i].name < rows[j].name
		})

		maxS, maxN, maxC, maxB := len("Seed"), len("Name"), len("Country"), len("Club")
		for _, r := range rows {
			maxS = max(maxS, len(r.seed))
			maxN = max(maxN, len(r.name))
			maxC = max(maxC, len(r.country))
			maxB = max(maxB, len(r.club))
		}

		sb.WriteString(fmt.Sprintf("%s (%d athletes)\n", div, len(rows)))
		sb.WriteString(fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %s\n", maxS, "Seed",
			maxN, "Name", maxC, "Country", maxB, "Club", "License"))
		for _, r := range rows {
			sb.WriteString(strings.TrimRight(fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %s",
				maxS, r.seed, maxN, r.name, maxC, r.country, maxB, r.club,
				r.license), " "))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Total Participants: %d\n", len(participants)))
	sb.WriteString(fmt.Sprintf("Weight Divisions: %d\n", len(divisions)))

	return sb.String()
}

// DivisionCounts returns the number of participants per division.
func DivisionCounts(participants []Participant) map[string]int {
	counts := make(map[string]int)
	for _, p := range participants {
		counts[p.Division()]++
	}
	return counts
}

var weightRe = regexp.MustCompile(`([-+])\s*(\d+(?:\.\d+)?)\s*kg`)

// DivisionSorter implements sort.Interface for weight division names such as
// "Male -58kg" or "Senior Female +73kg". Divisions sort by their text with the
// weight class removed, then by weight ascending with the open-ended "+"
// class last. Names without a weight class sort lexicographically.
type DivisionSorter []string

func (s DivisionSorter) Len() int { return len(s) }

func (s DivisionSorter) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s DivisionSorter) Less(i, j int) bool {
	pa, wa, oka := splitWeight(s[i])
	pb, wb, okb := splitWeight(s[j])
	if oka && okb {
		if pa != pb {
			return pa < pb
		}
		return wa < wb
	}
	if oka != okb {
		return oka
	}
	return s[i] < s[j]
}

// splitWeight returns the division name without its weight class and a sort
// key where "+58kg" sorts after every "-Nkg".
func splitWeight(div string) (string, float64, bool) {
	m := weightRe.FindStringSubmatchIndex(div)
	if m == nil {
		return div, 0, false
	}
	w, err := strconv.ParseFloat(div[m[4]:m[5]], 64)
	if err != nil {
		return div, 0, false
	}
	if div[m[2]:m[3]] == "+" {
		w += 10000
	}
	prefix := strings.TrimSpace(div[:m[0]] + div[m[1]:])
	return prefix, w, true
}
