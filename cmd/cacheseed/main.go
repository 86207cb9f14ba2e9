/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikeb26/tkdrank/internal/config"
	"github.com/mikeb26/tkdrank/wtrank"
)

// this program exists just to seed the http cache with competition
// participants and ranking tables

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("cacheseed.main: %v", err)
	}
	client, err := cfg.SimplyCompete(ctx)
	if err != nil {
		log.Fatalf("cacheseed.main: %v", err)
	}

	comps, err := client.GetCompetitions(ctx)
	if err != nil {
		// best effort
		log.Printf("cacheseed.main: failed to fetch competitions: %v", err)
	}
	ids := make([]string, 0, len(comps))
	names := make(map[string]string)
	for _, comp := range comps {
		ids = append(ids, comp.ID)
		names[comp.ID] = comp.Name
	}
	byEvent, err := client.FetchParticipantsForEvents(ctx, ids)
	if err != nil {
		// best effort
		log.Printf("cacheseed.main: failed to fetch participants: %v", err)
	}
	for id, participants := range byEvent {
		fmt.Printf("seeded %v (%v participants)\n", names[id], len(participants))
	}

	divisions, err := cfg.Divisions()
	if err != nil {
		log.Fatalf("cacheseed.main: %v", err)
	}
	rankClient := wtrank.NewClient(cfg.HTTPClient(ctx))
	for division, url := range divisions {
		entries, err := rankClient.FetchDivision(ctx, url)
		time.Sleep(2 * time.Second)
		if err != nil {
			// best effort
			continue
		}

		fmt.Printf("seeded %v (%v athletes)\n", division, len(entries))
	}
}
