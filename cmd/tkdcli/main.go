/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/jonboulle/clockwork"

	"github.com/mikeb26/tkdrank/compsync"
	"github.com/mikeb26/tkdrank/internal/config"
	"github.com/mikeb26/tkdrank/rankchange"
	"github.com/mikeb26/tkdrank/rankview"
	"github.com/mikeb26/tkdrank/simplycompete"
	"github.com/mikeb26/tkdrank/store"
	"github.com/mikeb26/tkdrank/wtrank"
)

//go:embed help.txt
var helpText string

// cmdHandler defines the signature for command handler functions.
type cmdHandler func(ctx context.Context, cfg *config.Config, args []string)

// commands maps command names to their respective handler functions.
var commands = map[string]cmdHandler{
	"help":         handleHelp,
	"competitions": handleCompetitions,
	"participants": handleParticipants,
	"cookies":      handleCookies,
	"rankings":     handleRankings,
	"change":       handleChange,
	"sync":         handleSync,
}

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	handler, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	handler(ctx, cfg, os.Args[2:])
}

func usage() {
	fmt.Printf("%v", helpText)
}

func handleHelp(ctx context.Context, cfg *config.Config, args []string) {
	usage()
}

func openStore(path string) *store.Store {
	st, err := store.Open(path)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	return st
}

func handleCompetitions(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("competitions", flag.ExitOnError)
	stored := fs.Bool("stored", false, "List competitions from the local database")
	db := fs.String("db", cfg.DatabasePath, "Path to the local database")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	var comps []simplycompete.Competition
	if *stored {
		st := openStore(*db)
		defer st.Close()
		var err error
		comps, err = st.ListCompetitions(ctx)
		if err != nil {
			log.Fatalf("Error listing competitions: %v", err)
		}
	} else {
		client, err := cfg.SimplyCompete(ctx)
		if err != nil {
			log.Fatalf("Error creating client: %v", err)
		}
		comps, err = client.GetCompetitions(ctx)
		if err != nil {
			log.Fatalf("Error fetching competitions: %v", err)
		}
	}

	if len(comps) == 0 {
		fmt.Println("No competitions found.")
		return
	}
	for _, c := range comps {
		date := "TBD"
		if !c.StartDate.IsZero() {
			date = c.StartDate.Format("2006-01-02")
		}
		fmt.Printf("%v  %s (id:%v)\n", date, c.Name, c.ID)
	}
	fmt.Printf("\nRun '%s participants --eventid <id>' to list an event's athletes\n",
		os.Args[0])
}

func handleParticipants(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("participants", flag.ExitOnError)
	eventID := fs.String("eventid", "", "Competition id to fetch participants for")
	nodeID := fs.String("nodeid", "", "Optional division node id")
	save := fs.Bool("save", false, "Store the participants in the local database")
	stored := fs.Bool("stored", false, "List participants saved in the local database")
	db := fs.String("db", cfg.DatabasePath, "Path to the local database")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *eventID == "" {
		fmt.Fprintln(os.Stderr, "Please provide a valid --eventid ID.")
		fs.Usage()
		os.Exit(1)
	}

	if *stored {
		st := openStore(*db)
		defer st.Close()
		comp, err := st.GetCompetition(ctx, *eventID)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Printf("No competition %v stored; run sync first.\n", *eventID)
			return
		}
		if err != nil {
			log.Fatalf("Error loading competition %v: %v", *eventID, err)
		}
		participants, err := st.ListParticipants(ctx, *eventID)
		if err != nil {
			log.Fatalf("Error listing participants of %v: %v", *eventID, err)
		}
		fmt.Printf("%v\n\n", comp.Name)
		fmt.Print(simplycompete.BuildParticipantsOutput(participants))
		return
	}

	client, err := cfg.SimplyCompete(ctx)
	if err != nil {
		log.Fatalf("Error creating client: %v", err)
	}
	participants, err := client.FetchParticipants(ctx, *eventID, *nodeID)
	if err != nil {
		if len(participants) == 0 {
			log.Fatalf("Error fetching participants for %v: %v", *eventID, err)
		}
		log.Printf("Warning: partial participant list for %v: %v", *eventID, err)
	}

	if *save {
		st := openStore(*db)
		defer st.Close()
		if err := st.SaveParticipants(ctx, *eventID, participants); err != nil {
			log.Fatalf("Error saving participants: %v", err)
		}
	}

	fmt.Print(simplycompete.BuildParticipantsOutput(participants))
}

// handleCookies writes the cookies file read by the SimplyCompete client,
// typically with a cf_clearance value copied from a browser session.
func handleCookies(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("cookies", flag.ExitOnError)
	clearance := fs.String("clearance", "", "cf_clearance cookie value")
	consent := fs.String("consent", cfg.CookieConsent, "cookieconsent_dismissed value")
	file := fs.String("file", cfg.CookiesFile, "Cookies file to write")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *clearance == "" || *file == "" {
		fmt.Fprintln(os.Stderr, "Please provide --clearance and --file.")
		fs.Usage()
		os.Exit(1)
	}

	cookies, err := simplycompete.StaticCookies{Clearance: *clearance,
		Consent: *consent}.Cookies(ctx)
	if err != nil {
		log.Fatalf("Error building cookies: %v", err)
	}
	if err := simplycompete.SaveCookiesFile(*file, cookies); err != nil {
		log.Fatalf("Error writing %v: %v", *file, err)
	}
	fmt.Printf("Wrote %v cookies to %v\n", len(cookies), *file)
}

func handleRankings(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("rankings", flag.ExitOnError)
	division := fs.String("division", "", "Weight division, e.g. \"Male -58kg\"")
	url := fs.String("url", "", "Ranking table URL to fetch instead of the local database")
	plain := fs.Bool("plain", false, "Disable colored output")
	db := fs.String("db", cfg.DatabasePath, "Path to the local database")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	styler := rankview.Styler{Plain: *plain}

	if *division == "" {
		st := openStore(*db)
		defer st.Close()
		divs, err := st.ListDivisions(ctx)
		if err != nil {
			log.Fatalf("Error listing divisions: %v", err)
		}
		if len(divs) == 0 {
			fmt.Println("No rankings stored; run sync first.")
			return
		}
		sort.Sort(simplycompete.DivisionSorter(divs))
		fmt.Println("Stored divisions:")
		for _, d := range divs {
			fmt.Printf("  - %v\n", d)
		}
		fmt.Printf("\nRun '%s rankings --division <division>' to show one\n",
			os.Args[0])
		return
	}

	var entries []wtrank.Entry
	if *url != "" {
		var err error
		entries, err = wtrank.NewClient(cfg.HTTPClient(ctx)).FetchDivision(ctx, *url)
		if err != nil {
			log.Fatalf("Error fetching rankings for %v: %v", *division, err)
		}
	} else {
		st := openStore(*db)
		defer st.Close()
		var err error
		entries, _, err = st.ListRankings(ctx, *division)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Printf("No rankings stored for %v.\n", *division)
			return
		}
		if err != nil {
			log.Fatalf("Error listing rankings for %v: %v", *division, err)
		}
	}

	fmt.Print(wtrank.BuildRankingsOutput(*division, entries, styler))
}

func handleChange(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("change", flag.ExitOnError)
	current := fs.String("current", "", "Current rank")
	previous := fs.String("previous", "", "Previous rank; empty or '-' for unranked")
	delta := fs.String("delta", "", "Precomputed delta; negative means improved")
	plain := fs.Bool("plain", false, "Disable colored output")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	styler := rankview.Styler{Plain: *plain}

	var change rankchange.Change
	var ok bool
	if *delta != "" {
		d, err := rankchange.ParseDelta(*delta)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --delta: %v\n", err)
			os.Exit(1)
		}
		change, ok = rankchange.EvaluateDelta(d)
	} else {
		cur, err := rankchange.ParseRank(*current)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --current: %v\n", err)
			os.Exit(1)
		}
		prev, err := rankchange.ParseRank(*previous)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --previous: %v\n", err)
			os.Exit(1)
		}
		change, ok = rankchange.Evaluate(cur, prev)
	}

	if !ok {
		fmt.Println("No change: there is no current rank.")
		return
	}
	fmt.Printf("%v (%v)\n", styler.Render(rankview.NewView(change)),
		change.Direction)
}

func handleSync(ctx context.Context, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	rankings := fs.Bool("rankings", true, "Also snapshot the divisions in RANKING_SOURCES")
	db := fs.String("db", cfg.DatabasePath, "Path to the local database")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	st := openStore(*db)
	defer st.Close()

	client, err := cfg.SimplyCompete(ctx)
	if err != nil {
		log.Fatalf("Error creating client: %v", err)
	}
	var opts []compsync.Option
	if *rankings {
		divisions, err := cfg.Divisions()
		if err != nil {
			log.Fatalf("Error reading ranking sources: %v", err)
		}
		opts = append(opts, compsync.WithRankings(
			wtrank.NewClient(cfg.HTTPClient(ctx)), divisions))
	}
	syncer := compsync.New(client, st, clockwork.NewRealClock(), opts...)

	res, err := syncer.Sync(ctx)
	if err != nil {
		log.Printf("Competition sync failed: %v", err)
	} else {
		fmt.Printf("Synced %v competitions (run %v)\n", len(res.Competitions), res.RunID)
	}

	n, err := syncer.SyncRankings(ctx)
	if err != nil {
		log.Fatalf("Ranking sync failed: %v", err)
	}
	if n > 0 {
		fmt.Printf("Stored ranking snapshots for %v divisions\n", n)
	}
}
