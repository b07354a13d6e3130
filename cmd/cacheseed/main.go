/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mikeb26/uefa-drawbot/internal"
	"github.com/mikeb26/uefa-drawbot/uefa"
)

// this program exists just to seed the http cache with past seasons

type seasonRef struct {
	tournament string
	season     int
}

type fetcher interface {
	FetchSeason(ctx context.Context, tournament, stage string,
		season int) (*uefa.Season, error)
}

// seed fetches every season, waiting on limiter before each one. Failures
// are best effort: they are reported and skipped.
func seed(ctx context.Context, f fetcher, limiter *rate.Limiter,
	refs []seasonRef) (int, error) {

	seeded := 0
	for _, ref := range refs {
		if err := limiter.Wait(ctx); err != nil {
			return seeded, err
		}
		s, err := f.FetchSeason(ctx, ref.tournament, uefa.StageKnockout,
			ref.season)
		if err != nil {
			log.Printf("cacheseed.seed: %v %v: %v", ref.tournament,
				ref.season, err)
			continue
		}
		seeded++
		fmt.Printf("seeded %v %v (%d ties)\n", ref.tournament, ref.season,
			len(s.Pots[0]))
	}
	return seeded, nil
}

func seasonRefs(tournaments []string, from, to int) []seasonRef {
	var refs []seasonRef
	for _, t := range tournaments {
		for season := from; season <= to; season++ {
			refs = append(refs, seasonRef{tournament: t, season: season})
		}
	}
	return refs
}

func main() {
	fs := flag.NewFlagSet("cacheseed", flag.ExitOnError)
	tournaments := fs.String("tournaments", "cl,el", "Comma separated competitions")
	from := fs.Int("from", 2004, "First season to seed")
	to := fs.Int("to", time.Now().Year(), "Last season to seed")
	interval := fs.Duration("interval", 2*time.Second,
		"Minimum time between fetches")
	baseURL := fs.String("baseurl", os.Getenv("DRAWBOT_BASE_URL"),
		"Draw data host")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	ctx := context.Background()
	client := uefa.NewClient(
		internal.NewCachedHttpClient(ctx, internal.ArchiveMaxAge), *baseURL)
	// avoid pegging the data host
	limiter := rate.NewLimiter(rate.Every(*interval), 1)

	refs := seasonRefs(strings.Split(*tournaments, ","), *from, *to)
	n, err := seed(ctx, client, limiter, refs)
	if err != nil {
		log.Fatalf("cacheseed.main: %v", err)
	}
	fmt.Printf("seeded %d of %d seasons\n", n, len(refs))
}
