/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"bufio"
	"context"
	_ "embed"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/mikeb26/uefa-drawbot/draw"
	"github.com/mikeb26/uefa-drawbot/internal"
	"github.com/mikeb26/uefa-drawbot/luarule"
	"github.com/mikeb26/uefa-drawbot/session"
	"github.com/mikeb26/uefa-drawbot/uefa"
)

//go:embed help.txt
var helpText string

// cmdHandler defines the signature for command handler functions.
type cmdHandler func(ctx context.Context, args []string)

// commands maps command names to their respective handler functions.
var commands = map[string]cmdHandler{
	"help":  handleHelp,
	"pots":  handlePots,
	"draw":  handleDraw,
	"check": handleCheck,
}

func init() {
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))
}

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if handler, ok := commands[cmd]; ok {
		handler(ctx, os.Args[2:])
	} else {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Printf("%v", helpText)
}

func handleHelp(ctx context.Context, args []string) {
	usage()
}

type seasonFlags struct {
	tournament *string
	season     *int
	potFile    *string
	baseURL    *string
}

func addSeasonFlags(fs *flag.FlagSet) *seasonFlags {
	return &seasonFlags{
		tournament: fs.String("tournament", "el", "Competition (cl or el)"),
		season:     fs.Int("season", 2024, "Year of the knockout draw"),
		potFile:    fs.String("potfile", "", "YAML pot file to use instead of fetching"),
		baseURL: fs.String("baseurl", os.Getenv("DRAWBOT_BASE_URL"),
			"Draw data host"),
	}
}

func (sf *seasonFlags) load(ctx context.Context) (*uefa.Season, error) {
	if *sf.potFile != "" {
		return uefa.LoadPotFile(*sf.potFile)
	}

	client := uefa.NewClient(
		internal.NewCachedHttpClient(ctx, internal.ArchiveMaxAge), *sf.baseURL)
	return client.FetchSeason(ctx, *sf.tournament, uefa.StageKnockout,
		*sf.season)
}

func handlePots(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("pots", flag.ExitOnError)
	sf := addSeasonFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	season, err := sf.load(ctx)
	if err != nil {
		log.Fatalf("drawsim.pots: unable to load season: %v", err)
	}
	fmt.Print(uefa.BuildPotsOutput(season))
}

func handleDraw(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	sf := addSeasonFlags(fs)
	seed := fs.Int64("seed", 0, "Shuffle and pick seed (0 for random)")
	interactive := fs.Bool("interactive", false, "Read ball numbers from stdin")
	rules := fs.String("rules", "", "Lua rule script replacing the built-in rules")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	season, err := sf.load(ctx)
	if err != nil {
		log.Fatalf("drawsim.draw: unable to load season: %v", err)
	}
	pred, err := predicateFor(season, *rules)
	if err != nil {
		log.Fatalf("drawsim.draw: %v", err)
	}
	if *seed == 0 {
		*seed = rand.Int63()
	}

	s, err := session.NewRegistry().StartSeeded(season.Pots, pred, *seed)
	if err != nil {
		log.Fatalf("drawsim.draw: %v", err)
	}
	fmt.Print(uefa.BuildPotsOutput(season))
	fmt.Printf("Draw %v (seed %v)\n\n", s.ID(), s.Seed())

	if *interactive {
		err = runInteractive(s, os.Stdin, os.Stdout)
	} else {
		var snap draw.Snapshot
		snap, err = s.FastDraw()
		fmt.Print(uefa.BuildDrawOutput(snap))
	}
	if err != nil {
		log.Fatalf("drawsim.draw: %v", err)
	}
}

func predicateFor(season *uefa.Season, rulesPath string) (draw.Predicate,
	error) {

	if rulesPath == "" {
		return season.Predicate()
	}
	return luarule.Load(rulesPath)
}

// runInteractive reads one ball number per line from in until the draw is
// complete. Forced balls are drawn without asking.
func runInteractive(s *session.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		_, snap, err := s.AutoPick()
		if err != nil {
			return err
		}
		fmt.Fprint(out, uefa.BuildDrawOutput(snap))
		if snap.State == draw.Completed {
			return nil
		}

		balls := len(snap.Pots[0])
		if snap.State == draw.AwaitingSecondOfPair {
			balls = len(snap.Candidates)
		}
		fmt.Fprintf(out, "\nPick a ball (1-%d): ", balls)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return fmt.Errorf("input ended before the draw was complete")
		}
		fmt.Fprintln(out)

		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || n < 1 || n > balls {
			fmt.Fprintf(out, "Please enter a number from 1 to %d.\n\n", balls)
			continue
		}
		if _, err := s.Pick(n - 1); err != nil {
			return err
		}
	}
}

func handleCheck(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	sf := addSeasonFlags(fs)
	rules := fs.String("rules", "", "Lua rule script to evaluate")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *rules == "" {
		fmt.Fprintln(os.Stderr, "Please provide a --rules script.")
		fs.Usage()
		os.Exit(1)
	}

	season, err := sf.load(ctx)
	if err != nil {
		log.Fatalf("drawsim.check: unable to load season: %v", err)
	}
	rule, err := luarule.Load(*rules)
	if err != nil {
		log.Fatalf("drawsim.check: %v", err)
	}
	defer rule.Close()
	builtin, err := season.Predicate()
	if err != nil {
		log.Fatalf("drawsim.check: %v", err)
	}

	report, err := buildCheckReport(season.Pots, rule, builtin)
	if err != nil {
		log.Fatalf("drawsim.check: %v", err)
	}
	fmt.Print(report)
}

// buildCheckReport lists each runner-up's legal opponents under rule, flags
// pairs where rule and builtin disagree and says whether a full draw
// exists.
func buildCheckReport(pots [2][]draw.Team, rule,
	builtin draw.Predicate) (string, error) {

	var sb strings.Builder
	disagreements := 0
	for _, a := range pots[0] {
		var opponents []string
		for _, b := range pots[1] {
			ok, err := rule.Legal(a, b, nil)
			if err != nil {
				return "", err
			}
			want, err := builtin.Legal(a, b, nil)
			if err != nil {
				return "", err
			}
			mark := ""
			if ok != want {
				mark = "!"
				disagreements++
			}
			if ok || mark != "" {
				label := b.ID
				if !ok {
					label = "-" + label
				}
				opponents = append(opponents, label+mark)
			}
		}
		sb.WriteString(fmt.Sprintf("%-8s %v\n", a.ID, strings.Join(opponents, " ")))
	}

	feasible, err := draw.Feasible(pots[0], pots[1], rule)
	if err != nil {
		return "", err
	}
	sb.WriteString(fmt.Sprintf("\n%d pair(s) differ from the built-in rules\n",
		disagreements))
	if feasible {
		sb.WriteString("A complete draw exists.\n")
	} else {
		sb.WriteString("No complete draw exists.\n")
	}

	return sb.String(), nil
}
