/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package uefa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mikeb26/uefa-drawbot/draw"
	"github.com/mikeb26/uefa-drawbot/internal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const StageKnockout = "ko"

// fetchTimeout bounds a shared season fetch once it is detached from the
// caller that started it.
const fetchTimeout = time.Minute

// Season is everything needed to run one knockout draw.
type Season struct {
	Tournament   string         `json:"tournament"`
	Stage        string         `json:"stage"`
	Season       int            `json:"season"`
	DrawDate     time.Time      `json:"drawDate,omitempty"`
	Tables       []Table        `json:"tables,omitempty"`
	Restrictions []Restriction  `json:"restrictions,omitempty"`
	Pots         [2][]draw.Team `json:"pots"`
}

// Predicate returns the season's legality predicate.
func (s *Season) Predicate() (draw.Predicate, error) {
	return PredicateFor(s.Tournament, s.Season, s.Restrictions)
}

// Client fetches season data from a draw data host laid out as
// <base>/<tournament>/<season>/groups.html and restrictions.json. Results
// are memoized per tournament, stage and season for the client's lifetime.
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu    sync.Mutex
	memo  map[string]*Season
	group singleflight.Group
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = internal.DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		memo:       make(map[string]*Season),
	}
}

func seasonKey(tournament, stage string, season int) string {
	return fmt.Sprintf("%v:%v:%v", tournament, stage, season)
}

// FetchSeason returns the pots and restrictions for a draw. The group tables
// and the restrictions list are fetched concurrently; a missing
// restrictions list means only the built-in prohibited clashes apply.
// Callers must not modify the returned Season.
func (c *Client) FetchSeason(ctx context.Context, tournament, stage string,
	season int) (*Season, error) {

	if _, err := TournamentName(tournament); err != nil {
		return nil, err
	}
	if stage != StageKnockout {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStage, stage)
	}

	key := seasonKey(tournament, stage, season)
	c.mu.Lock()
	s, ok := c.memo[key]
	c.mu.Unlock()
	if ok {
		return s, nil
	}

	// the fetch is shared by every caller waiting on key, so it must not
	// die with whichever caller happened to start it
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx),
			fetchTimeout)
		defer cancel()

		s, err := c.fetchSeason(fctx, tournament, stage, season)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.memo[key] = s
		c.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Season), nil
	}
}

func (c *Client) fetchSeason(ctx context.Context, tournament, stage string,
	season int) (*Season, error) {

	s := &Season{
		Tournament: tournament,
		Stage:      stage,
		Season:     season,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tables, err := c.fetchTables(gctx, tournament, season)
		if err != nil {
			return err
		}
		s.Tables = tables
		return nil
	})
	g.Go(func() error {
		restrictions, err := c.fetchRestrictions(gctx, tournament, season)
		if err != nil {
			return err
		}
		s.Restrictions = restrictions
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pots, err := KnockoutPots(s.Tables)
	if err != nil {
		return nil, fmt.Errorf("unable to build %v %v pots: %w", tournament,
			season, err)
	}
	s.Pots = pots

	return s, nil
}

var errNotFound = errors.New("not found")

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch %v (new): %w", url, err)
	}
	req.Header.Set("User-Agent", internal.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch %v (do): %w", url, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("unable to fetch %v: %w", url, errNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unable to fetch %v: http status: %v", url,
			resp.StatusCode)
	}

	return resp.Body, nil
}

func (c *Client) fetchTables(ctx context.Context, tournament string,
	season int) ([]Table, error) {

	body, err := c.get(ctx, fmt.Sprintf("%v/%v/%v/groups.html", c.baseURL,
		tournament, season))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ParseGroups(body)
}

func (c *Client) fetchRestrictions(ctx context.Context, tournament string,
	season int) ([]Restriction, error) {

	body, err := c.get(ctx, fmt.Sprintf("%v/%v/%v/restrictions.json",
		c.baseURL, tournament, season))
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var doc struct {
		Restrictions []Restriction `json:"restrictions"`
	}
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("unable to parse %v %v restrictions: %w",
			tournament, season, err)
	}

	return doc.Restrictions, nil
}
