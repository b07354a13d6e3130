/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package uefa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mikeb26/uefa-drawbot/draw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(teams []draw.Team) []string {
	out := make([]string, len(teams))
	for i, t := range teams {
		out[i] = t.ID
	}
	return out
}

// newSeasonServer serves the fixtures for el 2024 and only group tables for
// cl 2024.
func newSeasonServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	serve := func(path, file string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			http.ServeFile(w, r, file)
		})
	}
	serve("/el/2024/groups.html", "testdata/groups.html")
	serve("/el/2024/restrictions.json", "testdata/restrictions.json")
	serve("/cl/2024/groups.html", "testdata/groups.html")
	mux.HandleFunc("/cl/2023/groups.html", func(w http.ResponseWriter,
		r *http.Request) {

		hits.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSeason(t *testing.T) {
	var hits atomic.Int32
	srv := newSeasonServer(t, &hits)
	client := NewClient(srv.Client(), srv.URL+"/")

	s, err := client.FetchSeason(context.Background(), "el", StageKnockout,
		2024)
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load())
	assert.Equal(t, []string{"scf", "om", "spa", "scp"}, ids(s.Pots[0]))
	assert.Equal(t, []string{"whu", "bha", "rfc", "ata"}, ids(s.Pots[1]))
	require.Len(t, s.Restrictions, 1)

	pred, err := s.Predicate()
	require.NoError(t, err)
	ok, err := pred.Legal(s.Pots[0][1], s.Pots[1][2], nil)
	require.NoError(t, err)
	assert.False(t, ok, "FRA vs SCO is restricted")

	again, err := client.FetchSeason(context.Background(), "el",
		StageKnockout, 2024)
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetchSeasonConcurrent(t *testing.T) {
	var hits atomic.Int32
	srv := newSeasonServer(t, &hits)
	client := NewClient(srv.Client(), srv.URL)

	var wg sync.WaitGroup
	seasons := make([]*Season, 8)
	for i := range seasons {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := client.FetchSeason(context.Background(), "el",
				StageKnockout, 2024)
			assert.NoError(t, err)
			seasons[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range seasons[1:] {
		assert.Same(t, seasons[0], s)
	}
}

func TestFetchSeasonWithoutRestrictions(t *testing.T) {
	var hits atomic.Int32
	srv := newSeasonServer(t, &hits)
	client := NewClient(srv.Client(), srv.URL)

	s, err := client.FetchSeason(context.Background(), "cl", StageKnockout,
		2024)
	require.NoError(t, err)
	assert.Empty(t, s.Restrictions)
	assert.Len(t, s.Pots[0], 4)
}

func TestFetchSeasonErrors(t *testing.T) {
	var hits atomic.Int32
	srv := newSeasonServer(t, &hits)
	client := NewClient(srv.Client(), srv.URL)
	ctx := context.Background()

	_, err := client.FetchSeason(ctx, "el", "gs", 2024)
	assert.ErrorIs(t, err, ErrUnsupportedStage)

	_, err = client.FetchSeason(ctx, "wc", StageKnockout, 2024)
	assert.ErrorIs(t, err, ErrUnknownTournament)

	_, err = client.FetchSeason(ctx, "cl", StageKnockout, 2023)
	assert.Error(t, err)

	// missing group tables are an error even though missing restrictions
	// are not
	_, err = client.FetchSeason(ctx, "el", StageKnockout, 1999)
	assert.Error(t, err)
}

func TestFetchSeasonSurvivesCancelledStarter(t *testing.T) {
	var groupHits atomic.Int32
	entered := make(chan struct{}, 1)
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/el/2024/groups.html", func(w http.ResponseWriter,
		r *http.Request) {

		groupHits.Add(1)
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		http.ServeFile(w, r, "testdata/groups.html")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	defer func() {
		select {
		case <-release:
		default:
			close(release)
		}
	}()
	client := NewClient(srv.Client(), srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	starterErr := make(chan error, 1)
	go func() {
		_, err := client.FetchSeason(ctx, "el", StageKnockout, 2024)
		starterErr <- err
	}()
	<-entered
	cancel()
	assert.ErrorIs(t, <-starterErr, context.Canceled)

	waiter := make(chan *Season, 1)
	go func() {
		s, err := client.FetchSeason(context.Background(), "el",
			StageKnockout, 2024)
		assert.NoError(t, err)
		waiter <- s
	}()
	close(release)

	s := <-waiter
	require.NotNil(t, s)
	assert.Len(t, s.Pots[0], 4)
	assert.EqualValues(t, 1, groupHits.Load())
}
