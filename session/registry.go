/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */

// Package session runs independent draw instances. Each session shuffles
// its pots once when it starts and then owns a draw.Draw exclusively;
// sessions share nothing with each other.
package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/mikeb26/uefa-drawbot/draw"
)

var ErrNotFound = errors.New("no such draw")

// Registry tracks the live sessions by id.
type Registry struct {
	mu       sync.Mutex
	ids      IDGenerator
	seeds    func() int64
	sessions map[string]*Session
}

type Option func(r *Registry)

func WithIDGenerator(ids IDGenerator) Option {
	return func(r *Registry) { r.ids = ids }
}

// WithSeeds sets the source of per-session shuffle seeds.
func WithSeeds(seeds func() int64) Option {
	return func(r *Registry) { r.seeds = seeds }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		ids:      UUIDGenerator{},
		seeds:    func() int64 { return time.Now().UnixNano() },
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start shuffles both pots with a fresh seed and begins a draw.
func (r *Registry) Start(pots [2][]draw.Team,
	pred draw.Predicate) (*Session, error) {

	r.mu.Lock()
	seed := r.seeds()
	r.mu.Unlock()

	return r.StartSeeded(pots, pred, seed)
}

// StartSeeded is Start with a caller-chosen seed, so a draw can be
// replayed.
func (r *Registry) StartSeeded(pots [2][]draw.Team, pred draw.Predicate,
	seed int64) (*Session, error) {

	s, err := newSession(pots, pred, seed)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s.id = r.ids.Generate()
	r.sessions[s.id] = s

	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	return s, nil
}

// Reset abandons draw id and starts over from the same pots with a new id
// and a new shuffle.
func (r *Registry) Reset(id string) (*Session, error) {
	r.mu.Lock()
	old, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	delete(r.sessions, id)
	seed := r.seeds()
	r.mu.Unlock()

	return r.StartSeeded(old.pots, old.pred, seed)
}

// End forgets draw id.
func (r *Registry) End(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Session is one draw instance. Its methods are safe for concurrent use;
// picks are applied one at a time.
type Session struct {
	mu      sync.Mutex
	id      string
	pots    [2][]draw.Team
	pred    draw.Predicate
	seed    int64
	rng     *rand.Rand
	draw    *draw.Draw
	started time.Time
}

func newSession(pots [2][]draw.Team, pred draw.Predicate,
	seed int64) (*Session, error) {

	s := &Session{
		pots: [2][]draw.Team{
			append([]draw.Team(nil), pots[0]...),
			append([]draw.Team(nil), pots[1]...),
		},
		pred:    pred,
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
		started: time.Now(),
	}

	var shuffled [2][]draw.Team
	for i, pot := range s.pots {
		shuffled[i] = append([]draw.Team(nil), pot...)
		s.rng.Shuffle(len(shuffled[i]), func(a, b int) {
			shuffled[i][a], shuffled[i][b] = shuffled[i][b], shuffled[i][a]
		})
	}

	d, err := draw.New(shuffled[0], shuffled[1], pred)
	if err != nil {
		return nil, fmt.Errorf("unable to start draw: %w", err)
	}
	s.draw = d

	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Seed() int64 { return s.seed }

func (s *Session) Started() time.Time { return s.started }

func (s *Session) Snapshot() draw.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draw.Snapshot()
}

// Pick draws the ball at position; see draw.Draw.Pick.
func (s *Session) Pick(position int) (draw.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.draw.Pick(position)
	return s.draw.Snapshot(), err
}

// AutoPick draws every forced ball, stopping at the first real choice, and
// returns how many picks it made.
func (s *Session) AutoPick() (int, draw.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for {
		picked, err := s.draw.AutoPick()
		if err != nil {
			return n, s.draw.Snapshot(), err
		}
		if !picked {
			return n, s.draw.Snapshot(), nil
		}
		n++
	}
}

// FastDraw finishes the draw with random picks from the session's RNG.
func (s *Session) FastDraw() (draw.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		var n int
		switch s.draw.State() {
		case draw.AwaitingFirstOfPair:
			n = len(s.draw.Snapshot().Pots[0])
		case draw.AwaitingSecondOfPair:
			candidates, err := s.draw.CurrentCandidates()
			if err != nil {
				return s.draw.Snapshot(), err
			}
			n = len(candidates)
		case draw.Failed:
			return s.draw.Snapshot(), s.draw.Err()
		default:
			return s.draw.Snapshot(), nil
		}

		if _, err := s.draw.Pick(s.rng.Intn(n)); err != nil {
			return s.draw.Snapshot(), err
		}
	}
}
