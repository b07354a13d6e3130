/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */

// Package luarule builds draw legality predicates from Lua scripts, so
// competition rules can be changed without a rebuild. A script defines
//
//	function legal(a, b, matchups) ... end
//
// where a and b are tables with id, name, country, group and seed fields
// and matchups is a list of completed {a, b} pairs. Setting the global
// history_free = true declares that legal never looks at matchups.
package luarule

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mikeb26/uefa-drawbot/draw"
	lua "github.com/yuin/gopher-lua"
)

const DefaultTimeout = time.Second

var ErrNoLegalFunc = errors.New("script does not define legal(a, b, matchups)")

// Rule is a draw.Predicate backed by a Lua state. Calls are serialized.
type Rule struct {
	mu          sync.Mutex
	state       *lua.LState
	legal       *lua.LFunction
	historyFree bool
	timeout     time.Duration
}

type Option func(r *Rule)

// WithTimeout bounds the run time of a single legal() call.
func WithTimeout(d time.Duration) Option {
	return func(r *Rule) { r.timeout = d }
}

// New compiles src and returns the rule it defines.
func New(src string, opts ...Option) (*Rule, error) {
	r := &Rule{
		state:   newState(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.state.DoString(src); err != nil {
		r.state.Close()
		return nil, fmt.Errorf("unable to load rule script: %w", err)
	}
	fn, ok := r.state.GetGlobal("legal").(*lua.LFunction)
	if !ok {
		r.state.Close()
		return nil, ErrNoLegalFunc
	}
	r.legal = fn
	r.historyFree = lua.LVAsBool(r.state.GetGlobal("history_free"))

	return r, nil
}

// Load reads a rule script from path.
func Load(path string, opts ...Option) (*Rule, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read rule script: %w", err)
	}
	r, err := New(string(src), opts...)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return r, nil
}

// newState opens only the side-effect free libraries. math.random is
// removed since predicates must be deterministic.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	if math, ok := L.GetGlobal(lua.MathLibName).(*lua.LTable); ok {
		math.RawSetString("random", lua.LNil)
		math.RawSetString("randomseed", lua.LNil)
	}
	for _, name := range []string{"dofile", "loadfile", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	return L
}

func (r *Rule) HistoryFree() bool {
	return r.historyFree
}

func (r *Rule) Legal(a, b draw.Team, matchups []draw.Matchup) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.state.SetContext(ctx)
	defer r.state.RemoveContext()

	L := r.state
	err := L.CallByParam(lua.P{Fn: r.legal, NRet: 1, Protect: true},
		teamValue(L, a), teamValue(L, b), matchupsValue(L, matchups))
	if err != nil {
		return false, fmt.Errorf("legal(%v, %v): %w", a.ID, b.ID, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	verdict, ok := ret.(lua.LBool)
	if !ok {
		return false, fmt.Errorf("legal(%v, %v) returned %v, not a boolean",
			a.ID, b.ID, ret.Type())
	}
	return bool(verdict), nil
}

// Close releases the Lua state.
func (r *Rule) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Close()
}

func teamValue(L *lua.LState, t draw.Team) *lua.LTable {
	tbl := L.CreateTable(0, 5)
	tbl.RawSetString("id", lua.LString(t.ID))
	tbl.RawSetString("name", lua.LString(t.Name))
	tbl.RawSetString("country", lua.LString(t.Country))
	tbl.RawSetString("group", lua.LString(t.Group))
	tbl.RawSetString("seed", lua.LNumber(t.Seed))
	return tbl
}

func matchupsValue(L *lua.LState, matchups []draw.Matchup) *lua.LTable {
	list := L.CreateTable(len(matchups), 0)
	for _, m := range matchups {
		pair := L.CreateTable(len(m.Teams), 0)
		for _, t := range m.Teams {
			pair.Append(teamValue(L, t))
		}
		list.Append(pair)
	}
	return list
}
