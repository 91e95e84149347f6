// Package server provides the engine-side wrapper that enforces the
// per-height call order on a ledger application.
package server

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// lifecycleState represents a state in the per-height lifecycle.
type lifecycleState uint32

const (
	// stateInit: Waiting for the handshake (InitChain or Resume).
	// No other calls allowed.
	stateInit lifecycleState = iota
	// statePending: Handshake complete, no transaction of the current
	// height applied yet. ApplyTx or Commit may follow.
	statePending
	// stateApplying: ApplyTx has been called and has not returned.
	stateApplying
	// stateApplied: At least one transaction of the current height
	// has been applied. More ApplyTx calls or Commit may follow.
	stateApplied
	// stateCommitting: Commit has been called and has not returned.
	stateCommitting
)

func (s lifecycleState) String() string {
	switch s {
	case stateInit:
		return "Init"
	case statePending:
		return "Pending"
	case stateApplying:
		return "Applying"
	case stateApplied:
		return "Applied"
	case stateCommitting:
		return "Committing"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// LifecycleGuard enforces the lifecycle state machine:
//
//	Init --handshake--> Pending(h) --apply*--> Applied(h) --commit--> Pending(h+1)
//
// Sequential calls (ApplyTx, Commit) are serialized by a mutex.
type LifecycleGuard struct {
	state atomic.Uint32
	// Mutex for sequential calls (ApplyTx, Commit).
	seqMu sync.Mutex
	// State to restore when the in-flight sequential call fails.
	// Guarded by seqMu.
	prev lifecycleState
	// Last committed height.
	height atomic.Uint64
	// Tracks whether the handshake has completed (for concurrent
	// call gating).
	handshakeDone atomic.Bool
}

// NewLifecycleGuard creates a guard in the Init state.
func NewLifecycleGuard() *LifecycleGuard {
	g := &LifecycleGuard{}
	g.state.Store(uint32(stateInit))
	return g
}

// State returns the current lifecycle state.
func (g *LifecycleGuard) State() string {
	return lifecycleState(g.state.Load()).String()
}

// Height returns the last committed height.
func (g *LifecycleGuard) Height() uint64 {
	return g.height.Load()
}

// AcquireHandshake transitions Init → Pending.
// Panics if not in Init state.
func (g *LifecycleGuard) AcquireHandshake() {
	if !g.state.CompareAndSwap(uint32(stateInit), uint32(statePending)) {
		panic(fmt.Sprintf("ledger: handshake called in state %s (expected Init)",
			lifecycleState(g.state.Load())))
	}
}

// CompleteHandshake records the committed height reported by the
// application and enables concurrent calls.
func (g *LifecycleGuard) CompleteHandshake(height uint64) {
	g.height.Store(height)
	g.handshakeDone.Store(true)
}

// FailHandshake rolls back state to Init if the handshake fails.
func (g *LifecycleGuard) FailHandshake() {
	g.state.Store(uint32(stateInit))
}

// AcquireApply transitions Pending|Applied → Applying.
// Blocks if another sequential operation is in progress.
// Panics if the handshake has not happened.
func (g *LifecycleGuard) AcquireApply() {
	g.acquire("ApplyTx", stateApplying, statePending, stateApplied)
}

// CompleteApply transitions Applying → Applied.
func (g *LifecycleGuard) CompleteApply() {
	g.state.Store(uint32(stateApplied))
	g.seqMu.Unlock()
}

// FailApply restores the state held before AcquireApply. A rejected
// transaction does not count as applied.
func (g *LifecycleGuard) FailApply() {
	g.state.Store(uint32(g.prev))
	g.seqMu.Unlock()
}

// AcquireCommit transitions Pending|Applied → Committing. Committing
// from Pending closes an empty block.
// Panics if the handshake has not happened.
func (g *LifecycleGuard) AcquireCommit() {
	g.acquire("Commit", stateCommitting, statePending, stateApplied)
}

// AcquireFinalize transitions Pending → Committing for a whole block
// delivered in one call. Panics unless the height is untouched.
func (g *LifecycleGuard) AcquireFinalize() {
	g.acquire("FinalizeBlock", stateCommitting, statePending)
}

// CompleteCommit transitions Committing → Pending and advances the
// height.
func (g *LifecycleGuard) CompleteCommit() {
	g.height.Add(1)
	g.state.Store(uint32(statePending))
	g.seqMu.Unlock()
}

// FailCommit restores the state held before the commit was acquired.
func (g *LifecycleGuard) FailCommit() {
	g.state.Store(uint32(g.prev))
	g.seqMu.Unlock()
}

// CheckConcurrent verifies that concurrent calls are allowed
// (any state after the handshake). Panics otherwise.
func (g *LifecycleGuard) CheckConcurrent() {
	if !g.handshakeDone.Load() {
		panic("ledger: concurrent call before handshake completed")
	}
}

// IsPending returns true if no transaction of the current height has
// been applied.
func (g *LifecycleGuard) IsPending() bool {
	return lifecycleState(g.state.Load()) == statePending
}

func (g *LifecycleGuard) acquire(call string, next lifecycleState, allowed ...lifecycleState) {
	g.seqMu.Lock()
	state := lifecycleState(g.state.Load())
	for _, a := range allowed {
		if state == a {
			g.prev = state
			g.state.Store(uint32(next))
			return
		}
	}
	g.seqMu.Unlock()
	panic(fmt.Sprintf("ledger: %s called in state %s", call, state))
}
