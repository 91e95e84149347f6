package ledgertest

import (
	"context"
	"testing"

	"github.com/blockberries/ledger"
	"github.com/blockberries/ledger/server"
	"github.com/blockberries/ledger/txcodec"
	"github.com/blockberries/ledger/types"
)

// Harness provides a convenient test harness for shell developers
// to drive an application through the lifecycle state machine.
type Harness struct {
	t   *testing.T
	srv *server.Server
}

// NewHarness creates a test harness wrapping the given application.
func NewHarness(t *testing.T, app ledger.Application) *Harness {
	t.Helper()
	return &Harness{t: t, srv: server.New(app, nil)}
}

// Server returns the underlying server for direct access.
func (h *Harness) Server() *server.Server {
	return h.srv
}

// InitChain performs the genesis handshake.
func (h *Harness) InitChain() types.InitialParameters {
	h.t.Helper()
	params, err := h.srv.InitChain(context.Background())
	if err != nil {
		h.t.Fatalf("InitChain failed: %v", err)
	}
	return params
}

// Resume performs the restart handshake.
func (h *Harness) Resume() types.AppInfo {
	h.t.Helper()
	info, err := h.srv.Resume(context.Background())
	if err != nil {
		h.t.Fatalf("Resume failed: %v", err)
	}
	return info
}

// Apply applies a finalized transaction and returns its verdict.
func (h *Harness) Apply(tx types.Tx) error {
	h.t.Helper()
	return h.srv.ApplyTx(context.Background(), tx)
}

// MustApply applies a transaction and fails the test on rejection.
func (h *Harness) MustApply(tx types.Tx) {
	h.t.Helper()
	if err := h.Apply(tx); err != nil {
		h.t.Fatalf("ApplyTx failed: %v", err)
	}
}

// Commit commits the current height.
func (h *Harness) Commit() types.MerkleRoot {
	h.t.Helper()
	root, err := h.srv.Commit(context.Background())
	if err != nil {
		h.t.Fatalf("Commit failed: %v", err)
	}
	return root
}

// FinalizeBlock applies txs and commits, returning the block result.
func (h *Harness) FinalizeBlock(txs ...types.Tx) types.BlockResult {
	h.t.Helper()
	res, err := h.srv.FinalizeBlock(context.Background(), txs)
	if err != nil {
		h.t.Fatalf("FinalizeBlock (height=%d) failed: %v", h.srv.Height()+1, err)
	}
	return res
}

// Validate submits a first-seen transaction for mempool admission.
func (h *Harness) Validate(tx types.Tx) error {
	h.t.Helper()
	return h.srv.MempoolValidate(context.Background(), tx, types.NewTransaction)
}

// Recheck re-validates a previously admitted transaction.
func (h *Harness) Recheck(tx types.Tx) error {
	h.t.Helper()
	return h.srv.MempoolValidate(context.Background(), tx, types.RecheckTransaction)
}

// Info reads the application's committed state.
func (h *Harness) Info() types.AppInfo {
	h.t.Helper()
	info, err := h.srv.Info(context.Background())
	if err != nil {
		h.t.Fatalf("Info failed: %v", err)
	}
	return info
}

// Query reads application state at the latest height.
func (h *Harness) Query(path types.QueryPath) types.StateQueryResult {
	h.t.Helper()
	result, err := h.srv.Query(context.Background(), types.StateQuery{Path: path})
	if err != nil {
		h.t.Fatalf("Query failed: %v", err)
	}
	return result
}

// MustAcceptTx asserts that a transaction is admitted.
func (h *Harness) MustAcceptTx(tx types.Tx) {
	h.t.Helper()
	if err := h.Validate(tx); err != nil {
		h.t.Fatalf("expected tx accepted, got %v", err)
	}
}

// MustRejectTx asserts that a transaction is rejected and returns
// the rejection.
func (h *Harness) MustRejectTx(tx types.Tx) error {
	h.t.Helper()
	err := h.Validate(tx)
	if err == nil {
		h.t.Fatal("expected tx rejected, got accepted")
	}
	return err
}

// --- Helper Factories ---

// CountTx creates a transaction carrying counter value n.
func CountTx(n uint64) types.Tx {
	return txcodec.CountTx(n)
}

// CountTxs creates transactions carrying from, from+1, ..., to.
func CountTxs(from, to uint64) []types.Tx {
	var txs []types.Tx
	for n := from; n <= to; n++ {
		txs = append(txs, CountTx(n))
	}
	return txs
}
