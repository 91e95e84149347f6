// Package ledgertest provides test utilities for ledger shell
// development, including a configurable mock, a test harness,
// and a lifecycle compliance test suite.
package ledgertest

import (
	"context"
	"sync/atomic"

	"github.com/blockberries/ledger"
	"github.com/blockberries/ledger/types"
)

// Compile-time check that MockApp satisfies the interface.
var _ ledger.Application = (*MockApp)(nil)

// MockApp is a configurable mock application for engine testing.
// All methods are configurable via function fields. Unconfigured
// methods return sensible zero-value defaults.
type MockApp struct {
	// Configurable handlers. If nil, defaults are used.
	InitChainFn       func(context.Context) (types.InitialParameters, error)
	InfoFn            func(context.Context) (types.AppInfo, error)
	MempoolValidateFn func(context.Context, types.Tx, types.MempoolTxType) error
	ApplyTxFn         func(context.Context, types.Tx) error
	CommitFn          func(context.Context) (types.MerkleRoot, error)
	QueryFn           func(context.Context, types.StateQuery) (types.StateQueryResult, error)

	// Call counters (atomic for concurrent access).
	InitChainCalls       atomic.Int64
	InfoCalls            atomic.Int64
	MempoolValidateCalls atomic.Int64
	ApplyTxCalls         atomic.Int64
	CommitCalls          atomic.Int64
	QueryCalls           atomic.Int64
}

func (m *MockApp) InitChain(ctx context.Context) (types.InitialParameters, error) {
	m.InitChainCalls.Add(1)
	if m.InitChainFn != nil {
		return m.InitChainFn(ctx)
	}
	return types.InitialParameters{}, nil
}

func (m *MockApp) Info(ctx context.Context) (types.AppInfo, error) {
	m.InfoCalls.Add(1)
	if m.InfoFn != nil {
		return m.InfoFn(ctx)
	}
	return types.AppInfo{}, nil
}

func (m *MockApp) MempoolValidate(ctx context.Context, tx types.Tx, kind types.MempoolTxType) error {
	m.MempoolValidateCalls.Add(1)
	if m.MempoolValidateFn != nil {
		return m.MempoolValidateFn(ctx, tx, kind)
	}
	return nil
}

func (m *MockApp) ApplyTx(ctx context.Context, tx types.Tx) error {
	m.ApplyTxCalls.Add(1)
	if m.ApplyTxFn != nil {
		return m.ApplyTxFn(ctx, tx)
	}
	return nil
}

func (m *MockApp) Commit(ctx context.Context) (types.MerkleRoot, error) {
	m.CommitCalls.Add(1)
	if m.CommitFn != nil {
		return m.CommitFn(ctx)
	}
	return types.MerkleRoot{}, nil
}

func (m *MockApp) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	m.QueryCalls.Add(1)
	if m.QueryFn != nil {
		return m.QueryFn(ctx, req)
	}
	return types.StateQueryResult{}, nil
}
