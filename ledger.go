// Package ledger defines the boundary between an external BFT
// consensus engine and the counter ledger application.
//
// The engine drives the application through three call sites:
// mempool admission, finalized application, and commit. [Application]
// is the contract every shell implements; [Connection] is what an
// engine holds, whether the shell runs in-process or behind gRPC.
package ledger

import (
	"context"

	"github.com/blockberries/ledger/types"
)

// Application is the interface the ledger shell exposes to the
// consensus engine.
//
// The engine guarantees the following call order:
//  1. Exactly one of InitChain (fresh chain) or Info (restart) is
//     called before any other method.
//  2. ApplyTx is called for every finalized transaction of height h,
//     in block order.
//  3. Commit is called exactly once after the last ApplyTx of height
//     h and before any ApplyTx of height h+1.
//  4. MempoolValidate, Info and Query may be called at any time after
//     the handshake.
type Application interface {
	// InitChain produces and persists the genesis validator roster.
	// Called once per chain, before the first block.
	InitChain(ctx context.Context) (types.InitialParameters, error)

	// Info reports the last committed height and state so a
	// restarting engine can resume where the application left off.
	Info(ctx context.Context) (types.AppInfo, error)

	// MempoolValidate gate-checks a transaction before it enters the
	// mempool. kind distinguishes first-seen transactions from
	// re-validations after a state change.
	//
	// It never changes committed state. Rejections are returned as
	// *DecodeError or *NotIncrementalError.
	MempoolValidate(ctx context.Context, tx types.Tx, kind types.MempoolTxType) error

	// ApplyTx applies a finalized transaction to committed state.
	//
	// Must be deterministic: the same state and transaction yield the
	// same resulting state on every replica. Decode failures are
	// returned as *DecodeError and leave state untouched.
	ApplyTx(ctx context.Context, tx types.Tx) error

	// Commit persists the state of the current height and returns its
	// MerkleRoot, which the engine embeds in the next block header.
	Commit(ctx context.Context) (types.MerkleRoot, error)

	// Query reads committed application state.
	Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error)
}

// Connection represents a transport-agnostic connection to a ledger
// application. Both gRPC clients and in-process adapters implement this.
type Connection interface {
	Application

	// Resume performs the restart handshake: it returns the
	// application's committed state and enables block execution.
	Resume(ctx context.Context) (types.AppInfo, error)

	// FinalizeBlock applies every transaction of a finalized block in
	// order and commits once.
	FinalizeBlock(ctx context.Context, txs []types.Tx) (types.BlockResult, error)

	// Close terminates the connection.
	Close() error
}
