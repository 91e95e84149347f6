// Package local provides a zero-copy, in-process ledger connection.
//
// For shells compiled into the same binary as the consensus engine,
// this adapter wraps the application with lifecycle enforcement
// and no serialization overhead.
package local

import (
	"context"

	"go.uber.org/zap"

	"github.com/blockberries/ledger"
	"github.com/blockberries/ledger/server"
	"github.com/blockberries/ledger/types"
)

// Compile-time interface check.
var _ ledger.Connection = (*Connection)(nil)

// Connection wraps a local Application with lifecycle enforcement.
type Connection struct {
	srv *server.Server
}

// NewConnection creates an in-process connection wrapping the given
// application.
func NewConnection(app ledger.Application, log *zap.Logger) *Connection {
	return &Connection{srv: server.New(app, log)}
}

func (c *Connection) InitChain(ctx context.Context) (types.InitialParameters, error) {
	return c.srv.InitChain(ctx)
}

func (c *Connection) Resume(ctx context.Context) (types.AppInfo, error) {
	return c.srv.Resume(ctx)
}

func (c *Connection) Info(ctx context.Context) (types.AppInfo, error) {
	return c.srv.Info(ctx)
}

func (c *Connection) MempoolValidate(ctx context.Context, tx types.Tx, kind types.MempoolTxType) error {
	return c.srv.MempoolValidate(ctx, tx, kind)
}

func (c *Connection) ApplyTx(ctx context.Context, tx types.Tx) error {
	return c.srv.ApplyTx(ctx, tx)
}

func (c *Connection) Commit(ctx context.Context) (types.MerkleRoot, error) {
	return c.srv.Commit(ctx)
}

func (c *Connection) FinalizeBlock(ctx context.Context, txs []types.Tx) (types.BlockResult, error) {
	return c.srv.FinalizeBlock(ctx, txs)
}

func (c *Connection) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	return c.srv.Query(ctx, req)
}

func (c *Connection) Close() error { return nil }

// Server returns the underlying server for advanced use cases.
func (c *Connection) Server() *server.Server {
	return c.srv
}
