package server

import (
	"context"

	"go.uber.org/zap"

	"github.com/blockberries/ledger"
	"github.com/blockberries/ledger/logging"
	"github.com/blockberries/ledger/types"
)

// Server wraps a ledger application with lifecycle enforcement.
// The consensus engine interacts with the application exclusively
// through this server.
type Server struct {
	app   ledger.Application
	guard *LifecycleGuard
	log   *zap.Logger
}

// New creates a new Server wrapping the given application. A nil
// logger disables logging.
func New(app ledger.Application, log *zap.Logger) *Server {
	return &Server{
		app:   app,
		guard: NewLifecycleGuard(),
		log:   logging.OrNop(log),
	}
}

// InitChain performs the genesis handshake.
func (s *Server) InitChain(ctx context.Context) (types.InitialParameters, error) {
	s.guard.AcquireHandshake()

	params, err := s.app.InitChain(ctx)
	if err != nil {
		s.guard.FailHandshake()
		return params, err
	}
	s.guard.CompleteHandshake(0)
	return params, nil
}

// Resume performs the restart handshake, adopting the application's
// committed height.
func (s *Server) Resume(ctx context.Context) (types.AppInfo, error) {
	s.guard.AcquireHandshake()

	info, err := s.app.Info(ctx)
	if err != nil {
		s.guard.FailHandshake()
		return info, err
	}
	s.guard.CompleteHandshake(info.Height)
	s.log.Info("Resumed application.",
		zap.Uint64("height", info.Height),
		zap.Stringer("root", info.Root))
	return info, nil
}

// Info reports the application's committed state. Safe for
// concurrent use.
func (s *Server) Info(ctx context.Context) (types.AppInfo, error) {
	s.guard.CheckConcurrent()
	return s.app.Info(ctx)
}

// MempoolValidate gate-checks a transaction for mempool admission.
func (s *Server) MempoolValidate(ctx context.Context, tx types.Tx, kind types.MempoolTxType) error {
	s.guard.CheckConcurrent()
	return s.app.MempoolValidate(ctx, tx, kind)
}

// ApplyTx applies one finalized transaction.
func (s *Server) ApplyTx(ctx context.Context, tx types.Tx) error {
	s.guard.AcquireApply()

	if err := s.app.ApplyTx(ctx, tx); err != nil {
		s.guard.FailApply()
		return err
	}
	s.guard.CompleteApply()
	return nil
}

// Commit closes the current height.
func (s *Server) Commit(ctx context.Context) (types.MerkleRoot, error) {
	s.guard.AcquireCommit()

	root, err := s.app.Commit(ctx)
	if err != nil {
		s.guard.FailCommit()
		return root, err
	}
	s.guard.CompleteCommit()
	return root, nil
}

// FinalizeBlock applies txs in order and commits once. Rejected
// transactions are reported in the result and do not stop the block.
// Any other error aborts the block and must halt the engine.
func (s *Server) FinalizeBlock(ctx context.Context, txs []types.Tx) (types.BlockResult, error) {
	results := make([]types.TxResult, len(txs))
	for i, tx := range txs {
		err := s.ApplyTx(ctx, tx)
		r, ok := ledger.ResultFromError(err)
		if !ok {
			s.log.Error("Failed to apply finalized transaction.",
				zap.Uint64("height", s.guard.Height()+1),
				zap.Int("index", i),
				zap.Error(err))
			return types.BlockResult{}, err
		}
		if !r.OK() {
			s.log.Warn("Finalized transaction rejected.",
				zap.Uint64("height", s.guard.Height()+1),
				zap.Int("index", i),
				zap.String("info", r.Info))
		}
		results[i] = r
	}

	root, err := s.Commit(ctx)
	if err != nil {
		return types.BlockResult{}, err
	}
	return types.BlockResult{
		Height:    s.guard.Height(),
		TxResults: results,
		Root:      root,
	}, nil
}

// Query reads application state. Safe for concurrent use.
func (s *Server) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	s.guard.CheckConcurrent()
	return s.app.Query(ctx, req)
}

// Height returns the last committed height.
func (s *Server) Height() uint64 {
	return s.guard.Height()
}

// State returns the current lifecycle state name.
func (s *Server) State() string {
	return s.guard.State()
}

// Close is a no-op for the server wrapper.
func (s *Server) Close() error { return nil }
