// Package shell implements the counter ledger application state
// machine driven by the consensus engine.
//
// The only committed state is a uint64 counter. Transactions carry a
// counter value; the mempool admits only the next value in sequence,
// and applying a finalized transaction sets the counter to the value
// it carries. Commit returns the counter as 8 big-endian bytes.
package shell

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/blockberries/ledger"
	"github.com/blockberries/ledger/genesis"
	"github.com/blockberries/ledger/logging"
	"github.com/blockberries/ledger/metrics"
	"github.com/blockberries/ledger/store"
	"github.com/blockberries/ledger/txcodec"
	"github.com/blockberries/ledger/types"
)

// Store layout.
const (
	stateNamespace   = "shell"
	genesisNamespace = "genesis"
)

var (
	countKey      = []byte("count")
	heightKey     = []byte("height")
	validatorsKey = []byte("validators")
)

// Query paths.
const (
	PathCount      types.QueryPath = "/count"
	PathHeight     types.QueryPath = "/height"
	PathValidators types.QueryPath = "/validators"
)

// ErrAlreadyInitialized is returned by InitChain when a genesis
// roster has already been persisted.
var ErrAlreadyInitialized = errors.New("shell: chain already initialized")

// Compile-time interface check.
var _ ledger.Application = (*Shell)(nil)

// Shell is the application state machine.
type Shell struct {
	mu      sync.RWMutex
	store   store.Store
	log     *zap.Logger
	metrics *metrics.Metrics
	genesis genesis.Config
	rand    io.Reader

	// Committed state. Written only by ApplyTx and Commit.
	count  uint64
	height uint64
	root   types.MerkleRoot

	// Mempool state. Written only by MempoolValidate and ResetMempool.
	pool pool
}

// pool tracks the last value admitted to the mempool since the last
// reset, so consecutive admissions chain on top of committed state.
type pool struct {
	last   uint64
	active bool
}

func (p pool) expected(committed uint64) uint64 {
	base := committed
	if p.active && p.last > base {
		base = p.last
	}
	return base + 1
}

// Option configures a Shell.
type Option func(*Shell)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Shell) { s.log = logging.OrNop(l) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Shell) { s.metrics = m }
}

// WithGenesisConfig overrides the roster shape used by InitChain.
func WithGenesisConfig(cfg genesis.Config) Option {
	return func(s *Shell) { s.genesis = cfg }
}

// WithRandom overrides the entropy source used by InitChain.
func WithRandom(r io.Reader) Option {
	return func(s *Shell) { s.rand = r }
}

// New creates a shell over st, restoring committed state if present.
func New(st store.Store, opts ...Option) (*Shell, error) {
	s := &Shell{
		store:   st,
		log:     zap.NewNop(),
		genesis: genesis.DefaultConfig,
		rand:    rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}

	count, err := loadUint64(st, countKey)
	if err != nil {
		return nil, err
	}
	height, err := loadUint64(st, heightKey)
	if err != nil {
		return nil, err
	}
	s.count = count
	s.height = height
	s.root = types.RootFromCount(count)

	s.log.Info("Loaded shell state.",
		zap.Uint64("height", height),
		zap.Uint64("count", count))
	return s, nil
}

// InitChain generates the genesis validator roster and persists it.
// A keypair failure aborts before anything is written.
func (s *Shell) InitChain(_ context.Context) (types.InitialParameters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Get(genesisNamespace, validatorsKey); err == nil {
		return types.InitialParameters{}, ErrAlreadyInitialized
	} else if errors.Cause(err) != store.ErrNotExist {
		return types.InitialParameters{}, err
	}

	params, err := genesis.Bootstrap(s.rand, s.genesis)
	if err != nil {
		s.log.Error("Failed to generate genesis validators.", zap.Error(err))
		return types.InitialParameters{}, err
	}
	data, err := genesis.Encode(params)
	if err != nil {
		return types.InitialParameters{}, err
	}
	s.store.Put(genesisNamespace, validatorsKey, data)
	if err := s.store.Commit(); err != nil {
		return types.InitialParameters{}, errors.Wrap(err, "persist genesis roster")
	}

	s.log.Info("Initialized chain.",
		zap.Int("validators", len(params.Validators)),
		zap.Uint64("totalVotingPower", params.TotalVotingPower()))
	return params, nil
}

// Info reports the committed height, counter and root.
func (s *Shell) Info(_ context.Context) (types.AppInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.AppInfo{Height: s.height, Count: s.count, Root: s.root}, nil
}

// MempoolValidate admits tx if it carries the next counter value.
// On admission the mempool cursor advances so a following
// transaction in the same pool window must carry the value after it.
// Committed state is never modified.
func (s *Shell) MempoolValidate(_ context.Context, tx types.Tx, kind types.MempoolTxType) error {
	decoded, err := txcodec.Decode(tx)
	if err != nil {
		s.metrics.ObserveCheck(kind.String(), metrics.ResultDecodeError)
		return ledger.NewDecodeError(tx, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expected := s.pool.expected(s.count)
	if decoded.Count != expected {
		s.metrics.ObserveCheck(kind.String(), metrics.ResultNotIncremental)
		s.log.Debug("Rejected non-incremental transaction.",
			zap.Stringer("kind", kind),
			zap.Uint64("expected", expected),
			zap.Uint64("got", decoded.Count))
		return &ledger.NotIncrementalError{Expected: expected, Got: decoded.Count}
	}
	s.pool = pool{last: decoded.Count, active: true}
	s.metrics.ObserveCheck(kind.String(), metrics.ResultAccepted)
	return nil
}

// ResetMempool discards the mempool cursor so the next admission is
// checked against committed state alone. Call it before a recheck
// pass when the pending pool was reordered or pruned.
func (s *Shell) ResetMempool() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = pool{}
}

// ApplyTx sets the committed counter to the value carried by a
// finalized transaction. No incremental check is applied here.
func (s *Shell) ApplyTx(_ context.Context, tx types.Tx) error {
	decoded, err := txcodec.Decode(tx)
	if err != nil {
		s.metrics.ObserveApply(metrics.ResultDecodeError)
		return ledger.NewDecodeError(tx, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = decoded.Count
	s.store.Put(stateNamespace, countKey, encodeUint64(decoded.Count))
	s.metrics.ObserveApply(metrics.ResultAccepted)
	return nil
}

// Commit flushes the current height's state and returns its root.
// The root depends only on the committed counter. Committing starts
// a new mempool window.
func (s *Shell) Commit(_ context.Context) (types.MerkleRoot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := types.RootFromCount(s.count)
	height := s.height + 1

	s.store.Put(stateNamespace, countKey, root.Bytes())
	s.store.Put(stateNamespace, heightKey, encodeUint64(height))
	if err := s.store.Commit(); err != nil {
		s.log.Error("Failed to commit state.", zap.Uint64("height", height), zap.Error(err))
		return types.MerkleRoot{}, errors.Wrapf(err, "commit height %d", height)
	}

	s.height = height
	s.root = root
	s.pool = pool{}
	s.metrics.ObserveCommit(height, s.count)
	s.log.Info("Committed state.",
		zap.Uint64("height", height),
		zap.Uint64("count", s.count),
		zap.Stringer("root", root))
	return root, nil
}

// Query reads committed state. Known paths are /count, /height and
// /validators.
func (s *Shell) Query(_ context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := types.StateQueryResult{Key: []byte(req.Path), Height: s.height}
	switch req.Path {
	case PathCount:
		res.Value = s.root.Bytes()
	case PathHeight:
		res.Value = encodeUint64(s.height)
	case PathValidators:
		data, err := s.store.Get(genesisNamespace, validatorsKey)
		if err != nil {
			if errors.Cause(err) != store.ErrNotExist {
				return types.StateQueryResult{}, err
			}
			res.Code = 1
			res.Info = "chain not initialized"
			return res, nil
		}
		res.Value = data
	default:
		res.Code = 1
		res.Info = fmt.Sprintf("unknown path %q", req.Path)
	}
	return res, nil
}

// Count returns the current counter, including applied but not yet
// committed transactions.
func (s *Shell) Count() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Height returns the last committed height.
func (s *Shell) Height() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

func loadUint64(st store.Store, key []byte) (uint64, error) {
	v, err := st.Get(stateNamespace, key)
	if err != nil {
		if errors.Cause(err) == store.ErrNotExist {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "load %s", key)
	}
	if len(v) != 8 {
		return 0, errors.Errorf("load %s: corrupt value of %d bytes", key, len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
