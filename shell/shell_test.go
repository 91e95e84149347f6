package shell_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/ledger"
	"github.com/blockberries/ledger/genesis"
	"github.com/blockberries/ledger/metrics"
	"github.com/blockberries/ledger/shell"
	"github.com/blockberries/ledger/store"
	ledgertest "github.com/blockberries/ledger/testing"
	"github.com/blockberries/ledger/txcodec"
	"github.com/blockberries/ledger/types"
)

var ctx = context.Background()

func newShell(t *testing.T, opts ...shell.Option) *shell.Shell {
	t.Helper()
	s, err := shell.New(store.NewMemory(), opts...)
	require.NoError(t, err)
	return s
}

func TestShell_Compliance(t *testing.T) {
	ledgertest.RunComplianceSuite(t, func() ledger.Application {
		s, err := shell.New(store.NewMemory())
		if err != nil {
			t.Fatal(err)
		}
		return s
	})
}

func TestShell_FreshState(t *testing.T) {
	s := newShell(t)
	require.Zero(t, s.Count())
	require.Zero(t, s.Height())

	info, err := s.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, types.AppInfo{}, info)
}

func TestShell_MempoolValidate(t *testing.T) {
	s := newShell(t)

	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(1), types.NewTransaction))

	err := s.MempoolValidate(ctx, txcodec.CountTx(1), types.NewTransaction)
	ni, ok := ledger.AsNotIncremental(err)
	require.True(t, ok)
	require.Equal(t, uint64(2), ni.Expected)
	require.Equal(t, uint64(1), ni.Got)

	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(2), types.NewTransaction))
	require.Zero(t, s.Count(), "admission must not touch committed state")
}

func TestShell_MempoolValidateDecodeError(t *testing.T) {
	s := newShell(t)
	raw := types.Tx{0xde, 0xad}

	err := s.MempoolValidate(ctx, raw, types.NewTransaction)
	de, ok := ledger.AsDecode(err)
	require.True(t, ok)
	require.Equal(t, []byte(raw), de.Raw)

	// The cursor did not move.
	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(1), types.NewTransaction))
}

func TestShell_ResetMempool(t *testing.T) {
	s := newShell(t)
	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(1), types.NewTransaction))
	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(2), types.NewTransaction))

	s.ResetMempool()

	// Recheck pass against committed state starts over at 1.
	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(1), types.RecheckTransaction))
	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(2), types.RecheckTransaction))
}

func TestShell_CommitResetsMempool(t *testing.T) {
	s := newShell(t)
	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(1), types.NewTransaction))
	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(2), types.NewTransaction))
	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(3), types.NewTransaction))

	// Only tx 1 made it into the block.
	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(1)))
	_, err := s.Commit(ctx)
	require.NoError(t, err)

	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(2), types.RecheckTransaction))
	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(3), types.RecheckTransaction))
}

func TestShell_ApplyTxIsUnconditional(t *testing.T) {
	s := newShell(t)
	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(9)))
	require.Equal(t, uint64(9), s.Count())
	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(4)))
	require.Equal(t, uint64(4), s.Count())

	root, err := s.Commit(ctx)
	require.NoError(t, err)
	require.Equal(t, types.RootFromCount(4), root)
}

func TestShell_ApplyTxDecodeError(t *testing.T) {
	s := newShell(t)
	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(2)))

	err := s.ApplyTx(ctx, types.Tx{1, 2, 3})
	_, ok := ledger.AsDecode(err)
	require.True(t, ok)
	require.Equal(t, uint64(2), s.Count())
}

func TestShell_EndToEnd(t *testing.T) {
	s := newShell(t)

	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(1)))
	root, err := s.Commit(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, root.Bytes())

	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(2)))
	root, err = s.Commit(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 2}, root.Bytes())

	err = s.MempoolValidate(ctx, txcodec.CountTx(4), types.NewTransaction)
	ni, ok := ledger.AsNotIncremental(err)
	require.True(t, ok)
	require.Equal(t, uint64(3), ni.Expected)
	require.Equal(t, uint64(4), ni.Got)
}

func TestShell_CommitIdempotent(t *testing.T) {
	s := newShell(t)
	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(7)))

	r1, err := s.Commit(ctx)
	require.NoError(t, err)
	r2, err := s.Commit(ctx)
	require.NoError(t, err)
	require.Equal(t, r1, r2)
	require.Equal(t, uint64(2), s.Height())
}

type flakyStore struct {
	*store.MemoryStore
	fail bool
}

func (f *flakyStore) Commit() error {
	if f.fail {
		return errors.Wrap(store.ErrIO, "disk full")
	}
	return f.MemoryStore.Commit()
}

func TestShell_CommitStoreFailure(t *testing.T) {
	st := &flakyStore{MemoryStore: store.NewMemory()}
	s, err := shell.New(st)
	require.NoError(t, err)

	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(1)))
	st.fail = true
	_, err = s.Commit(ctx)
	require.Error(t, err)
	require.Equal(t, store.ErrIO, errors.Cause(err))
	require.Zero(t, s.Height())

	st.fail = false
	root, err := s.Commit(ctx)
	require.NoError(t, err)
	require.Equal(t, types.RootFromCount(1), root)
	require.Equal(t, uint64(1), s.Height())
}

func TestShell_InitChain(t *testing.T) {
	st := store.NewMemory()
	s, err := shell.New(st)
	require.NoError(t, err)

	params, err := s.InitChain(ctx)
	require.NoError(t, err)
	require.Len(t, params.Validators, 10)
	require.Equal(t, uint64(100), params.TotalVotingPower())
	require.Equal(t, 1, st.Commits())

	_, err = s.InitChain(ctx)
	require.Equal(t, shell.ErrAlreadyInitialized, err)

	res, err := s.Query(ctx, types.StateQuery{Path: shell.PathValidators})
	require.NoError(t, err)
	require.Zero(t, res.Code)
	stored, err := genesis.Decode(res.Value)
	require.NoError(t, err)
	require.Len(t, stored.Validators, len(params.Validators))
	for i, v := range params.Validators {
		require.Equal(t, v.PubKey.Data, stored.Validators[i].PubKey.Data)
	}
}

func TestShell_InitChainCustomRoster(t *testing.T) {
	s := newShell(t, shell.WithGenesisConfig(genesis.Config{ValidatorCount: 4, VotingPower: 25}))
	params, err := s.InitChain(ctx)
	require.NoError(t, err)
	require.Len(t, params.Validators, 4)
	require.Equal(t, uint64(100), params.TotalVotingPower())
}

// zeroReader yields identical seeds, so the second keypair collides.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestShell_InitChainKeypairFailure(t *testing.T) {
	st := store.NewMemory()
	s, err := shell.New(st, shell.WithRandom(zeroReader{}))
	require.NoError(t, err)

	_, err = s.InitChain(ctx)
	kg, ok := ledger.AsKeypairGeneration(err)
	require.True(t, ok)
	require.Equal(t, 1, kg.Index)
	require.Zero(t, st.Commits())

	res, err := s.Query(ctx, types.StateQuery{Path: shell.PathValidators})
	require.NoError(t, err)
	require.Equal(t, uint32(1), res.Code)
}

func TestShell_Query(t *testing.T) {
	s := newShell(t)
	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(3)))

	// Applied but uncommitted state is not visible.
	res, err := s.Query(ctx, types.StateQuery{Path: shell.PathCount})
	require.NoError(t, err)
	require.Equal(t, make([]byte, 8), res.Value)

	_, err = s.Commit(ctx)
	require.NoError(t, err)

	res, err = s.Query(ctx, types.StateQuery{Path: shell.PathCount})
	require.NoError(t, err)
	require.Equal(t, types.RootFromCount(3).Bytes(), res.Value)
	require.Equal(t, uint64(1), res.Height)

	res, err = s.Query(ctx, types.StateQuery{Path: shell.PathHeight})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, res.Value)

	res, err = s.Query(ctx, types.StateQuery{Path: "/nope"})
	require.NoError(t, err)
	require.Equal(t, uint32(1), res.Code)
	require.Contains(t, res.Info, "/nope")
}

func TestShell_PersistsAcrossReopen(t *testing.T) {
	cfg := store.DefaultConfig
	cfg.Path = filepath.Join(t.TempDir(), "ledger.db")

	st, err := store.NewBolt(cfg)
	require.NoError(t, err)
	s, err := shell.New(st)
	require.NoError(t, err)
	_, err = s.InitChain(ctx)
	require.NoError(t, err)
	for n := uint64(1); n <= 3; n++ {
		require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(n)))
		_, err = s.Commit(ctx)
		require.NoError(t, err)
	}
	// Applied but never committed.
	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(4)))
	require.NoError(t, st.Close())

	st, err = store.NewBolt(cfg)
	require.NoError(t, err)
	defer st.Close()
	s, err = shell.New(st)
	require.NoError(t, err)

	info, err := s.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), info.Height)
	require.Equal(t, uint64(3), info.Count)
	require.Equal(t, types.RootFromCount(3), info.Root)

	_, err = s.InitChain(ctx)
	require.Equal(t, shell.ErrAlreadyInitialized, err)
	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(4), types.NewTransaction))
}

func TestShell_CorruptState(t *testing.T) {
	st := store.NewMemory()
	st.Put("shell", []byte("count"), []byte{1, 2, 3})
	require.NoError(t, st.Commit())

	_, err := shell.New(st)
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupt")
}

func TestShell_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	s := newShell(t, shell.WithMetrics(m))

	require.NoError(t, s.MempoolValidate(ctx, txcodec.CountTx(1), types.NewTransaction))
	require.Error(t, s.MempoolValidate(ctx, txcodec.CountTx(5), types.NewTransaction))
	require.Error(t, s.MempoolValidate(ctx, types.Tx{0}, types.RecheckTransaction))
	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(1)))
	_, err := s.Commit(ctx)
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(m.MempoolChecks.WithLabelValues("new", metrics.ResultAccepted)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.MempoolChecks.WithLabelValues("new", metrics.ResultNotIncremental)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.MempoolChecks.WithLabelValues("recheck", metrics.ResultDecodeError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TxsApplied.WithLabelValues(metrics.ResultAccepted)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Commits))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Height))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CommittedCount))
}

func TestShell_RootIsCopy(t *testing.T) {
	s := newShell(t)
	require.NoError(t, s.ApplyTx(ctx, txcodec.CountTx(1)))
	_, err := s.Commit(ctx)
	require.NoError(t, err)

	res, err := s.Query(ctx, types.StateQuery{Path: shell.PathCount})
	require.NoError(t, err)
	res.Value[7] = 0xff

	res, err = s.Query(ctx, types.StateQuery{Path: shell.PathCount})
	require.NoError(t, err)
	require.True(t, bytes.Equal(types.RootFromCount(1).Bytes(), res.Value))
}
