package ledgertest

import (
	"bytes"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/blockberries/ledger"
	"github.com/blockberries/ledger/types"
)

// RunComplianceSuite runs a standard compliance test suite against
// a counter ledger application to verify admission, application and
// commit behavior.
//
// The factory function should return a fresh application instance
// backed by empty state for each test.
func RunComplianceSuite(t *testing.T, factory func() ledger.Application) {
	t.Helper()

	t.Run("genesis_roster", func(t *testing.T) {
		h := NewHarness(t, factory())
		params := h.InitChain()
		if len(params.Validators) != 10 {
			t.Fatalf("expected 10 validators, got %d", len(params.Validators))
		}
		seen := make(map[string]bool)
		for i, v := range params.Validators {
			if v.VotingPower != 10 {
				t.Errorf("validator %d: voting power %d, want 10", i, v.VotingPower)
			}
			if v.PubKey.Type != types.KeyTypeEd25519 {
				t.Errorf("validator %d: key type %d", i, v.PubKey.Type)
			}
			if len(v.PubKey.Data) != 32 {
				t.Errorf("validator %d: public key is %d bytes", i, len(v.PubKey.Data))
			}
			if len(v.VP) != 0 {
				t.Errorf("validator %d: non-empty VP", i)
			}
			if seen[string(v.PubKey.Data)] {
				t.Errorf("validator %d: duplicate public key", i)
			}
			seen[string(v.PubKey.Data)] = true
		}
	})

	t.Run("commit_idempotent", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InitChain()
		h.MustApply(CountTx(1))
		r1 := h.Commit()
		r2 := h.Commit()
		if r1 != r2 {
			t.Errorf("consecutive commits differ: %s != %s", r1, r2)
		}
	})

	t.Run("root_encodes_count", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InitChain()
		for _, n := range []uint64{1, 2, 7, 1 << 40} {
			h.MustApply(CountTx(n))
			root := h.Commit()
			if got := binary.BigEndian.Uint64(root.Bytes()); got != n {
				t.Errorf("root %s encodes %d, want %d", root, got, n)
			}
		}
	})

	t.Run("deterministic_with_txs", func(t *testing.T) {
		h1 := NewHarness(t, factory())
		h1.InitChain()
		h2 := NewHarness(t, factory())
		h2.InitChain()

		for _, txs := range [][]types.Tx{CountTxs(1, 3), {CountTx(9)}, nil} {
			o1 := h1.FinalizeBlock(txs...)
			o2 := h2.FinalizeBlock(txs...)
			if o1.Root != o2.Root {
				t.Errorf("height %d: non-deterministic: %s != %s",
					o1.Height, o1.Root, o2.Root)
			}
		}
	})

	t.Run("incremental_admission", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InitChain()
		h.MustApply(CountTx(5))
		h.Commit()

		for _, n := range []uint64{5, 7, 0} {
			err := h.MustRejectTx(CountTx(n))
			ni, ok := ledger.AsNotIncremental(err)
			if !ok {
				t.Fatalf("tx %d: expected NotIncrementalError, got %v", n, err)
			}
			if ni.Expected != 6 || ni.Got != n {
				t.Errorf("tx %d: got expected=%d got=%d", n, ni.Expected, ni.Got)
			}
		}
		h.MustAcceptTx(CountTx(6))
	})

	t.Run("pool_cursor_chains", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InitChain()
		h.MustAcceptTx(CountTx(1))
		h.MustAcceptTx(CountTx(2))
		h.MustAcceptTx(CountTx(3))
		if _, ok := ledger.AsNotIncremental(h.MustRejectTx(CountTx(3))); !ok {
			t.Error("expected NotIncrementalError for repeated tx")
		}
	})

	t.Run("validate_leaves_state", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InitChain()
		h.MustAcceptTx(CountTx(1))
		h.MustAcceptTx(CountTx(2))
		root := h.Commit()
		if root != types.RootFromCount(0) {
			t.Errorf("mempool admission changed committed state: %s", root)
		}
	})

	t.Run("decode_failure_isolated", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InitChain()
		h.MustApply(CountTx(3))
		before := h.Commit()

		for _, raw := range []types.Tx{{}, {0x01, 0x02, 0x03}, bytes.Repeat([]byte{0xff}, 9)} {
			err := h.MustRejectTx(raw)
			de, ok := ledger.AsDecode(err)
			if !ok {
				t.Fatalf("validate %x: expected DecodeError, got %v", raw, err)
			}
			if !bytes.Equal(de.Raw, raw) {
				t.Errorf("DecodeError carries %x, want %x", de.Raw, raw)
			}
			if _, ok := ledger.AsDecode(h.Apply(raw)); !ok {
				t.Errorf("apply %x: expected DecodeError", raw)
			}
		}
		if after := h.Commit(); after != before {
			t.Errorf("decode failure changed state: %s != %s", after, before)
		}
		h.MustAcceptTx(CountTx(4))
	})

	t.Run("end_to_end", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InitChain()

		h.MustApply(CountTx(1))
		if root := h.Commit(); !bytes.Equal(root.Bytes(), []byte{0, 0, 0, 0, 0, 0, 0, 1}) {
			t.Errorf("first commit root %s", root)
		}
		h.MustApply(CountTx(2))
		if root := h.Commit(); !bytes.Equal(root.Bytes(), []byte{0, 0, 0, 0, 0, 0, 0, 2}) {
			t.Errorf("second commit root %s", root)
		}
		ni, ok := ledger.AsNotIncremental(h.MustRejectTx(CountTx(4)))
		if !ok {
			t.Fatal("expected NotIncrementalError")
		}
		if ni.Expected != 3 || ni.Got != 4 {
			t.Errorf("got expected=%d got=%d, want 3 and 4", ni.Expected, ni.Got)
		}
	})

	t.Run("finalize_block_results", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InitChain()
		res := h.FinalizeBlock(CountTx(1), types.Tx{0xaa}, CountTx(2))
		if res.Height != 1 {
			t.Errorf("height %d, want 1", res.Height)
		}
		want := []uint32{types.CodeOK, types.CodeDecode, types.CodeOK}
		if len(res.TxResults) != len(want) {
			t.Fatalf("expected %d results, got %d", len(want), len(res.TxResults))
		}
		for i, code := range want {
			if res.TxResults[i].Code != code {
				t.Errorf("tx %d: code %d, want %d", i, res.TxResults[i].Code, code)
			}
		}
		if res.Root != types.RootFromCount(2) {
			t.Errorf("root %s, want count 2", res.Root)
		}
	})

	t.Run("info_tracks_commits", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InitChain()
		h.FinalizeBlock(CountTx(1))
		h.FinalizeBlock(CountTx(2))
		info := h.Info()
		if info.Height != 2 || info.Count != 2 || info.Root != types.RootFromCount(2) {
			t.Errorf("unexpected info %+v", info)
		}
	})

	t.Run("concurrent_mempool_validate", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InitChain()

		var wg sync.WaitGroup
		var mu sync.Mutex
		accepted := 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if h.Validate(CountTx(1)) == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if accepted != 1 {
			t.Errorf("expected exactly one admission, got %d", accepted)
		}
	})
}
