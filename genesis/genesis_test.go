package genesis

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockberries/ledger"
	"github.com/blockberries/ledger/types"
)

// failingReader yields n bytes of counter-derived entropy, then fails.
type failingReader struct {
	n   int
	pos byte
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n == 0 {
		return 0, errors.New("entropy source closed")
	}
	k := len(p)
	if k > r.n {
		k = r.n
	}
	for i := 0; i < k; i++ {
		r.pos++
		p[i] = r.pos
	}
	r.n -= k
	return k, nil
}

func TestInitChain_RosterShape(t *testing.T) {
	params, err := InitChain()
	require.NoError(t, err)
	require.Len(t, params.Validators, 10)

	seen := make(map[string]bool)
	for _, v := range params.Validators {
		require.Equal(t, uint64(10), v.VotingPower)
		require.Equal(t, types.KeyTypeEd25519, v.PubKey.Type)
		require.Len(t, v.PubKey.Data, ed25519.PublicKeySize)
		require.Empty(t, v.VP)
		require.False(t, seen[string(v.PubKey.Data)], "duplicate public key")
		seen[string(v.PubKey.Data)] = true
	}
	require.Equal(t, uint64(100), params.TotalVotingPower())
}

func TestInitChain_FreshKeysPerCall(t *testing.T) {
	a, err := InitChain()
	require.NoError(t, err)
	b, err := InitChain()
	require.NoError(t, err)
	require.NotEqual(t, a.Validators[0].PubKey.Data, b.Validators[0].PubKey.Data)
}

func TestBootstrap_Config(t *testing.T) {
	params, err := Bootstrap(&failingReader{n: 1 << 20}, Config{ValidatorCount: 3, VotingPower: 7})
	require.NoError(t, err)
	require.Len(t, params.Validators, 3)
	require.Equal(t, uint64(21), params.TotalVotingPower())
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	_, err := Bootstrap(&failingReader{n: 1 << 20}, Config{ValidatorCount: 0, VotingPower: 10})
	require.Error(t, err)
	_, err = Bootstrap(&failingReader{n: 1 << 20}, Config{ValidatorCount: 1, VotingPower: 0})
	require.Error(t, err)
}

func TestBootstrap_EntropyFailureIsFatal(t *testing.T) {
	// Enough entropy for two validators only.
	params, err := Bootstrap(&failingReader{n: 2 * ed25519.SeedSize}, DefaultConfig)
	require.Error(t, err)
	require.Empty(t, params.Validators)

	k, ok := ledger.AsKeypairGeneration(err)
	require.True(t, ok)
	require.Equal(t, 2, k.Index)
}

func TestBootstrap_DuplicateKeyRejected(t *testing.T) {
	zeros := bytes.NewReader(make([]byte, 4*ed25519.SeedSize))
	_, err := Bootstrap(zeros, DefaultConfig)
	k, ok := ledger.AsKeypairGeneration(err)
	require.True(t, ok)
	require.Equal(t, 1, k.Index)
}

func TestBootstrap_ShortRead(t *testing.T) {
	_, err := Bootstrap(bytes.NewReader(make([]byte, 10)), DefaultConfig)
	k, ok := ledger.AsKeypairGeneration(err)
	require.True(t, ok)
	require.ErrorIs(t, k, io.ErrUnexpectedEOF)
}

func TestEncodeDecode(t *testing.T) {
	params, err := InitChain()
	require.NoError(t, err)

	data, err := Encode(params)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, got.Validators, len(params.Validators))
	for i := range params.Validators {
		require.Equal(t, params.Validators[i].PubKey.Data, got.Validators[i].PubKey.Data)
		require.Equal(t, params.Validators[i].VotingPower, got.Validators[i].VotingPower)
	}
}
