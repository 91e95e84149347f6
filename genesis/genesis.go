// Package genesis bootstraps the genesis validator roster.
package genesis

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/ledger"
	"github.com/blockberries/ledger/types"
)

// Config controls the shape of the genesis roster.
type Config struct {
	ValidatorCount int    `yaml:"validatorCount"`
	VotingPower    uint64 `yaml:"votingPower"`
}

// DefaultConfig is ten validators of voting power ten each.
var DefaultConfig = Config{
	ValidatorCount: 10,
	VotingPower:    10,
}

// Validate checks the config for values that cannot produce a roster.
func (cfg Config) Validate() error {
	if cfg.ValidatorCount <= 0 {
		return fmt.Errorf("genesis: validator count must be positive, got %d", cfg.ValidatorCount)
	}
	if cfg.VotingPower == 0 {
		return errors.New("genesis: voting power must be positive")
	}
	return nil
}

// InitChain generates the default roster from the process-wide
// secure random source.
func InitChain() (types.InitialParameters, error) {
	return Bootstrap(rand.Reader, DefaultConfig)
}

// Bootstrap generates cfg.ValidatorCount fresh Ed25519 validators
// using entropy from r. Any keypair failure aborts the whole roster
// with a *ledger.KeypairGenerationError; no partial roster is returned.
func Bootstrap(r io.Reader, cfg Config) (types.InitialParameters, error) {
	if err := cfg.Validate(); err != nil {
		return types.InitialParameters{}, err
	}
	validators := make([]types.ValidatorAccount, 0, cfg.ValidatorCount)
	for i := 0; i < cfg.ValidatorCount; i++ {
		pub, err := generateKey(r)
		if err != nil {
			return types.InitialParameters{}, &ledger.KeypairGenerationError{Index: i, Err: err}
		}
		for _, v := range validators {
			if bytes.Equal(v.PubKey.Data, pub) {
				return types.InitialParameters{}, &ledger.KeypairGenerationError{
					Index: i,
					Err:   errors.New("duplicate public key"),
				}
			}
		}
		validators = append(validators, types.ValidatorAccount{
			PubKey:      types.PublicKey{Type: types.KeyTypeEd25519, Data: pub},
			VotingPower: cfg.VotingPower,
			VP:          []byte{},
		})
	}
	return types.InitialParameters{Validators: validators}, nil
}

// generateKey draws a seed from r and derives the public key. The
// private half is discarded; validators hold their own keys.
func generateKey(r io.Reader) (ed25519.PublicKey, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, err
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return priv.Public().(ed25519.PublicKey), nil
}

// Encode serializes a roster for storage.
func Encode(p types.InitialParameters) ([]byte, error) {
	data, err := cramberry.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("genesis: encode roster: %w", err)
	}
	return data, nil
}

// Decode restores a roster written by Encode.
func Decode(data []byte) (types.InitialParameters, error) {
	var p types.InitialParameters
	if err := cramberry.Unmarshal(data, &p); err != nil {
		return types.InitialParameters{}, fmt.Errorf("genesis: decode roster: %w", err)
	}
	return p, nil
}
