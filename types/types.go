// Package types defines the core data types shared by the ledger
// shell, its storage layer and its transports.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization. Transport concerns
// (gRPC codec registration) are handled in the transport packages.
package types

import (
	"encoding/binary"
	"encoding/hex"
)

// Tx is an opaque transaction as delivered by the consensus engine.
// Only the shell's codec inspects its contents.
type Tx []byte

// QueryPath is a structured key for state queries (e.g. "/count").
type QueryPath string

// MerkleRootSize is the length of the state commitment in bytes.
const MerkleRootSize = 8

// MerkleRoot is the state commitment returned by Commit: the
// committed counter encoded as 8 big-endian bytes. It is derived on
// every commit and never stored on its own.
type MerkleRoot [MerkleRootSize]byte

// RootFromCount encodes a counter value as a MerkleRoot.
func RootFromCount(count uint64) MerkleRoot {
	var r MerkleRoot
	binary.BigEndian.PutUint64(r[:], count)
	return r
}

// Uint64 decodes the counter value carried by the root.
func (r MerkleRoot) Uint64() uint64 {
	return binary.BigEndian.Uint64(r[:])
}

// Bytes returns a copy of the root as a byte slice.
func (r MerkleRoot) Bytes() []byte {
	b := make([]byte, MerkleRootSize)
	copy(b, r[:])
	return b
}

func (r MerkleRoot) String() string {
	return hex.EncodeToString(r[:])
}

// AppInfo is the application's view of its committed state,
// reported to the engine on restart.
type AppInfo struct {
	// Height of the last committed block. 0 = nothing committed.
	Height uint64 `cramberry:"1"`
	// Committed counter value.
	Count uint64 `cramberry:"2"`
	// Root as returned by the last Commit.
	Root MerkleRoot `cramberry:"3"`
}
