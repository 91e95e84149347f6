// Package txcodec decodes counter transactions.
//
// Transaction format: 8 bytes, big-endian uint64 counter value.
package txcodec

import (
	"encoding/binary"
	"fmt"

	"github.com/blockberries/ledger/types"
)

// Size is the exact encoded length of a transaction.
const Size = 8

// Transaction is a decoded counter transaction.
type Transaction struct {
	Count uint64
}

// Decode parses raw transaction bytes.
func Decode(tx types.Tx) (Transaction, error) {
	if len(tx) != Size {
		return Transaction{}, fmt.Errorf("tx must be %d bytes, got %d", Size, len(tx))
	}
	return Transaction{Count: binary.BigEndian.Uint64(tx)}, nil
}

// Encode serializes a transaction.
func Encode(t Transaction) types.Tx {
	buf := make([]byte, Size)
	binary.BigEndian.PutUint64(buf, t.Count)
	return buf
}

// CountTx creates a transaction carrying the given counter value.
func CountTx(n uint64) types.Tx {
	return Encode(Transaction{Count: n})
}
