package types

import "fmt"

// MempoolTxType tells the application whether a transaction
// is being seen for the first time or is being re-validated.
type MempoolTxType uint8

const (
	// NewTransaction indicates the transaction has not been
	// validated by this node before.
	NewTransaction MempoolTxType = 1
	// RecheckTransaction indicates the transaction was validated at
	// some previous height and is being re-checked after state changed.
	RecheckTransaction MempoolTxType = 2
)

func (k MempoolTxType) String() string {
	switch k {
	case NewTransaction:
		return "new"
	case RecheckTransaction:
		return "recheck"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}
