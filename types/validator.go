package types

// KeyType identifies a cryptographic key algorithm.
type KeyType uint8

const (
	KeyTypeEd25519 KeyType = 1
)

// PublicKey represents a validator's cryptographic identity.
type PublicKey struct {
	Type KeyType `cramberry:"1"`
	Data []byte  `cramberry:"2"`
}

// ValidatorAccount is a genesis validator: its key, its voting
// power, and an opaque slot reserved for a validity-predicate
// policy. Accounts are immutable once the roster is created.
type ValidatorAccount struct {
	PubKey      PublicKey `cramberry:"1"`
	VotingPower uint64    `cramberry:"2"`
	VP          []byte    `cramberry:"3"`
}

// InitialParameters is the genesis roster returned by InitChain.
type InitialParameters struct {
	Validators []ValidatorAccount `cramberry:"1"`
}

// TotalVotingPower sums the voting power of the roster.
func (p InitialParameters) TotalVotingPower() uint64 {
	var total uint64
	for _, v := range p.Validators {
		total += v.VotingPower
	}
	return total
}
