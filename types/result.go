package types

// Result codes carried by TxResult. 0 = success.
const (
	CodeOK             uint32 = 0
	CodeDecode         uint32 = 1
	CodeNotIncremental uint32 = 2
)

// TxResult is the transport form of a mempool or apply verdict.
// Rejections keep enough detail for the client to rebuild the
// typed error on its side.
type TxResult struct {
	Code uint32 `cramberry:"1"`
	// Human-readable reason (debugging only).
	Info string `cramberry:"2"`
	// Offending raw bytes, set for decode failures.
	Raw []byte `cramberry:"3"`
	// Expected and received counter values, set for
	// non-incremental rejections.
	Expected uint64 `cramberry:"4"`
	Got      uint64 `cramberry:"5"`
}

// OK returns true if the transaction was accepted.
func (r TxResult) OK() bool { return r.Code == CodeOK }

// BlockResult is the outcome of finalizing one block: every
// transaction applied in order, followed by a single commit.
type BlockResult struct {
	Height uint64 `cramberry:"1"`
	// Per-transaction results, in block order.
	TxResults []TxResult `cramberry:"2"`
	// Root returned by the commit that closed the block.
	Root MerkleRoot `cramberry:"3"`
}
