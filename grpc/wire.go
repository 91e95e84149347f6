package ledgergrpc

import "github.com/blockberries/ledger/types"

// Transport-specific wrapper types for RPC methods whose interface
// signatures don't map to a single request/response struct.
// These are used only for gRPC serialization boundaries.

// InitChainRequest is the (empty) request for Application.InitChain.
type InitChainRequest struct{}

// ResumeRequest is the (empty) request for Connection.Resume.
type ResumeRequest struct{}

// InfoRequest is the (empty) request for Application.Info.
type InfoRequest struct{}

// MempoolValidateRequest wraps the parameters for
// Application.MempoolValidate.
type MempoolValidateRequest struct {
	Tx   types.Tx            `cramberry:"1"`
	Kind types.MempoolTxType `cramberry:"2"`
}

// ApplyTxRequest wraps the parameter for Application.ApplyTx.
type ApplyTxRequest struct {
	Tx types.Tx `cramberry:"1"`
}

// CommitRequest is the (empty) request for Application.Commit.
type CommitRequest struct{}

// CommitResponse wraps the return value of Application.Commit.
type CommitResponse struct {
	Root types.MerkleRoot `cramberry:"1"`
}

// FinalizeBlockRequest wraps the parameter for
// Connection.FinalizeBlock.
type FinalizeBlockRequest struct {
	Txs []types.Tx `cramberry:"1"`
}
