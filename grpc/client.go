package ledgergrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/ledger"
	"github.com/blockberries/ledger/server"
	"github.com/blockberries/ledger/types"
)

// Compile-time interface check.
var _ ledger.Connection = (*Client)(nil)

// Client implements ledger.Connection for a remote shell over gRPC
// using cramberry serialization. Rejections come back as the same
// typed errors the shell returns in-process.
type Client struct {
	cc    *grpc.ClientConn
	guard *server.LifecycleGuard
}

// Dial connects to a remote shell.
func Dial(_ context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(Codec{}),
		grpc.MaxCallRecvMsgSize(MaxMessageSize),
		grpc.MaxCallSendMsgSize(MaxMessageSize),
	))
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("ledger client: dial %s: %w", addr, err)
	}
	return &Client{
		cc:    cc,
		guard: server.NewLifecycleGuard(),
	}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

func (c *Client) InitChain(ctx context.Context) (types.InitialParameters, error) {
	c.guard.AcquireHandshake()

	resp := new(types.InitialParameters)
	if err := c.cc.Invoke(ctx, fullMethod("InitChain"), &InitChainRequest{}, resp); err != nil {
		c.guard.FailHandshake()
		return types.InitialParameters{}, err
	}
	c.guard.CompleteHandshake(0)
	return *resp, nil
}

func (c *Client) Resume(ctx context.Context) (types.AppInfo, error) {
	c.guard.AcquireHandshake()

	resp := new(types.AppInfo)
	if err := c.cc.Invoke(ctx, fullMethod("Resume"), &ResumeRequest{}, resp); err != nil {
		c.guard.FailHandshake()
		return types.AppInfo{}, err
	}
	c.guard.CompleteHandshake(resp.Height)
	return *resp, nil
}

func (c *Client) Info(ctx context.Context) (types.AppInfo, error) {
	c.guard.CheckConcurrent()

	resp := new(types.AppInfo)
	if err := c.cc.Invoke(ctx, fullMethod("Info"), &InfoRequest{}, resp); err != nil {
		return types.AppInfo{}, err
	}
	return *resp, nil
}

func (c *Client) MempoolValidate(ctx context.Context, tx types.Tx, kind types.MempoolTxType) error {
	c.guard.CheckConcurrent()

	req := &MempoolValidateRequest{Tx: tx, Kind: kind}
	resp := new(types.TxResult)
	if err := c.cc.Invoke(ctx, fullMethod("MempoolValidate"), req, resp); err != nil {
		return err
	}
	return ledger.ErrorFromResult(*resp)
}

func (c *Client) ApplyTx(ctx context.Context, tx types.Tx) error {
	c.guard.AcquireApply()

	resp := new(types.TxResult)
	if err := c.cc.Invoke(ctx, fullMethod("ApplyTx"), &ApplyTxRequest{Tx: tx}, resp); err != nil {
		c.guard.FailApply()
		return err
	}
	if err := ledger.ErrorFromResult(*resp); err != nil {
		c.guard.FailApply()
		return err
	}
	c.guard.CompleteApply()
	return nil
}

func (c *Client) Commit(ctx context.Context) (types.MerkleRoot, error) {
	c.guard.AcquireCommit()

	resp := new(CommitResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Commit"), &CommitRequest{}, resp); err != nil {
		c.guard.FailCommit()
		return types.MerkleRoot{}, err
	}
	c.guard.CompleteCommit()
	return resp.Root, nil
}

func (c *Client) FinalizeBlock(ctx context.Context, txs []types.Tx) (types.BlockResult, error) {
	c.guard.AcquireFinalize()

	resp := new(types.BlockResult)
	if err := c.cc.Invoke(ctx, fullMethod("FinalizeBlock"), &FinalizeBlockRequest{Txs: txs}, resp); err != nil {
		c.guard.FailCommit()
		return types.BlockResult{}, err
	}
	c.guard.CompleteCommit()
	return *resp, nil
}

func (c *Client) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	c.guard.CheckConcurrent()

	resp := new(types.StateQueryResult)
	if err := c.cc.Invoke(ctx, fullMethod("Query"), &req, resp); err != nil {
		return types.StateQueryResult{}, err
	}
	return *resp, nil
}

// Height returns the last height committed through this client.
func (c *Client) Height() uint64 {
	return c.guard.Height()
}
