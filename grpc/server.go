package ledgergrpc

import (
	"context"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/blockberries/ledger"
	"github.com/blockberries/ledger/server"
	"github.com/blockberries/ledger/types"
)

// Compile-time interface check.
var _ ShellServiceServer = (*GRPCServer)(nil)

// GRPCServer exposes a ledger application as a gRPC service.
// No type conversion is needed: domain types are serialized
// directly via cramberry.
type GRPCServer struct {
	srv *server.Server
}

// NewGRPCServer creates a gRPC server wrapping the given application.
func NewGRPCServer(app ledger.Application, log *zap.Logger) *GRPCServer {
	return &GRPCServer{
		srv: server.New(app, log),
	}
}

// Register adds the shell service to a gRPC server.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterShellServiceServer(gs, s)
}

// ServerOptions returns the options a gRPC server hosting the shell
// service needs, followed by extra.
func ServerOptions(extra ...grpc.ServerOption) []grpc.ServerOption {
	return append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
	}, extra...)
}

// Serve starts a gRPC server on the given listener and blocks until
// it stops.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(ServerOptions(opts...)...)
	s.Register(gs)
	return gs.Serve(lis)
}

// Server returns the underlying server for advanced use.
func (s *GRPCServer) Server() *server.Server {
	return s.srv
}

func (s *GRPCServer) InitChain(ctx context.Context, _ *InitChainRequest) (*types.InitialParameters, error) {
	params, err := s.srv.InitChain(ctx)
	if err != nil {
		return nil, err
	}
	return &params, nil
}

func (s *GRPCServer) Resume(ctx context.Context, _ *ResumeRequest) (*types.AppInfo, error) {
	info, err := s.srv.Resume(ctx)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *GRPCServer) Info(ctx context.Context, _ *InfoRequest) (*types.AppInfo, error) {
	info, err := s.srv.Info(ctx)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *GRPCServer) MempoolValidate(ctx context.Context, req *MempoolValidateRequest) (*types.TxResult, error) {
	return verdict(s.srv.MempoolValidate(ctx, req.Tx, req.Kind))
}

func (s *GRPCServer) ApplyTx(ctx context.Context, req *ApplyTxRequest) (*types.TxResult, error) {
	return verdict(s.srv.ApplyTx(ctx, req.Tx))
}

func (s *GRPCServer) Commit(ctx context.Context, _ *CommitRequest) (*CommitResponse, error) {
	root, err := s.srv.Commit(ctx)
	if err != nil {
		return nil, err
	}
	return &CommitResponse{Root: root}, nil
}

func (s *GRPCServer) FinalizeBlock(ctx context.Context, req *FinalizeBlockRequest) (*types.BlockResult, error) {
	res, err := s.srv.FinalizeBlock(ctx, req.Txs)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *GRPCServer) Query(ctx context.Context, req *types.StateQuery) (*types.StateQueryResult, error) {
	result, err := s.srv.Query(ctx, *req)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// verdict turns a transaction rejection into a successful RPC carrying
// the rejection. Other errors fail the RPC.
func verdict(err error) (*types.TxResult, error) {
	r, ok := ledger.ResultFromError(err)
	if !ok {
		return nil, err
	}
	return &r, nil
}
