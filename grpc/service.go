package ledgergrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/ledger/types"
)

const serviceName = "ledger.v1.ShellService"

// ShellServiceServer is the server-side interface for the ledger
// gRPC service.
type ShellServiceServer interface {
	InitChain(context.Context, *InitChainRequest) (*types.InitialParameters, error)
	Resume(context.Context, *ResumeRequest) (*types.AppInfo, error)
	Info(context.Context, *InfoRequest) (*types.AppInfo, error)
	MempoolValidate(context.Context, *MempoolValidateRequest) (*types.TxResult, error)
	ApplyTx(context.Context, *ApplyTxRequest) (*types.TxResult, error)
	Commit(context.Context, *CommitRequest) (*CommitResponse, error)
	FinalizeBlock(context.Context, *FinalizeBlockRequest) (*types.BlockResult, error)
	Query(context.Context, *types.StateQuery) (*types.StateQueryResult, error)
}

// RegisterShellServiceServer registers the ShellServiceServer on a
// gRPC server.
func RegisterShellServiceServer(s *grpc.Server, srv ShellServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// unary builds a method handler decoding a fresh Req and dispatching
// to call.
func unary[Req any, Resp any](call func(ShellServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		return call(srv.(ShellServiceServer), ctx, req)
	}
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// serviceDesc is the manual gRPC service descriptor for the shell.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ShellServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "InitChain", Handler: unary(ShellServiceServer.InitChain)},
		{MethodName: "Resume", Handler: unary(ShellServiceServer.Resume)},
		{MethodName: "Info", Handler: unary(ShellServiceServer.Info)},
		{MethodName: "MempoolValidate", Handler: unary(ShellServiceServer.MempoolValidate)},
		{MethodName: "ApplyTx", Handler: unary(ShellServiceServer.ApplyTx)},
		{MethodName: "Commit", Handler: unary(ShellServiceServer.Commit)},
		{MethodName: "FinalizeBlock", Handler: unary(ShellServiceServer.FinalizeBlock)},
		{MethodName: "Query", Handler: unary(ShellServiceServer.Query)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/service.cram",
}
