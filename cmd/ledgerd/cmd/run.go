package cmd

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	ledgergrpc "github.com/blockberries/ledger/grpc"
	"github.com/blockberries/ledger/logging"
	"github.com/blockberries/ledger/metrics"
	"github.com/blockberries/ledger/shell"
	"github.com/blockberries/ledger/store"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the ledger node",
	Long:  `Opens the state store and serves the shell to the consensus engine until interrupted.`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := store.NewBolt(cfg.DB)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("Failed to close state store.", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := shell.New(st,
		shell.WithLogger(log.Named("shell")),
		shell.WithMetrics(metrics.New(reg)),
		shell.WithGenesisConfig(cfg.Chain))
	if err != nil {
		return err
	}

	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		ms := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := ms.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Metrics server stopped.", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Shutdown(sctx)
		}()
	}

	lis, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", cfg.Server.ListenAddr)
	}
	gs := grpc.NewServer(ledgergrpc.ServerOptions()...)
	ledgergrpc.NewGRPCServer(app, log.Named("server")).Register(gs)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down.")
		gs.GracefulStop()
	}()

	info, _ := app.Info(ctx)
	log.Info("Serving shell.",
		zap.String("addr", lis.Addr().String()),
		zap.String("metrics", cfg.Server.MetricsAddr),
		zap.Uint64("height", info.Height),
		zap.Uint64("count", info.Count))
	return gs.Serve(lis)
}
