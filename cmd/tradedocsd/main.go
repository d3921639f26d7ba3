package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/tradedocs/internal/app"
	"github.com/joseph-ayodele/tradedocs/internal/async"
	"github.com/joseph-ayodele/tradedocs/internal/common"
	"github.com/joseph-ayodele/tradedocs/internal/core"
	"github.com/joseph-ayodele/tradedocs/internal/ingest"
	svc "github.com/joseph-ayodele/tradedocs/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.DB.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// New documents are matched against stored ones as soon as they land.
	autoMatch := func(ctx context.Context, job async.Job, out *core.Processed, err error) {
		if err != nil || out == nil || out.Duplicate || out.Result.Empty() {
			return
		}
		m, merr := a.Processor.ReconcileWithExisting(ctx, out.Document.ID)
		if merr != nil {
			logger.Info("daemon.match.skipped", "path", job.Path, "reason", merr)
			return
		}
		if m.Comparison == nil {
			logger.Info("daemon.match.below_threshold", "path", job.Path,
				"candidate_id", m.CandidateID, "existence_rate", m.ExistenceRate)
			return
		}
		logger.Info("daemon.match.ok", "path", job.Path, "candidate_id", m.CandidateID,
			"comparison_id", m.Comparison.ID, "match_rate", m.Comparison.MatchRate)
	}
	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.JobTimeout),
		async.WithResultHook(autoMatch),
	)

	if inbox := cfg.Queue.InboxDir; inbox != "" {
		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{inbox},
			InitialScan: true,
			Debounce:    cfg.Queue.Debounce,
			SkipHidden:  true,
		}, logger)
		if err != nil {
			logger.Error("failed to watch inbox", "inbox", inbox, "error", err)
			os.Exit(1)
		}
		go ingest.Forward(ctx, events, queue, logger)
		go func() {
			for err := range errs {
				logger.Warn("inbox watcher error", "error", err)
			}
		}()
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	svc.RegisterDocumentServiceServer(grpcServer, svc.NewDocumentService(a.Processor, a.Exporter, queue, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(svc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	logger.Info("tradedocsd listening", "addr", addr, "inbox", cfg.Queue.InboxDir)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.JobTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
}
