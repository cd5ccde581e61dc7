package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	grpc_adapter "github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/out/eventlog"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/out/journal"
	memory_adapter "github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-bank/internal/config"
	"github.com/JoeShih716/go-mem-bank/internal/metrics"
	"github.com/JoeShih716/go-mem-bank/pkg/logger"
	"github.com/JoeShih716/go-mem-bank/pkg/mysql"
	pb "github.com/JoeShih716/go-mem-bank/proto"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	zl.Info("server exited")
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	bankCfg, err := cfg.ToBankConfig()
	if err != nil {
		return fmt.Errorf("bank config: %w", err)
	}
	admins, err := cfg.AdminAddresses()
	if err != nil {
		return err
	}

	// 2. 外部協作者 (記憶體版價格來源、保管與權限)
	clk := clock.New()
	feed := memory_adapter.NewFeed(clk)
	for _, f := range cfg.Feeds {
		answer, err := f.Answer()
		if err != nil {
			return err
		}
		feed.Publish(f.Handle, answer, f.Decimals)
	}
	policy := memory_adapter.NewPolicy(admins...)
	custody := memory_adapter.NewCustody()

	// 3. 指標
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// 4. 事件接收者: audit log 一定有，MySQL 有設定才接
	sinks := []usecase.EventSink{eventlog.NewSink(zl)}
	if cfg.MySQL.Enabled() {
		dbClient, err := mysql.NewClient(ctx, cfg.MySQL, zl)
		if err != nil {
			return fmt.Errorf("connect mysql: %w", err)
		}
		defer dbClient.Close()
		store := mysql_adapter.NewEventStore(dbClient)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate event store: %w", err)
		}
		sinks = append(sinks, store)
		zl.Info("mysql event store enabled", zap.String("host", cfg.MySQL.Host))
	}

	// 5. Journal 與帳本 (建構時重放)
	j, err := journal.Open(cfg.WAL.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() {
		if err := j.Close(); err != nil {
			zl.Error("close journal", zap.Error(err))
		}
	}()

	bank, err := usecase.NewBank(bankCfg, feed, custody, policy,
		usecase.WithClock(clk),
		usecase.WithLogger(zl.Named("bank")),
		usecase.WithJournal(j),
		usecase.WithEventSinks(sinks...),
		usecase.WithRecorder(recorder),
	)
	if err != nil {
		return fmt.Errorf("init bank: %w", err)
	}

	// 6. gRPC Server
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPC.Addr, err)
	}
	s := grpc.NewServer(grpc.UnaryInterceptor(grpc_adapter.UnaryLogger(zl.Named("rpc"))))
	pb.RegisterLedgerServiceServer(s, grpc_adapter.NewGrpcServer(bank,
		grpc_adapter.WithPricePublisher(feed, policy),
		grpc_adapter.WithServerLogger(zl.Named("rpc")),
	))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("starting gRPC server", zap.String("addr", cfg.GRPC.Addr))
		return s.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down gRPC server")
		s.GracefulStop()
		return nil
	})

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			zl.Info("starting metrics server", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
