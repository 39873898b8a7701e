package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tradesim/matchcore/config"
	"github.com/tradesim/matchcore/pkg/engine"
	"github.com/tradesim/matchcore/pkg/gateway"
	redis_wrapper "github.com/tradesim/matchcore/pkg/infra/redis"
	"github.com/tradesim/matchcore/pkg/journal"
	"github.com/tradesim/matchcore/pkg/logging"
	"github.com/tradesim/matchcore/pkg/marketdata"
	"github.com/tradesim/matchcore/pkg/publisher"
	"github.com/tradesim/matchcore/pkg/risk"
)

func main() {
	configFile := flag.String("config", "./config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Engine == nil || cfg.Gateway == nil {
		fmt.Fprintln(os.Stderr, "config must define engine and gateway sections")
		os.Exit(1)
	}

	flush, err := logging.Init(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	go func() {
		_ = http.ListenAndServe("localhost:6060", nil)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	gate := risk.NewGate(cfg.Engine.MaxOrderSize, cfg.Engine.MaxPosition)
	pub := publisher.New()

	if cfg.Journal != nil && cfg.Journal.Path != "" {
		jnl, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			zap.L().Fatal("open journal", zap.Error(err))
		}
		defer jnl.Close()
		pub.Attach(jnl)
	}

	if cfg.Redis != nil && cfg.Redis.ConnectionURL != "" {
		client, err := redis_wrapper.InitRedisWithBackoff(cfg.Redis)
		if err != nil {
			zap.L().Fatal("connect redis", zap.Error(err))
		}
		stream := publisher.NewTradeStream(client, cfg.Redis.TradeStream)
		defer stream.Close()
		pub.Attach(stream)
	}

	eng := engine.NewEngine(gate, pub)
	seq := engine.NewSequencer(eng, cfg.Engine.SequencerCapacity)
	go seq.Run()

	if cfg.MarketData != nil {
		feeder := marketdata.NewFeeder(seq, cfg.MarketData.Instrument,
			time.Duration(cfg.MarketData.IntervalMs)*time.Millisecond, cfg.MarketData.StartPrice)
		go feeder.Run(ctx)
	}

	tcpServer := gateway.NewTCPServer(seq, cfg.Gateway.ListenAddr, cfg.Gateway.DefaultInstrument)
	go func() {
		if err := tcpServer.Run(ctx); err != nil {
			zap.L().Error("order gateway failed", zap.Error(err))
		}
	}()

	// nil when the console is disabled; receiving on a nil channel blocks,
	// leaving signals as the only shutdown trigger.
	var consoleDone chan struct{}
	if cfg.Gateway.EnableConsole {
		consoleDone = make(chan struct{})
		console := gateway.NewConsole(seq, os.Stdin, cfg.Gateway.DefaultInstrument)
		go func() {
			defer close(consoleDone)
			if err := console.Run(); err != nil {
				zap.L().Warn("console gateway exited", zap.Error(err))
			}
		}()
	}

	if cfg.Metrics != nil {
		metricsTicker := time.NewTicker(time.Duration(cfg.Metrics.FlushIntervalMs) * time.Millisecond)
		defer metricsTicker.Stop()
		go func() {
			for range metricsTicker.C {
				if err := pub.WriteMetricsCSV(cfg.Metrics.CSVPath); err != nil {
					zap.L().Warn("write metrics csv failed", zap.Error(err))
				}
			}
		}()
	}

	zap.L().Info("matchcore started", zap.String("service", cfg.ServiceName))

	// Run until a signal arrives or the console reaches EOF.
	select {
	case <-sigs:
		zap.L().Info("signal received, shutting down")
	case <-consoleDone:
		zap.L().Info("console closed, shutting down")
	}

	cancel()
	seq.Stop()
	if cfg.Metrics != nil {
		if err := pub.WriteMetricsCSV(cfg.Metrics.CSVPath); err != nil {
			zap.L().Warn("final metrics flush failed", zap.Error(err))
		}
	}
	zap.L().Info("exited cleanly")
}
