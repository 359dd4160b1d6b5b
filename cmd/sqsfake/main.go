package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/carqueue/carqueue/internal/httputil"
	"github.com/carqueue/carqueue/internal/logging"
	"github.com/carqueue/carqueue/internal/sqsfake"
)

var (
	flagBindAddr            = pflag.String("bind-addr", ":4566", "The server bind address")
	flagBaseURL             = pflag.String("base-url", "http://localhost:4566", "The scheme and host queue urls are formed with")
	flagRegion              = pflag.String("region", sqsfake.DefaultRegion, "The region used in queue arns")
	flagQueues              = pflag.StringSlice("queue", []string{"cars"}, "Queues to create on startup (repeatable)")
	flagStatsInterval       = pflag.Duration("stats-interval", 10*time.Second, "How often queue statistics are logged at debug level")
	flagShutdownGracePeriod = pflag.Duration("shutdown-grace-period", 30*time.Second, "The server shutdown grace period")
	flagLogFormat           = pflag.String("log-format", logging.FormatJSON, "The log format (json|text)")
	flagLogDir              = pflag.String("log-dir", "", "If set, a directory a debug level log file is written to")
	flagLogLevel            = pflag.String("log-level", slog.LevelInfo.String(),
		fmt.Sprintf(
			"The log level (%s>%s>%s>%s) (not case sensitive, from least to most restrictive)",
			slog.LevelDebug.String(),
			slog.LevelInfo.String(),
			slog.LevelWarn.String(),
			slog.LevelError.String(),
		))
)

func main() {
	pflag.Parse()

	//
	// logger setup
	//
	logLeveler, err := logging.ParseLevel(*flagLogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(logging.Options{
		Format: *flagLogFormat,
		Level:  logLeveler,
		Dir:    *flagLogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	slog.SetDefault(log.Logger)
	slog.Info("using log level", slog.String("log_level", logLeveler.Level().String()))

	//
	// server setup
	//
	server := sqsfake.NewServer(
		sqsfake.OptBaseURL(*flagBaseURL),
		sqsfake.OptRegion(*flagRegion),
		sqsfake.OptLogger(log.Logger),
	)
	for _, name := range *flagQueues {
		queue, createErr := sqsfake.NewQueueFromCreateQueueInput(server.Clock(), server.Location(), &sqs.CreateQueueInput{
			QueueName: aws.String(name),
		})
		if createErr != nil {
			slog.Error("invalid startup queue", slog.String("queue_name", name), slog.Any("err", createErr))
			os.Exit(1)
		}
		if _, createErr = server.Queues().AddQueue(queue); createErr != nil {
			slog.Error("unable to create startup queue", slog.String("queue_name", name), slog.Any("err", createErr))
			os.Exit(1)
		}
		slog.Info("created queue with url", slog.String("queue_url", queue.URL))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		sqsfake.Collector{Server: server},
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", httputil.Logged(log.Logger, server))

	httpSrv := &http.Server{
		Addr:    *flagBindAddr,
		Handler: mux,
	}
	group, groupCtx := errgroup.WithContext(context.Background())
	group.Go(func() error {
		t := time.NewTicker(*flagStatsInterval)
		prevTimestamp := time.Now()
		defer t.Stop()
		prevStats := make(map[string]sqsfake.QueueStats)
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-t.C:
				prevStats = printStatistics(server, time.Since(prevTimestamp), prevStats)
				prevTimestamp = time.Now()
			}
		}
	})
	group.Go(func() error {
		slog.Info("server listening", slog.String("addr", *flagBindAddr))
		return httpSrv.ListenAndServe()
	})
	group.Go(func() error {
		updateLogLevel := make(chan os.Signal, 1)
		updateLogLevelSignals := []os.Signal{
			syscall.SIGUSR1,
			syscall.SIGUSR2,
		}
		signal.Notify(updateLogLevel, updateLogLevelSignals...)
		defer signal.Reset(updateLogLevelSignals...)
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case sig := <-updateLogLevel:
				switch sig {
				case syscall.SIGUSR1:
					logLeveler.Set(nextLevel(logLeveler.Level(), +4))
				case syscall.SIGUSR2:
					logLeveler.Set(nextLevel(logLeveler.Level(), -4))
				}
				slog.Info("updated log level", slog.String("log_level", logLeveler.Level().String()))
			}
		}
	})
	group.Go(func() error {
		ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer done()
		select {
		case <-groupCtx.Done():
		case <-ctx.Done():
		}
		shutdownContext, shutdownComplete := context.WithTimeout(context.Background(), *flagShutdownGracePeriod)
		defer shutdownComplete()
		return httpSrv.Shutdown(shutdownContext)
	})
	if err := group.Wait(); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server exiting with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// nextLevel steps the level by delta, clamped to debug..error.
func nextLevel(level slog.Level, delta slog.Level) slog.Level {
	next := level + delta
	if next < slog.LevelDebug {
		return slog.LevelDebug
	}
	if next > slog.LevelError {
		return slog.LevelError
	}
	return next
}

func printStatistics(server *sqsfake.Server, elapsed time.Duration, prev map[string]sqsfake.QueueStats) map[string]sqsfake.QueueStats {
	elapsedSeconds := float64(elapsed) / float64(time.Second)
	newStats := make(map[string]sqsfake.QueueStats)
	for q := range server.Queues().EachQueue() {
		prevStats := prev[q.Name]
		stats := q.Stats()
		slog.Debug(
			"statistics",
			slog.String("queue", q.Name),
			slog.Int64("num_messages", stats.NumMessages),
			slog.Int64("num_messages_ready", stats.NumMessagesReady),
			slog.Int64("num_messages_inflight", stats.NumMessagesInflight),
			slog.Int64("num_messages_delayed", stats.NumMessagesDelayed),
			slog.String("sent_rate", fmt.Sprintf("%0.2f/sec", float64(stats.TotalMessagesSent-prevStats.TotalMessagesSent)/elapsedSeconds)),
			slog.String("received_rate", fmt.Sprintf("%0.2f/sec", float64(stats.TotalMessagesReceived-prevStats.TotalMessagesReceived)/elapsedSeconds)),
			slog.String("deleted_rate", fmt.Sprintf("%0.2f/sec", float64(stats.TotalMessagesDeleted-prevStats.TotalMessagesDeleted)/elapsedSeconds)),
			slog.String("purged_rate", fmt.Sprintf("%0.2f/sec", float64(stats.TotalMessagesPurged-prevStats.TotalMessagesPurged)/elapsedSeconds)),
		)
		newStats[q.Name] = stats
	}
	return newStats
}
