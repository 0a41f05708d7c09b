// Command ironbookd wires an ironbook matching core to a small CLI: a
// signal-handling run loop plus cobra/viper for flags and config.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	metricsexp "github.com/VictoriaMetrics/metrics"

	"github.com/axiomx/ironbook/internal/book"
	"github.com/axiomx/ironbook/internal/config"
	"github.com/axiomx/ironbook/internal/eventfile"
	"github.com/axiomx/ironbook/internal/eventlog"
	"github.com/axiomx/ironbook/internal/metrics"
	"github.com/axiomx/ironbook/internal/queue"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "ironbookd",
		Short: "ironbook single-instrument matching core",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to an optional YAML config file")
	root.AddCommand(runCmd(), replayCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cfg config.Config) (*queue.Queue, *eventlog.Logger, func()) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	bookID := uuid.New()
	log := eventlog.New(os.Stdout, bookID, level)
	sink := metrics.NewSink(bookID.String())
	b := book.New(bookID, log, sink)
	q := queue.New(b)

	var shutdownMetrics func()
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metricsexp.WritePrometheus(w, true)
		})
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() { _ = srv.ListenAndServe() }()
		shutdownMetrics = func() { _ = srv.Close() }
	}

	return q, log, func() {
		if shutdownMetrics != nil {
			shutdownMetrics()
		}
		q.Close()
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "start an empty book and block until a termination signal arrives",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			_, log, shutdown := setup(cfg)
			defer shutdown()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			log.Record(0, eventlog.Accepted, "ironbook started")
			<-ctx.Done()
			return nil
		},
	}
}

func replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <event-file>",
		Short: "feed a text event file through the queue and report the matching result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			q, _, shutdown := setup(cfg)
			defer shutdown()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			events, expectation, err := eventfile.Parse(f)
			if err != nil {
				// A malformed event file is a programmer error: it fails
				// the process rather than returning a business rejection.
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}

			for _, ev := range events {
				switch ev.Kind {
				case eventfile.KindAdd:
					q.EnqueueAdd(ev.ID, ev.Type, ev.Side, ev.Price, ev.Qty)
				case eventfile.KindModify:
					q.EnqueueModify(ev.ID, ev.Side, ev.Price, ev.Qty)
				case eventfile.KindCancel:
					q.EnqueueCancel(ev.ID)
				}
			}

			total := q.Size()
			bidLevels, askLevels := q.BidAskLevels()

			fmt.Printf("got:      (%d, %d, %d)\n", total, bidLevels, askLevels)
			fmt.Printf("expected: (%d, %d, %d)\n", expectation.TotalOrders, expectation.BidLevels, expectation.AskLevels)
			if total != expectation.TotalOrders || bidLevels != expectation.BidLevels || askLevels != expectation.AskLevels {
				os.Exit(1)
			}
			return nil
		},
	}
}
