//go:build !solution

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"gitlab.com/slon/qsync/syncbench"
)

var errViolations = errors.New("invariant violations detected")

type options struct {
	config   string
	listen   string
	format   string
	logLevel string
	dev      bool
}

func (o *options) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.config, "config", "c", "", "путь к .yaml файлу со сценариями")
	fs.StringVar(&o.listen, "listen", "", "адрес для /metrics и /healthz; перекрывает listen из конфига")
	fs.StringVar(&o.format, "format", syncbench.FormatText, "формат отчёта (text, yaml)")
	fs.StringVar(&o.logLevel, "log-level", "info", "уровень логирования (debug, info, warn, error)")
	fs.BoolVar(&o.dev, "dev", false, "человекочитаемые логи")
}

func newLogger(o *options) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(o.logLevel)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if o.dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	return cfg.Build()
}

func newRootCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:           "syncbench",
		Short:         "Stress scenarios for the queued synchronizers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cc *cobra.Command, _ []string) error {
			return run(cc.Context(), cc, &o)
		},
	}
	o.bind(cmd.Flags())
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagFilename("config", "yaml", "yml"); err != nil {
		panic(err)
	}
	return cmd
}

func run(ctx context.Context, cc *cobra.Command, o *options) error {
	logger, err := newLogger(o)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	config, err := syncbench.LoadConfig(o.config)
	if err != nil {
		return err
	}
	if o.listen != "" {
		config.Listen = o.listen
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	runner, err := syncbench.NewRunner(logger, reg)
	if err != nil {
		return err
	}
	logger.Info("starting", zap.String("run_id", runner.RunID()), zap.Int("scenarios", len(config.Scenarios)))

	if config.Listen != "" {
		srv := &http.Server{
			Addr:              config.Listen,
			Handler:           syncbench.NewRouter(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer shutdown(srv, logger)
	}

	reports := make([]syncbench.Report, 0, len(config.Scenarios))
	failed := false
	for _, sc := range config.Scenarios {
		rep, err := runner.Run(ctx, sc)
		if err != nil {
			return err
		}
		reports = append(reports, rep)
		failed = failed || !rep.OK()
	}

	if err := syncbench.WriteReports(cc.OutOrStdout(), o.format, reports); err != nil {
		return err
	}
	if failed {
		return errViolations
	}
	return nil
}

func shutdown(srv *http.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
