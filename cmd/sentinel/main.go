package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/pipeline"
	"SignalSentinel/internal/scheduler"
)

// analysisOutput is the JSON printed by the analyze command.
type analysisOutput struct {
	Ticker    string           `json:"ticker"`
	Freshness model.Freshness  `json:"freshness,omitempty"`
	Success   bool             `json:"success"`
	Reason    string           `json:"reason,omitempty"`
	Error     string           `json:"error,omitempty"`
	ElapsedMS int64            `json:"elapsed_ms"`
	RecordID  string           `json:"record_id,omitempty"`
	Result    *pipeline.Result `json:"result,omitempty"`
}

func newAnalysisOutput(r scheduler.TickerResult) analysisOutput {
	out := analysisOutput{
		Ticker:    r.Ticker,
		Freshness: r.Freshness,
		Success:   r.Outcome.Success,
		Reason:    r.Outcome.Reason(),
		ElapsedMS: r.Outcome.Elapsed.Milliseconds(),
		RecordID:  r.RecordID,
		Result:    r.Outcome.Result,
	}
	if r.Outcome.Err != nil {
		out.Error = r.Outcome.Err.Error()
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func profileFromFlags(cmd *cli.Command) optional.Option[model.UserProfile] {
	names := []string{"profile-tolerance", "allow-high-volatility", "allow-penny-stocks", "max-position-pct", "max-capital"}
	for _, n := range names {
		if cmd.IsSet(n) {
			return optional.Some(model.UserProfile{
				RiskTolerance:       model.RiskTolerance(cmd.String("profile-tolerance")),
				AllowHighVolatility: cmd.Bool("allow-high-volatility"),
				AllowPennyStocks:    cmd.Bool("allow-penny-stocks"),
				MaxPositionPct:      cmd.Float("max-position-pct"),
				MaxCapital:          cmd.Float("max-capital"),
			})
		}
	}
	return optional.None[model.UserProfile]()
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cfg, "stderr")
	if err != nil {
		return err
	}
	defer rt.Close()

	req := model.AnalysisRequest{
		Ticker:        strings.ToUpper(strings.TrimSpace(cmd.String("ticker"))),
		TimeHorizon:   model.TimeHorizon(cmd.String("horizon")),
		RiskTolerance: model.RiskTolerance(cmd.String("tolerance")),
		LookbackDays:  int(cmd.Int("lookback")),
	}
	res := rt.scheduler.Analyze(ctx, req, profileFromFlags(cmd))
	if err := writeJSON(cmd.Root().Writer, newAnalysisOutput(res)); err != nil {
		return err
	}
	if !res.Outcome.Success {
		return cli.Exit("", 2)
	}
	return nil
}

func historyAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cfg, "stderr")
	if err != nil {
		return err
	}
	defer rt.Close()

	records, err := rt.recorder.History(ctx, strings.ToUpper(cmd.String("ticker")), int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	return writeJSON(cmd.Root().Writer, records)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, "stdout")
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.scheduler.Register(); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	rt.scheduler.Start()
	defer rt.scheduler.Stop()

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", rt.metrics.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				rt.log.Error("metrics server", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		rt.log.Info("metrics endpoint listening", zap.String("addr", cfg.Metrics.Addr))
	}

	if cmd.Bool("run-now") {
		rt.log.Info("run-now enabled, analysing watchlist")
		go func() {
			if _, err := rt.scheduler.RunNow(ctx); err != nil {
				rt.log.Warn("initial run aborted", zap.Error(err))
			}
		}()
	}

	rt.log.Info("SignalSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	rt.log.Info("shutdown signal received, stopping...")
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "sentinel",
		Usage: "Rule-based technical analysis signals with risk gating",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "configs/config.yaml",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Collect and analyze one ticker, printing the outcome as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ticker", Aliases: []string{"t"}, Usage: "Ticker symbol", Required: true},
					&cli.StringFlag{Name: "horizon", Usage: "short_term, medium_term or long_term", Value: string(model.HorizonMediumTerm)},
					&cli.StringFlag{Name: "tolerance", Usage: "conservative, moderate or aggressive", Value: string(model.ToleranceModerate)},
					&cli.IntFlag{Name: "lookback", Usage: "Lookback window in days (30-365)", Value: 180},
					&cli.StringFlag{Name: "profile-tolerance", Usage: "User profile risk tolerance"},
					&cli.BoolFlag{Name: "allow-high-volatility", Usage: "Profile accepts high volatility"},
					&cli.BoolFlag{Name: "allow-penny-stocks", Usage: "Profile accepts low-priced instruments"},
					&cli.FloatFlag{Name: "max-position-pct", Usage: "Profile maximum position size, percent of capital"},
					&cli.FloatFlag{Name: "max-capital", Usage: "Profile capital limit"},
				},
				Action: analyzeAction,
			},
			{
				Name:  "history",
				Usage: "Print recorded analyses for a ticker as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ticker", Aliases: []string{"t"}, Usage: "Ticker symbol", Required: true},
					&cli.IntFlag{Name: "limit", Usage: "Maximum records, newest first", Value: 20},
				},
				Action: historyAction,
			},
			{
				Name:  "serve",
				Usage: "Run the scheduled watchlist analysis and expose metrics",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "run-now", Usage: "Analyse the watchlist once at startup", Sources: cli.EnvVars("RUN_ON_START")},
				},
				Action: serveAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
