package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridsoup/config"
	"github.com/pthm-cable/gridsoup/game"
	"github.com/pthm-cable/gridsoup/stream"
	"github.com/pthm-cable/gridsoup/systems"
	"github.com/pthm-cable/gridsoup/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = use config)")
	streamAddr := flag.String("stream-addr", "", "Serve snapshots over WebSocket on this address (empty = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *maxTicks > 0 {
		cfg.Termination.MaxTicks = *maxTicks
	}
	if *streamAddr != "" {
		cfg.Stream.Addr = *streamAddr
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, err := game.NewGameWithOptions(game.Options{
		Config:    cfg,
		Seed:      rngSeed,
		OutputDir: *outputDir,
		LogStats:  *logStats,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer g.Close()

	if cfg.Stream.Addr != "" {
		srv := startStream(ctx, cfg, g)
		defer shutdownStream(srv)
	}

	if *headless {
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"max_ticks", cfg.Termination.MaxTicks,
		)
		for !g.IsFinished() && ctx.Err() == nil {
			g.Step()
		}
		slog.Info("simulation finished", "tick", g.Tick())
		return
	}

	w, h := ui.WindowSize(cfg)
	rl.InitWindow(w, h, "Grid Soup")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	ui.NewViewer(g, cfg.Termination.MaxTicks).Run()
}

// startStream serves snapshots over WebSocket until ctx is cancelled.
func startStream(ctx context.Context, cfg *config.Config, g *game.Game) *http.Server {
	b := stream.NewBroadcaster(cfg.Stream.SendBuffer)
	b.Dirt = cfg.Population.Cleaners > 0
	go b.Run(ctx)
	g.AddObserver(func(s systems.Snapshot) { b.Publish(s) })

	mux := http.NewServeMux()
	mux.Handle(cfg.Stream.Path, b)
	srv := &http.Server{Addr: cfg.Stream.Addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("stream server stopped", "error", err)
		}
	}()
	slog.Info("streaming snapshots", "addr", cfg.Stream.Addr, "path", cfg.Stream.Path)
	return srv
}

func shutdownStream(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("stream shutdown", "error", err)
	}
}
