package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/game"
)

// runFlags are shared by the run and headless commands.
type runFlags struct {
	configPath  string
	seed        int64
	outputDir   string
	logStats    bool
	statsWindow float64
	tour        bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "World seed (0 = config value)")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
	cmd.Flags().BoolVar(&f.logStats, "log-stats", false, "Output stats via slog")
	cmd.Flags().Float64Var(&f.statsWindow, "stats-window", 0, "Stats window size in seconds (0 = use config)")
}

// newGame loads the config and builds a game from the flags.
func (f *runFlags) newGame(headless bool) (*game.Game, *config.Config, error) {
	if err := config.Init(f.configPath); err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()

	opts := game.DefaultOptions()
	opts.Seed = f.seed
	opts.LogStats = f.logStats
	opts.StatsWindowSec = f.statsWindow
	opts.OutputDir = f.outputDir
	opts.Tour = f.tour
	opts.Headless = headless

	g, err := game.New(cfg, opts)
	if err != nil {
		return nil, nil, err
	}
	return g, cfg, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "citywalk",
		Short:        "Endless streamed city with tiered pedestrian crowds",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(headlessCmd())
	rootCmd.AddCommand(tileCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a window and walk the city",
		RunE: func(_ *cobra.Command, _ []string) error {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
			g, cfg, err := f.newGame(false)
			if err != nil {
				return err
			}
			defer g.Close()
			runWindow(g, cfg)
			g.LogSummary()
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.tour, "tour", false, "Drive the observer along the roads")
	return cmd
}

func headlessCmd() *cobra.Command {
	var (
		f          runFlags
		maxSeconds float64
		dt         float64
	)
	cmd := &cobra.Command{
		Use:   "headless",
		Short: "Run the toured simulation without graphics",
		RunE: func(_ *cobra.Command, _ []string) error {
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
			if dt <= 0 {
				return fmt.Errorf("dt must be positive, got %v", dt)
			}
			f.tour = true
			g, _, err := f.newGame(true)
			if err != nil {
				return err
			}
			defer g.Close()

			slog.Info("starting headless simulation",
				"seed", g.Config().World.Seed,
				"max_seconds", maxSeconds,
				"dt", dt,
			)
			start := time.Now()
			for maxSeconds <= 0 || g.SimTime() < maxSeconds {
				g.StepTour(dt)
			}
			slog.Info("max sim time reached", "sim_time", g.SimTime(), "wall", time.Since(start).String())
			g.LogSummary()
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().Float64Var(&maxSeconds, "max-seconds", 60, "Stop after N simulated seconds (0 = unlimited)")
	cmd.Flags().Float64Var(&dt, "dt", 1.0/60, "Fixed frame delta in seconds")
	return cmd
}
