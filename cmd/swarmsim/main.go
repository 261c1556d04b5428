// Command swarmsim runs the UAV swarm grid coordinator: multi-agent
// pathfinding with simulated lossy communication.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dutch-casa/uav-swarm-simulator/internal/mapfile"
	"github.com/dutch-casa/uav-swarm-simulator/internal/metrics"
	"github.com/dutch-casa/uav-swarm-simulator/internal/netsim"
	"github.com/dutch-casa/uav-swarm-simulator/internal/scenario"
	"github.com/dutch-casa/uav-swarm-simulator/internal/swarm"
	"github.com/dutch-casa/uav-swarm-simulator/internal/tracestore"
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

type options struct {
	mapPath      string
	scenarioPath string
	genSize      string
	density      float64
	agents       int
	seed         uint64
	drop         float64
	latencyMs    int
	jitterMs     int
	maxSteps     int
	outTrace     string
	outMetrics   string
	outDB        string
	verbose      bool
	quiet        bool
}

func main() {
	var opts options

	root := &cobra.Command{
		Use:   "swarmsim",
		Short: "Multi-agent grid pathfinding with simulated communication",
		Long: `swarmsim drives a swarm of agents from starts to goals on a 2D grid,
coordinating over a lossy broadcast network. Agents plan with cooperative
A* against a reservation table and replan when predicted conflicts arrive.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := root.Flags()
	flags.StringVar(&opts.mapPath, "map", "", "path to map file")
	flags.StringVar(&opts.scenarioPath, "scenario", "", "path to YAML scenario file (replaces the agent and network flags; exclusive with --map and --gen)")
	flags.StringVar(&opts.genSize, "gen", "", "generate a WxH map from simplex noise instead of loading one (e.g. 32x24)")
	flags.Float64Var(&opts.density, "obstacle-density", 0.2, "obstacle fraction for generated maps")
	flags.IntVar(&opts.agents, "agents", 8, "number of agents")
	flags.Uint64Var(&opts.seed, "seed", 1337, "random seed")
	flags.Float64Var(&opts.drop, "drop", 0.05, "message drop probability [0-1]")
	flags.IntVar(&opts.latencyMs, "latency", 40, "mean network latency (ms)")
	flags.IntVar(&opts.jitterMs, "jitter", 10, "network jitter (ms)")
	flags.IntVar(&opts.maxSteps, "max-steps", 300, "maximum simulation steps")
	flags.StringVar(&opts.outTrace, "out-trace", "", "output trace CSV file")
	flags.StringVar(&opts.outMetrics, "out-metrics", "", "output metrics JSON file")
	flags.StringVar(&opts.outDB, "out-db", "", "persist the run to a SQLite database")
	flags.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")
	flags.BoolVar(&opts.quiet, "quiet", false, "suppress info messages")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	setupLogging(opts)

	if err := validate(opts); err != nil {
		return err
	}

	w, netParams, maxTicks, err := buildWorld(opts)
	if err != nil {
		return err
	}

	network := netsim.New(netParams, opts.seed)

	sim, err := swarm.New(swarm.Config{
		World:    w,
		Network:  network,
		MaxTicks: maxTicks,
		Verbose:  opts.verbose,
	})
	if err != nil {
		return err
	}

	slog.Info("starting simulation",
		"agents", len(w.Agents),
		"seed", opts.seed,
		"drop", netParams.DropProbability,
		"latency_ms", netParams.MeanLatencyMs,
		"jitter_ms", netParams.JitterMs,
	)

	sim.Run()

	snap := sim.Metrics().GetSnapshot()
	if err := saveOutputs(opts, netParams, sim, snap); err != nil {
		return err
	}

	printSummary(snap)

	if snap.CollisionDetected {
		os.Exit(1)
	}
	return nil
}

func setupLogging(opts options) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	} else if opts.quiet {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func validate(opts options) error {
	sources := 0
	for _, set := range []bool{opts.mapPath != "", opts.scenarioPath != "", opts.genSize != ""} {
		if set {
			sources++
		}
	}
	if sources == 0 {
		return fmt.Errorf("one of --map, --scenario or --gen is required")
	}
	if sources > 1 {
		return fmt.Errorf("--map, --scenario and --gen are mutually exclusive")
	}
	if opts.drop < 0 || opts.drop > 1 {
		return fmt.Errorf("drop probability %f out of range [0,1]", opts.drop)
	}
	if opts.agents <= 0 {
		return fmt.Errorf("number of agents must be positive")
	}
	if opts.mapPath != "" {
		if _, err := os.Stat(opts.mapPath); err != nil {
			return fmt.Errorf("map file: %w", err)
		}
	}
	return nil
}

func buildWorld(opts options) (*world.World, netsim.Params, world.Tick, error) {
	params := netsim.Params{
		DropProbability: opts.drop,
		MeanLatencyMs:   opts.latencyMs,
		JitterMs:        opts.jitterMs,
	}

	switch {
	case opts.scenarioPath != "":
		sc, err := scenario.Load(opts.scenarioPath)
		if err != nil {
			return nil, params, 0, err
		}
		w, err := sc.BuildWorld()
		if err != nil {
			return nil, params, 0, err
		}
		maxTicks := sc.MaxTicks
		if maxTicks == 0 {
			maxTicks = opts.maxSteps
		}
		return w, sc.NetworkParams(), maxTicks, nil

	case opts.genSize != "":
		var width, height int
		if _, err := fmt.Sscanf(strings.ToLower(opts.genSize), "%dx%d", &width, &height); err != nil {
			return nil, params, 0, fmt.Errorf("parse --gen %q: want WxH", opts.genSize)
		}
		grid, err := mapfile.Generate(width, height, opts.density, opts.seed)
		if err != nil {
			return nil, params, 0, err
		}
		w, err := world.NewBuilder(opts.seed).
			WithGrid(grid).
			WithRandomAgents(opts.agents).
			Build()
		if err != nil {
			return nil, params, 0, err
		}
		return w, params, opts.maxSteps, nil

	default:
		w, err := mapfile.LoadWorld(opts.mapPath, opts.agents, opts.seed)
		if err != nil {
			return nil, params, 0, err
		}
		return w, params, opts.maxSteps, nil
	}
}

func saveOutputs(opts options, netParams netsim.Params, sim *swarm.Simulation, snap metrics.Snapshot) error {
	if opts.outMetrics != "" {
		if err := metrics.WriteJSON(opts.outMetrics, snap); err != nil {
			return err
		}
		slog.Info("saved metrics", "path", opts.outMetrics)
	}

	if opts.outTrace != "" {
		if err := metrics.WriteCSV(opts.outTrace, sim.Metrics().Traces()); err != nil {
			return err
		}
		slog.Info("saved trace", "path", opts.outTrace)
	}

	if opts.outDB != "" {
		db, err := tracestore.Open(opts.outDB)
		if err != nil {
			return err
		}
		defer db.Close()

		cfg := tracestore.RunConfig{
			Seed:      opts.seed,
			Agents:    len(sim.World().Agents()),
			Drop:      netParams.DropProbability,
			LatencyMs: netParams.MeanLatencyMs,
			JitterMs:  netParams.JitterMs,
		}
		if _, err := db.SaveRun(cfg, snap, sim.Metrics().Traces()); err != nil {
			return err
		}
	}

	return nil
}

func printSummary(snap metrics.Snapshot) {
	dropPct := 0.0
	if snap.TotalMessages > 0 {
		dropPct = 100 * float64(snap.DroppedMessages) / float64(snap.TotalMessages)
	}

	fmt.Println()
	fmt.Println("=== Simulation Results ===")
	fmt.Printf("Makespan:         %d ticks\n", snap.Makespan)
	fmt.Printf("Total messages:   %d\n", snap.TotalMessages)
	fmt.Printf("Dropped messages: %d (%.2f%%)\n", snap.DroppedMessages, dropPct)
	fmt.Printf("Total replans:    %d\n", snap.TotalReplans)
	fmt.Printf("Wall time:        %dms\n", snap.WallTime.Milliseconds())

	if snap.CollisionDetected {
		color.Red("Collisions:       YES — safety check failed")
	} else {
		color.Green("Collisions:       none")
	}
}
