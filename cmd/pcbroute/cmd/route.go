package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRoute/internal/config"
	"github.com/OpenTraceLab/OpenTraceRoute/internal/render"
	"github.com/OpenTraceLab/OpenTraceRoute/internal/report"
	"github.com/OpenTraceLab/OpenTraceRoute/internal/session"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/negotiate"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/rules"
)

var (
	routeRules      string
	routeConfig     string
	routeBackend    string
	routeOrder      string
	routeSeeds      []uint
	routeMaxRounds  int
	routeResolution float64
	routeTimeout    time.Duration
	routePlot       string
	routeReport     string
	routeOutput     string
	routeJSON       string
)

var routeCmd = &cobra.Command{
	Use:   "route <board_file>",
	Short: "Route the unconnected nets of a board",
	Long: `Routes every net with two or more pads. Existing pads, vias and tracks
are kept as obstacles. The new copper is written as KiCad (segment ...) and
(via ...) forms that can be pasted into the board file.

Settings are read from --config, or from the per-user settings file when
present; flags override both. --rules loads a design rules file.

Repeat --seed to run one shuffled-order trial per seed in parallel and keep
the best.`,
	Args: cobra.ExactArgs(1),
	RunE: runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)
	addRouteFlags(routeCmd)
	routeCmd.Flags().StringVarP(&routeOutput, "output", "o", "-", "file for the routed copper (- for stdout)")
	routeCmd.Flags().StringVar(&routeJSON, "json", "", "write the full result as JSON")
	routeCmd.Flags().StringVar(&routePlot, "plot", "", "write a picture of the result (.png, .svg, .pdf)")
	routeCmd.Flags().StringVar(&routeReport, "report", "", "write an HTML convergence report")
}

// addRouteFlags registers the flags shared by commands that run the router.
func addRouteFlags(c *cobra.Command) {
	c.Flags().StringVar(&routeRules, "rules", "", "design rules file")
	c.Flags().StringVar(&routeConfig, "config", "", "router settings file (.json)")
	c.Flags().StringVar(&routeBackend, "backend", "", "search backend: reference or accelerated")
	c.Flags().StringVar(&routeOrder, "order", "", "net order: priority, complexity, declared or shuffled")
	c.Flags().UintSliceVar(&routeSeeds, "seed", nil, "shuffle seed; repeat to run trials")
	c.Flags().IntVar(&routeMaxRounds, "max-rounds", 0, "negotiation rounds before giving up")
	c.Flags().Float64Var(&routeResolution, "resolution", 0, "grid cell size in mm")
	c.Flags().DurationVar(&routeTimeout, "timeout", 0, "stop routing after this long")
}

// loadSettings merges the settings file with the flags that were set.
func loadSettings(c *cobra.Command) (rules.DesignRules, *config.RouterConfig, error) {
	base := rules.Default()
	if routeRules != "" {
		r, err := rules.ParseFile(routeRules, base)
		if err != nil {
			return base, nil, err
		}
		base = r
	}

	var settings *config.RouterConfig
	var err error
	if routeConfig != "" {
		settings, err = config.Load(routeConfig)
	} else {
		settings, err = config.LoadDefault()
	}
	if err != nil {
		return base, nil, err
	}

	flags := c.Flags()
	if flags.Changed("backend") {
		settings.Backend = &routeBackend
	}
	if flags.Changed("order") {
		settings.Order = &routeOrder
	}
	if flags.Changed("max-rounds") {
		settings.MaxRounds = &routeMaxRounds
	}
	if flags.Changed("seed") {
		settings.Seeds = settings.Seeds[:0]
		for _, s := range routeSeeds {
			settings.Seeds = append(settings.Seeds, uint64(s))
		}
		if len(settings.Seeds) == 1 && !flags.Changed("order") {
			shuffled := string(negotiate.OrderShuffled)
			settings.Order = &shuffled
		}
	}
	if flags.Changed("resolution") {
		base.Resolution = routeResolution
	}
	return base, settings, nil
}

// routeBoard parses a board and routes it with the command's settings.
func routeBoard(c *cobra.Command, path string) (*pcb.Problem, *session.Outcome, error) {
	base, settings, err := loadSettings(c)
	if err != nil {
		return nil, nil, err
	}
	r, _, _, err := session.Resolve(base, settings)
	if err != nil {
		return nil, nil, err
	}

	board, err := pcb.ParseFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing board: %w", err)
	}
	problem, err := board.RoutingProblem(r)
	if err != nil {
		return nil, nil, err
	}
	fmt.Fprintf(c.ErrOrStderr(), "Loaded %s: %d copper layers, %d nets to route, %d obstacles\n",
		filepath.Base(path), len(problem.CopperLayers), len(problem.Nets), len(problem.Obstacles))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if routeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, routeTimeout)
		defer cancel()
	}

	progress := make(chan negotiate.Progress, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if verbose && p.Phase == "round" {
				fmt.Fprintf(c.ErrOrStderr(), "  round %d, overflow %d\n", p.Round+1, p.Overflow)
			}
		}
	}()

	out, err := session.Run(ctx, session.Job{Problem: problem, Rules: base, Settings: settings, Progress: progress})
	close(progress)
	<-done
	if err != nil {
		return nil, nil, err
	}
	return problem, out, nil
}

func runRoute(c *cobra.Command, args []string) error {
	problem, out, err := routeBoard(c, args[0])
	if err != nil {
		return err
	}
	res := out.Result
	printSummary(c.ErrOrStderr(), res, out.Trials)

	if err := writeTo(routeOutput, c.OutOrStdout(), func(w io.Writer) error {
		return pcb.WriteRoutes(w, res.Routes, problem.CopperLayers)
	}); err != nil {
		return err
	}
	if routeJSON != "" {
		if err := writeTo(routeJSON, nil, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}); err != nil {
			return err
		}
	}
	if routePlot != "" {
		opts := render.Options{Title: filepath.Base(args[0]), Layers: problem.CopperLayers}
		if err := render.Save(routePlot, out.Grid, res.Routes, opts); err != nil {
			return err
		}
	}
	if routeReport != "" {
		if err := writeTo(routeReport, nil, func(w io.Writer) error {
			return report.Convergence(w, res, problem.CopperLayers, out.Trials)
		}); err != nil {
			return err
		}
	}
	if len(res.Failures) > 0 {
		return fmt.Errorf("%d of %d nets could not be routed", len(res.Failures), res.Stats.NetsTotal)
	}
	return nil
}

func printSummary(w io.Writer, res *negotiate.Result, trials *negotiate.TrialResult) {
	st := res.Stats
	fmt.Fprintf(w, "✓ Routed %d/%d nets in %d rounds\n", st.NetsRouted, st.NetsTotal, res.Rounds)
	fmt.Fprintf(w, "  Length: %.2f mm\n", st.TotalLength)
	fmt.Fprintf(w, "  Vias: %d\n", st.Vias)
	history := make([]string, len(res.OverflowHistory))
	for i, o := range res.OverflowHistory {
		history[i] = fmt.Sprint(o)
	}
	fmt.Fprintf(w, "  Overflow: %s\n", strings.Join(history, " → "))
	if trials != nil {
		fmt.Fprintf(w, "  Best of %d trials: seed %d\n", len(trials.Trials), trials.Seed)
	}
	switch {
	case res.Cancelled:
		fmt.Fprintln(w, "  Stopped early; remaining nets were not attempted")
	case !res.Converged:
		fmt.Fprintf(w, "  Did not converge; nets still in conflict: %v\n", res.Conflicts)
	}
	for _, f := range res.Failures {
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("#%d", f.Net)
		}
		fmt.Fprintf(w, "  ✗ %s: %s\n", name, f.Reason)
	}
}

// writeTo writes to path, or to stdout when path is "-".
func writeTo(path string, stdout io.Writer, fn func(io.Writer) error) error {
	if path == "-" && stdout != nil {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
