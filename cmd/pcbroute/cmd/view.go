package cmd

import (
	"fmt"
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/unit"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRoute/internal/session"
	"github.com/OpenTraceLab/OpenTraceRoute/internal/viewer"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/pcb"
)

var viewNoRoute bool

var viewCmd = &cobra.Command{
	Use:   "view <board_file>",
	Short: "Route a board and inspect the result",
	Long: `Routes the board and opens the grid in an interactive Gio viewer.

Controls:
  Scroll Wheel      - Zoom in/out at the cursor
  Drag              - Pan
  F                 - Fit board to window
  B                 - Flip to bottom view
  1-9               - Toggle copper layer
  0                 - Show all layers
  Q / Escape        - Quit

If keyboard doesn't work on Wayland, run with GIO_BACKEND=x11.`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	addRouteFlags(viewCmd)
	viewCmd.Flags().BoolVar(&viewNoRoute, "no-route", false, "show the obstacles only")
}

func runView(c *cobra.Command, args []string) error {
	var scene *viewer.Scene
	if viewNoRoute {
		base, settings, err := loadSettings(c)
		if err != nil {
			return err
		}
		r, _, _, err := session.Resolve(base, settings)
		if err != nil {
			return err
		}
		board, err := pcb.ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("error parsing board: %w", err)
		}
		problem, err := board.RoutingProblem(r)
		if err != nil {
			return err
		}
		g, err := problem.NewGrid(r)
		if err != nil {
			return err
		}
		scene = viewer.NewScene(g, nil, problem.CopperLayers)
	} else {
		problem, out, err := routeBoard(c, args[0])
		if err != nil {
			return err
		}
		printSummary(c.ErrOrStderr(), out.Result, out.Trials)
		scene = viewer.NewScene(out.Grid, out.Result, problem.CopperLayers)
	}

	// Run the Gio application
	go func() {
		w := new(app.Window)
		w.Option(app.Title("OpenTraceRoute - " + args[0]))
		w.Option(app.Size(unit.Dp(1000), unit.Dp(800)))

		if err := viewer.New(scene).Run(w); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}

