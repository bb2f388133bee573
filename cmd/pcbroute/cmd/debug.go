package cmd

import (
	"fmt"
	"os"
	"sort"

	chewsexp "github.com/chewxy/sexp"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/rules"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Diagnostics for board files",
}

var debugSexpCmd = &cobra.Command{
	Use:   "sexp <board_file>",
	Short: "Cross-check the board reader against a generic s-expression parser",
	Long: `Parses the file with the board reader's own s-expression parser and with
github.com/chewxy/sexp, and compares the number of top-level forms and
leaves. A mismatch points at quoting or escaping the board reader handles
differently.`,
	Args: cobra.ExactArgs(1),
	RunE: runDebugSexp,
}

var debugNetsCmd = &cobra.Command{
	Use:   "nets <board_file>",
	Short: "Show the nets the router would route",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebugNets,
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugSexpCmd)
	debugCmd.AddCommand(debugNetsCmd)
}

func runDebugSexp(c *cobra.Command, args []string) error {
	out := c.OutOrStdout()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "File size: %d bytes (%.2f MB)\n", info.Size(), float64(info.Size())/1024/1024)

	own, err := kicadsexp.Parse(f)
	if err != nil {
		return fmt.Errorf("board reader: %w", err)
	}
	ownLeaves := 0
	for _, s := range own {
		ownLeaves += countLeaves(s)
	}
	fmt.Fprintf(out, "board reader:  %d forms, %d leaves\n", len(own), ownLeaves)

	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	ref, err := chewsexp.Parse(f)
	if err != nil {
		fmt.Fprintf(out, "chewxy/sexp:   error: %v\n", err)
		return nil
	}
	refLeaves := 0
	for _, s := range ref {
		if s.IsLeaf() {
			refLeaves++
		} else {
			refLeaves += s.LeafCount()
		}
	}
	fmt.Fprintf(out, "chewxy/sexp:   %d forms, %d leaves\n", len(ref), refLeaves)

	if len(ref) != len(own) || refLeaves != ownLeaves {
		fmt.Fprintln(out, "✗ parsers disagree")
	} else {
		fmt.Fprintln(out, "✓ parsers agree")
	}
	return nil
}

func countLeaves(s kicadsexp.Sexp) int {
	l, ok := s.(*kicadsexp.List)
	if !ok {
		return 1
	}
	n := 0
	for _, item := range l.Items() {
		n += countLeaves(item)
	}
	return n
}

func runDebugNets(c *cobra.Command, args []string) error {
	out := c.OutOrStdout()
	board, err := pcb.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error parsing board: %w", err)
	}
	problem, err := board.RoutingProblem(rules.Default())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Board: %.2f x %.2f mm at %v\n", problem.Width, problem.Height, problem.Origin)
	fmt.Fprintf(out, "Copper layers: %v\n", problem.CopperLayers)
	fmt.Fprintf(out, "Obstacles: %d rectangles, %d tracks\n", len(problem.Obstacles), len(problem.Traces))

	nets := append(problem.Nets[:0:0], problem.Nets...)
	sort.Slice(nets, func(i, j int) bool { return nets[i].ID < nets[j].ID })
	fmt.Fprintf(out, "\n%-6s %-24s %s\n", "ID", "NET", "TERMINALS")
	for _, n := range nets {
		fmt.Fprintf(out, "%-6d %-24s %d\n", n.ID, n.Name, len(n.Terminals))
	}
	return nil
}
