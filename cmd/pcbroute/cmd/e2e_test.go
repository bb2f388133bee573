package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

const board = "../../../pkg/kicad/pcb/testdata/simple.kicad_pcb"

// execute runs the root command with fresh flag state and returns stdout
// and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPDATA", "")

	routeRules, routeConfig, routeBackend, routeOrder = "", "", "", ""
	routeSeeds, routeMaxRounds, routeResolution, routeTimeout = nil, 0, 0, 0
	routePlot, routeReport, routeOutput, routeJSON = "", "", "-", ""
	verbose, trace = false, false
	for _, c := range []*pflag.FlagSet{routeCmd.Flags(), debugSexpCmd.Flags(), debugNetsCmd.Flags()} {
		c.VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// TestRouteE2E routes the sample board and writes every artefact.
func TestRouteE2E(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "routes.kicad_sexp")
	js := filepath.Join(dir, "result.json")
	html := filepath.Join(dir, "report.html")
	png := filepath.Join(dir, "board.png")

	_, stderr, err := execute(t, "route", board, "-o", out, "--json", js, "--report", html, "--plot", png)
	if err != nil {
		t.Fatalf("route failed: %v\n%s", err, stderr)
	}
	for _, want := range []string{"Loaded simple.kicad_pcb", "2 copper layers", "✓ Routed 2/2 nets", "Overflow:"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q\nGot:\n%s", want, stderr)
		}
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "(segment") {
		t.Errorf("output does not start with a segment:\n%s", data)
	}
	for _, path := range []string{js, html, png} {
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", filepath.Base(path), err)
		}
	}
}

func TestRouteToStdout(t *testing.T) {
	stdout, _, err := execute(t, "route", board)
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if !strings.Contains(stdout, "(segment") {
		t.Errorf("stdout has no segments:\n%s", stdout)
	}
}

func TestRouteTrialsE2E(t *testing.T) {
	_, stderr, err := execute(t, "route", board, "-o", filepath.Join(t.TempDir(), "out"), "--seed", "1", "--seed", "2")
	if err != nil {
		t.Fatalf("route failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(stderr, "Best of 2 trials") {
		t.Errorf("stderr missing trial summary:\n%s", stderr)
	}
}

func TestRouteErrorsE2E(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing board", []string{"route", "does-not-exist.kicad_pcb"}},
		{"no args", []string{"route"}},
		{"bad order", []string{"route", board, "--order", "random"}},
		{"bad resolution", []string{"route", board, "--resolution", "-1"}},
		{"config not json", []string{"route", board, "--config", "router.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := execute(t, tt.args...); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestDebugE2E(t *testing.T) {
	stdout, _, err := execute(t, "debug", "nets", board)
	if err != nil {
		t.Fatalf("debug nets failed: %v", err)
	}
	for _, want := range []string{"Copper layers: [F.Cu B.Cu]", "GND", "SIG"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q\nGot:\n%s", want, stdout)
		}
	}

	stdout, _, err = execute(t, "debug", "sexp", board)
	if err != nil {
		t.Fatalf("debug sexp failed: %v", err)
	}
	if !strings.Contains(stdout, "board reader:  1 forms") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestLogStreamsE2E(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")

	_, quiet, err := execute(t, "route", board, "-o", out)
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if !strings.Contains(quiet, "round 0 overflow") {
		t.Errorf("ops stream missing round summary:\n%s", quiet)
	}
	if strings.Contains(quiet, "expansions") {
		t.Errorf("search traces logged without --trace:\n%s", quiet)
	}

	_, loud, err := execute(t, "route", board, "-o", out, "--trace")
	if err != nil {
		t.Fatalf("route --trace failed: %v", err)
	}
	if !strings.Contains(loud, "found path") {
		t.Errorf("trace stream missing search lines:\n%s", loud)
	}
}
