package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/negotiate"
)

func sampleResult() *negotiate.Result {
	return &negotiate.Result{
		SessionID:       "3b0c3f8e-1111-4c1a-9d7e-000000000001",
		Rounds:          3,
		Converged:       true,
		OverflowHistory: []int{4, 1, 0},
		Routes: []routing.RouteResult{{
			Net:     1,
			Success: true,
			Segments: []routing.Segment{
				{Start: routing.Point{X: 0, Y: 0}, End: routing.Point{X: 3, Y: 4}, Layer: 1, Net: 1},
			},
		}},
		Stats: negotiate.Stats{NetsRouted: 1, NetsTotal: 1, TotalLength: 5},
	}
}

func TestConvergence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Convergence(&buf, sampleResult(), []string{"F.Cu", "B.Cu"}, nil))

	html := buf.String()
	assert.True(t, strings.Contains(html, "<html"), "not an HTML page")
	assert.Contains(t, html, "Overflow per round")
	assert.Contains(t, html, "Copper length per layer")
	assert.Contains(t, html, "B.Cu")
	assert.Contains(t, html, "5.00")
	assert.NotContains(t, html, "Trials")
}

func TestConvergenceWithTrials(t *testing.T) {
	trials := &negotiate.TrialResult{
		Seed: 2,
		Trials: []negotiate.TrialSummary{
			{Seed: 1, Failures: 1, Overflow: 2},
			{Seed: 2, Failures: 0},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, Convergence(&buf, sampleResult(), nil, trials))
	assert.Contains(t, buf.String(), "best seed 2")
	assert.Contains(t, buf.String(), "seed 1")
}
