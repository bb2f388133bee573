package routing

import (
	"fmt"
	"math"
)

// NoNet is the owner of a free cell and the net of unconnected copper.
const NoNet = -1

// Point is a board coordinate in millimetres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// Segment is a straight, fixed-width copper run on one layer.
type Segment struct {
	Start Point   `json:"start"`
	End   Point   `json:"end"`
	Width float64 `json:"width"`
	Layer int     `json:"layer"`
	Net   int     `json:"net"`
}

// Length returns the centre-line length of the segment.
func (s Segment) Length() float64 {
	return s.Start.Dist(s.End)
}

// Via is a layer-to-layer copper transition.
type Via struct {
	Pos       Point   `json:"pos"`
	Drill     float64 `json:"drill"`
	Diameter  float64 `json:"diameter"`
	FromLayer int     `json:"from_layer"`
	ToLayer   int     `json:"to_layer"`
	Net       int     `json:"net"`
}

// Terminal is a connection point of a net together with the copper layers
// it can be reached from. Through-hole pads list every layer, surface pads
// list a single one.
type Terminal struct {
	Pos    Point `json:"pos"`
	Layers []int `json:"layers"`
}

// HasLayer reports whether the terminal is reachable from layer.
func (t Terminal) HasLayer(layer int) bool {
	for _, l := range t.Layers {
		if l == layer {
			return true
		}
	}
	return false
}

// Net is a set of terminals that must be made electrically continuous.
type Net struct {
	ID        int        `json:"id"`
	Name      string     `json:"name,omitempty"`
	Terminals []Terminal `json:"terminals"`
	Priority  int        `json:"priority,omitempty"`
}

// Validate checks the net is routable in principle: at least two terminals,
// each reachable from at least one non-negative layer.
func (n Net) Validate() error {
	if len(n.Terminals) < 2 {
		return fmt.Errorf("net %d (%s): %d terminal(s), need at least 2: %w",
			n.ID, n.Name, len(n.Terminals), ErrInvalidNet)
	}
	for i, t := range n.Terminals {
		if len(t.Layers) == 0 {
			return fmt.Errorf("net %d (%s): terminal %d has no layers: %w", n.ID, n.Name, i, ErrInvalidNet)
		}
		for _, l := range t.Layers {
			if l < 0 {
				return fmt.Errorf("net %d (%s): terminal %d has negative layer %d: %w", n.ID, n.Name, i, l, ErrInvalidNet)
			}
		}
	}
	return nil
}

// HalfPerimeter returns the half perimeter of the terminals' bounding box,
// a cheap estimate of how much routing the net needs.
func (n Net) HalfPerimeter() float64 {
	if len(n.Terminals) == 0 {
		return 0
	}
	minX, minY := n.Terminals[0].Pos.X, n.Terminals[0].Pos.Y
	maxX, maxY := minX, minY
	for _, t := range n.Terminals[1:] {
		minX = math.Min(minX, t.Pos.X)
		minY = math.Min(minY, t.Pos.Y)
		maxX = math.Max(maxX, t.Pos.X)
		maxY = math.Max(maxY, t.Pos.Y)
	}
	return (maxX - minX) + (maxY - minY)
}

// FailureReason tells a diagnosis layer why a net has no route.
type FailureReason int

const (
	// FailureNone means the net was routed.
	FailureNone FailureReason = iota
	// FailureBudgetExhausted means the search hit its iteration budget.
	// A path may still exist.
	FailureBudgetExhausted
	// FailureBlocked means the open set ran dry: no path exists under the
	// occupancy the search saw.
	FailureBlocked
	// FailureNotAttempted means the net was never handed to the search.
	FailureNotAttempted
	// FailureCancelled means the run was cancelled before the net was routed.
	FailureCancelled
)

var failureNames = [...]string{
	FailureNone:            "none",
	FailureBudgetExhausted: "budget_exhausted",
	FailureBlocked:         "blocked",
	FailureNotAttempted:    "not_attempted",
	FailureCancelled:       "cancelled",
}

func (f FailureReason) String() string {
	if f < 0 || int(f) >= len(failureNames) {
		return fmt.Sprintf("failure(%d)", int(f))
	}
	return failureNames[f]
}

// MarshalText encodes the reason by name.
func (f FailureReason) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes a reason name.
func (f *FailureReason) UnmarshalText(b []byte) error {
	for i, name := range failureNames {
		if name == string(b) {
			*f = FailureReason(i)
			return nil
		}
	}
	return fmt.Errorf("unknown failure reason %q", b)
}

// RouteResult is the copper produced for one net (or one connection of a
// net). A failed result has no segments and no vias.
type RouteResult struct {
	Net      int           `json:"net"`
	Segments []Segment     `json:"segments"`
	Vias     []Via         `json:"vias"`
	Success  bool          `json:"success"`
	Failure  FailureReason `json:"failure,omitempty"`
	Expanded int           `json:"expanded,omitempty"`
}

// Failed returns an empty result for net carrying reason.
func Failed(net int, reason FailureReason) RouteResult {
	return RouteResult{Net: net, Failure: reason}
}

// Length returns the total centre-line length of all segments.
func (r RouteResult) Length() float64 {
	var total float64
	for _, s := range r.Segments {
		total += s.Length()
	}
	return total
}

// Merge appends the copper of other to r. The merged result succeeds only
// if both did; the first failure reason wins and a failure drops all copper.
func (r RouteResult) Merge(other RouteResult) RouteResult {
	out := RouteResult{
		Net:      r.Net,
		Success:  r.Success && other.Success,
		Expanded: r.Expanded + other.Expanded,
	}
	if !out.Success {
		out.Failure = r.Failure
		if out.Failure == FailureNone {
			out.Failure = other.Failure
		}
		return out
	}
	out.Segments = append(append([]Segment{}, r.Segments...), other.Segments...)
	out.Vias = append(append([]Via{}, r.Vias...), other.Vias...)
	return out
}
