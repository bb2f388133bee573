package pcb

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

// WriteRoutes emits the copper of every successful result as KiCad
// (segment ...) and (via ...) forms, ready to paste into the board file.
// layers maps grid layer indices to copper layer names. Each form gets a
// uuid derived from its content, so the output is stable across runs.
// The grid reserves every via on all layers, so vias are written as
// through vias spanning the outer copper pair.
func WriteRoutes(w io.Writer, results []routing.RouteResult, layers []string) error {
	layerName := func(l int) (kicadsexp.Quoted, error) {
		if l < 0 || l >= len(layers) {
			return "", fmt.Errorf("pcb: layer %d has no name (%d copper layers)", l, len(layers))
		}
		return kicadsexp.Quoted(layers[l]), nil
	}

	for _, res := range results {
		if !res.Success {
			continue
		}
		for _, s := range res.Segments {
			name, err := layerName(s.Layer)
			if err != nil {
				return err
			}
			form := kicadsexp.NewList(kicadsexp.Symbol("segment"),
				xy("start", s.Start),
				xy("end", s.End),
				kicadsexp.NewList(kicadsexp.Symbol("width"), num(s.Width)),
				kicadsexp.NewList(kicadsexp.Symbol("layer"), name),
				kicadsexp.NewList(kicadsexp.Symbol("net"), kicadsexp.Symbol(strconv.Itoa(s.Net))),
			)
			if err := emit(w, form); err != nil {
				return err
			}
		}
		for _, v := range res.Vias {
			if _, err := layerName(v.FromLayer); err != nil {
				return err
			}
			if _, err := layerName(v.ToLayer); err != nil {
				return err
			}
			from, to := kicadsexp.Quoted(layers[0]), kicadsexp.Quoted(layers[len(layers)-1])
			form := kicadsexp.NewList(kicadsexp.Symbol("via"),
				xy("at", v.Pos),
				kicadsexp.NewList(kicadsexp.Symbol("size"), num(v.Diameter)),
				kicadsexp.NewList(kicadsexp.Symbol("drill"), num(v.Drill)),
				kicadsexp.NewList(kicadsexp.Symbol("layers"), from, to),
				kicadsexp.NewList(kicadsexp.Symbol("net"), kicadsexp.Symbol(strconv.Itoa(v.Net))),
			)
			if err := emit(w, form); err != nil {
				return err
			}
		}
	}
	return nil
}

func emit(w io.Writer, form *kicadsexp.List) error {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(form.String()))
	form.Append(kicadsexp.NewList(kicadsexp.Symbol("uuid"), kicadsexp.Quoted(id.String())))
	return kicadsexp.Write(w, form)
}

func xy(key string, p routing.Point) *kicadsexp.List {
	return kicadsexp.NewList(kicadsexp.Symbol(key), num(p.X), num(p.Y))
}

// num formats mm values to KiCad's nanometre precision.
func num(v float64) kicadsexp.Symbol {
	v = math.Round(v*1e6) / 1e6
	if v == 0 {
		v = 0 // drop negative zero
	}
	return kicadsexp.Symbol(strconv.FormatFloat(v, 'f', -1, 64))
}
