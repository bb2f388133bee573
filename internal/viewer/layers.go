package viewer

import "fmt"

// LayerConfig controls which grid layers are drawn. Layers are visible
// until hidden.
type LayerConfig struct {
	names  []string
	hidden map[int]bool
}

// NewLayerConfig creates a configuration for the named layers.
func NewLayerConfig(names []string) *LayerConfig {
	return &LayerConfig{names: names, hidden: make(map[int]bool)}
}

// Name returns the display name of layer i.
func (lc *LayerConfig) Name(i int) string {
	if i >= 0 && i < len(lc.names) {
		return lc.names[i]
	}
	return fmt.Sprintf("L%d", i)
}

// Count returns the number of named layers.
func (lc *LayerConfig) Count() int { return len(lc.names) }

// SetVisible sets the visibility of layer i.
func (lc *LayerConfig) SetVisible(i int, visible bool) {
	if visible {
		delete(lc.hidden, i)
	} else {
		lc.hidden[i] = true
	}
}

// Toggle flips layer i and reports its new visibility.
func (lc *LayerConfig) Toggle(i int) bool {
	v := !lc.IsVisible(i)
	lc.SetVisible(i, v)
	return v
}

// IsVisible reports whether layer i is drawn.
func (lc *LayerConfig) IsVisible(i int) bool {
	return !lc.hidden[i]
}

// ShowAll makes every layer visible.
func (lc *LayerConfig) ShowAll() {
	lc.hidden = make(map[int]bool)
}

// ShowOnly hides every layer but i.
func (lc *LayerConfig) ShowOnly(i int) {
	lc.hidden = make(map[int]bool)
	for l := range lc.names {
		if l != i {
			lc.hidden[l] = true
		}
	}
}
