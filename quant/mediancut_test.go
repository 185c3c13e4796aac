package quant

import "testing"

func makeHistItem(r, g, b, a, weight float32) histItem {
	return histItem{
		color:            fPixel{r: r, g: g, b: b, a: a},
		perceptualWeight: weight,
		adjustedWeight:   weight,
	}
}

func TestMediancutFewerItemsThanMaxColorsReturnsAllItems(t *testing.T) {
	hist := &Histogram{items: []histItem{
		makeHistItem(0, 0, 0, 1, 10),
		makeHistItem(1, 0, 0, 1, 10),
	}}
	cm := mediancut(hist, 8, 0)
	if cm.Len() != 2 {
		t.Errorf("mediancut() = %d colors, want 2", cm.Len())
	}
}

func TestMediancutNeverExceedsMaxColors(t *testing.T) {
	items := make([]histItem, 0, 64)
	for r := 0; r < 4; r++ {
		for g := 0; g < 4; g++ {
			for b := 0; b < 4; b++ {
				items = append(items, makeHistItem(float32(r)/3, float32(g)/3, float32(b)/3, 1, 1))
			}
		}
	}
	hist := &Histogram{items: items}
	cm := mediancut(hist, 16, 0)
	if cm.Len() > 16 {
		t.Errorf("mediancut() = %d colors, want <= 16", cm.Len())
	}
	if cm.Len() == 0 {
		t.Errorf("mediancut() returned an empty colormap")
	}
}

func TestMediancutStopsEarlyOnHighStopVariance(t *testing.T) {
	items := make([]histItem, 0, 64)
	for r := 0; r < 4; r++ {
		for g := 0; g < 4; g++ {
			for b := 0; b < 4; b++ {
				items = append(items, makeHistItem(float32(r)/3, float32(g)/3, float32(b)/3, 1, 1))
			}
		}
	}
	hist := &Histogram{items: items}
	cm := mediancut(hist, 16, 1e6)
	if cm.Len() != 1 {
		t.Errorf("mediancut() with a very high stopVariance did not stop after the first box: got %d colors", cm.Len())
	}
}

func TestMediancutEmptyHistogram(t *testing.T) {
	cm := mediancut(&Histogram{}, 8, 0)
	if cm.Len() != 0 {
		t.Errorf("mediancut() on empty histogram = %d colors, want 0", cm.Len())
	}
}

func TestSplitMCBoxProducesNonEmptyHalves(t *testing.T) {
	items := []histItem{
		makeHistItem(0, 0, 0, 1, 1),
		makeHistItem(1, 0, 0, 1, 1),
		makeHistItem(0, 1, 0, 1, 1),
	}
	box := newMCBox(items)
	left, right := splitMCBox(box)
	if len(left.items) == 0 || len(right.items) == 0 {
		t.Errorf("splitMCBox produced an empty half: left=%d right=%d", len(left.items), len(right.items))
	}
	if len(left.items)+len(right.items) != len(items) {
		t.Errorf("splitMCBox lost items: left=%d right=%d want total %d", len(left.items), len(right.items), len(items))
	}
}
