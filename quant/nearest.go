package quant

import "math"

// nearestNode is one arena entry of the BSP/vantage-point-style tree:
// either a leaf holding a short list of palette member indices, or an
// internal node that partitioned its members by which of two distant
// "pivot" colors they are closer to. Built once per refined colormap,
// indices into a flat arena rather than owned pointers, per spec.md's
// "implement with an arena + indices" guidance.
type nearestNode struct {
	isLeaf  bool
	members []int // palette indices, leaf only

	pivotA, pivotB int     // palette indices, internal only
	pivotDist      float32 // Euclidean distance between the two pivots
	left, right    int     // arena indices, internal only
}

// nearestMap is a read-only accelerator over one Colormap's entries.
type nearestMap struct {
	arena  []nearestNode
	root   int
	colors []colormapItem
}

// buildNearest partitions the palette into a recursive bisector tree:
// at each internal node, pick two palette members far apart, split the
// rest by which pivot they're closer to, and recurse.
func buildNearest(cm *Colormap) *nearestMap {
	n := &nearestMap{colors: cm.palette}
	members := make([]int, cm.Len())
	for i := range members {
		members[i] = i
	}
	n.root = n.build(members)
	return n
}

func (n *nearestMap) build(members []int) int {
	if len(members) <= 1 {
		n.arena = append(n.arena, nearestNode{isLeaf: true, members: members})
		return len(n.arena) - 1
	}

	colors := n.colors
	// Two-pass farthest-pair heuristic for vantage selection.
	a := members[0]
	far1, bestD := a, float32(-1)
	for _, m := range members {
		d := colordifference(colors[a].acolor, colors[m].acolor)
		if d > bestD {
			bestD, far1 = d, m
		}
	}
	far2, bestD2 := far1, float32(-1)
	for _, m := range members {
		d := colordifference(colors[far1].acolor, colors[m].acolor)
		if d > bestD2 {
			bestD2, far2 = d, m
		}
	}
	pivotA, pivotB := far1, far2

	if pivotA == pivotB {
		// every member is the same color: degenerate, terminate as a leaf.
		n.arena = append(n.arena, nearestNode{isLeaf: true, members: members})
		return len(n.arena) - 1
	}

	var left, right []int
	for _, m := range members {
		dA := colordifference(colors[pivotA].acolor, colors[m].acolor)
		dB := colordifference(colors[pivotB].acolor, colors[m].acolor)
		if dA <= dB {
			left = append(left, m)
		} else {
			right = append(right, m)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		// couldn't separate (e.g. duplicate colors beyond the pivots).
		n.arena = append(n.arena, nearestNode{isLeaf: true, members: members})
		return len(n.arena) - 1
	}

	leftIdx := n.build(left)
	rightIdx := n.build(right)
	distAB := colordifference(colors[pivotA].acolor, colors[pivotB].acolor)

	n.arena = append(n.arena, nearestNode{
		pivotA: pivotA, pivotB: pivotB,
		pivotDist: float32(math.Sqrt(float64(distAB))),
		left:      leftIdx, right: rightIdx,
	})
	return len(n.arena) - 1
}

// closestOtherColorDistances returns, for each palette entry i, the
// colordifference to the nearest *other* entry. remapToPaletteFloyd
// divides this by 4 to get the index-reuse tolerance for that entry,
// mirroring distance_from_closest_other_color in the original source.
func closestOtherColorDistances(cm *Colormap) []float32 {
	n := cm.Len()
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		best := float32(maxDiff)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := colordifference(cm.palette[i].acolor, cm.palette[j].acolor)
			if d < best {
				best = d
			}
		}
		out[i] = best
	}
	return out
}

// eligible implements the alpha-gating rule: a pixel below min_opaque_val
// may only match palette entries that are themselves below that
// threshold, and vice versa, so opaque pixels never map to transparent
// entries and transparent pixels never map to opaque ones.
func eligible(pxAlpha, minOpaqueVal, candAlpha float32) bool {
	if pxAlpha < minOpaqueVal {
		return candAlpha < minOpaqueVal
	}
	return candAlpha >= minOpaqueVal
}

// search returns the palette index minimizing colordifference to px,
// subject to the alpha-gating rule, and the resulting colordifference.
// Falls back to an ungated search if gating would exclude every entry
// (e.g. a palette that is entirely opaque or entirely transparent).
func (n *nearestMap) search(px fPixel, minOpaqueVal float32) (int, float32) {
	best, bestDist := n.searchGated(px, minOpaqueVal)
	if best >= 0 {
		return best, bestDist
	}
	return n.searchGated(px, -1) // -1 makes eligible() accept everything on the ">= " branch
}

func (n *nearestMap) searchGated(px fPixel, minOpaqueVal float32) (int, float32) {
	best := -1
	bestDist := float32(maxDiff)
	n.visit(n.root, px, minOpaqueVal, &best, &bestDist)
	return best, bestDist
}

func (n *nearestMap) visit(nodeIdx int, px fPixel, minOpaqueVal float32, best *int, bestDist *float32) {
	node := &n.arena[nodeIdx]
	if node.isLeaf {
		for _, m := range node.members {
			if minOpaqueVal >= 0 && !eligible(px.a, minOpaqueVal, n.colors[m].acolor.a) {
				continue
			}
			d := colordifference(px, n.colors[m].acolor)
			if d < *bestDist {
				*bestDist = d
				*best = m
			}
		}
		return
	}

	dA := colordifference(px, n.colors[node.pivotA].acolor)
	dB := colordifference(px, n.colors[node.pivotB].acolor)

	firstIdx, secondIdx := node.left, node.right
	firstDist, secondDist := dA, dB
	if dB < dA {
		firstIdx, secondIdx = node.right, node.left
		firstDist, secondDist = dB, dA
	}

	n.visit(firstIdx, px, minOpaqueVal, best, bestDist)

	// Triangle-inequality pruning: the perpendicular bisector of the two
	// pivots sits distToBisector away from px on the side we just
	// searched; nothing on the far side of that bisector can be closer
	// than what we've already found once sqrt(bestDist) reaches it.
	if node.pivotDist > 0 {
		distToBisector := (secondDist - firstDist) / (2 * node.pivotDist)
		if float32(math.Sqrt(float64(*bestDist))) <= distToBisector {
			return
		}
	}
	n.visit(secondIdx, px, minOpaqueVal, best, bestDist)
}
