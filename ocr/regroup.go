package ocr

import (
	"sort"

	"github.com/rtr46/hoverdict/model"
)

// Regroup merges OCR lines into logical paragraphs for providers that
// only emit line-level boxes. This is the post-processing pass spec.md
// §4.4 describes; no accessible original_source file implements it
// (postprocessing.py was filtered out of the retrieval pack), so this
// is built directly from the spec text rather than ported line-for-line
// from a reference implementation.
func Regroup(lines []model.Paragraph) []model.Paragraph {
	if len(lines) == 0 {
		return nil
	}

	main, furigana := classify(lines)

	groups := groupAdjacent(main)

	out := make([]model.Paragraph, 0, len(groups)+len(furigana))
	for _, g := range groups {
		out = append(out, merge(g))
	}
	for _, f := range furigana {
		out = append(out, f)
	}
	return out
}

// classify splits lines into "main" and "furigana" by size: a line is
// furigana when its thickness (width for vertical lines, height for
// horizontal lines) is less than 0.65× the median thickness across all
// lines. Classification requires at
// least two lines; a single line is always main.
func classify(lines []model.Paragraph) (main, furigana []model.Paragraph) {
	if len(lines) < 2 {
		return lines, nil
	}

	vertical := lines[0].Orientation()

	dims := make([]float64, len(lines))
	for i, l := range lines {
		if vertical {
			dims[i] = l.Box.Width
		} else {
			dims[i] = l.Box.Height
		}
	}
	median := medianOf(dims)

	for i, l := range lines {
		if dims[i] < 0.65*median {
			furigana = append(furigana, l)
		} else {
			main = append(main, l)
		}
	}
	return main, furigana
}

func medianOf(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// groupAdjacent partitions main lines into paragraph groups using union-find
// over the pairwise adjacency test, then sorts each group along its flow axis.
func groupAdjacent(lines []model.Paragraph) [][]model.Paragraph {
	n := len(lines)
	if n == 0 {
		return nil
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if adjacent(lines[i], lines[j]) {
				union(i, j)
			}
		}
	}

	byRoot := map[int][]int{}
	for i := 0; i < n; i++ {
		r := find(i)
		byRoot[r] = append(byRoot[r], i)
	}

	groups := make([][]model.Paragraph, 0, len(byRoot))
	for _, idxs := range byRoot {
		group := make([]model.Paragraph, len(idxs))
		for k, idx := range idxs {
			group[k] = lines[idx]
		}
		sortFlowAxis(group)
		groups = append(groups, group)
	}
	return groups
}

// adjacent reports whether two lines belong in the same paragraph:
// their cross-axis projected overlap exceeds 50% of the smaller
// cross-axis dimension, and their flow-axis center distance is less
// than 1.9x the larger flow-axis dimension. The flow axis is the one
// lines are stacked and sorted along (see sortFlowAxis): y for
// horizontal text, x for vertical text.
func adjacent(a, b model.Paragraph) bool {
	vertical := a.Orientation()

	var crossOverlap, crossMin, flowDist, flowMax float64
	if vertical {
		crossOverlap = overlap1D(a.Box.Top(), a.Box.Bottom(), b.Box.Top(), b.Box.Bottom())
		crossMin = minOf(a.Box.Height, b.Box.Height)
		flowDist = absDiff(a.Box.CenterX, b.Box.CenterX)
		flowMax = maxOf(a.Box.Width, b.Box.Width)
	} else {
		crossOverlap = overlap1D(a.Box.Left(), a.Box.Right(), b.Box.Left(), b.Box.Right())
		crossMin = minOf(a.Box.Width, b.Box.Width)
		flowDist = absDiff(a.Box.CenterY, b.Box.CenterY)
		flowMax = maxOf(a.Box.Height, b.Box.Height)
	}

	if crossMin <= 0 {
		return false
	}
	return crossOverlap/crossMin > 0.5 && flowDist < 1.9*flowMax
}

func overlap1D(aLo, aHi, bLo, bHi float64) float64 {
	lo := maxOf(aLo, bLo)
	hi := minOf(aHi, bHi)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func minOf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxOf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// sortFlowAxis orders a group's lines along its flow axis:
// top-to-bottom for horizontal text, right-to-left for vertical text.
func sortFlowAxis(group []model.Paragraph) {
	if len(group) == 0 {
		return
	}
	vertical := group[0].Orientation()
	sort.Slice(group, func(i, j int) bool {
		if vertical {
			return group[i].Box.CenterX > group[j].Box.CenterX
		}
		return group[i].Box.CenterY < group[j].Box.CenterY
	})
}

// merge combines an ordered group of lines into one paragraph:
// concatenated words in order and the enclosing bounding box.
func merge(group []model.Paragraph) model.Paragraph {
	if len(group) == 1 {
		return group[0]
	}

	var words []model.Word
	left, right := group[0].Box.Left(), group[0].Box.Right()
	top, bottom := group[0].Box.Top(), group[0].Box.Bottom()

	for _, line := range group {
		words = append(words, line.Words...)
		left = minOf(left, line.Box.Left())
		right = maxOf(right, line.Box.Right())
		top = minOf(top, line.Box.Top())
		bottom = maxOf(bottom, line.Box.Bottom())
	}

	return model.Paragraph{
		Words: words,
		Box: model.BoundingBox{
			CenterX: (left + right) / 2,
			CenterY: (top + bottom) / 2,
			Width:   right - left,
			Height:  bottom - top,
		},
		IsVertical: group[0].Orientation(),
	}
}
