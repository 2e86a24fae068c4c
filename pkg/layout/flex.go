package layout

import (
	"math"
	"slices"

	"vista/pkg/css"
	"vista/pkg/geom"
)

// FlexBox is one flex layout problem: a container's flex attributes and
// the items projected from its children.
type FlexBox struct {
	Direction      css.FlexDirection
	Wrap           css.FlexWrap
	JustifyContent css.Justify
	AlignItems     css.Align
	AlignContent   css.Justify
	Items          []*Item
}

// FlexItem tracks an item while the flex solver runs.
type FlexItem struct {
	*Item
	hypothetical float64
	mainSize     float64
	crossSize    float64
	mainPos      float64
	crossPos     float64
	frozen       bool
}

// FlexLine is one line of items after wrapping.
type FlexLine struct {
	Items     []*FlexItem
	CrossSize float64
	crossPos  float64
}

// flexAxes reads an item along the main and cross axes of a direction.
type flexAxes struct {
	row bool
}

func (a flexAxes) main(it *Item) (size, lo, hi float64) {
	if a.row {
		return it.Width, it.MinWidth, it.MaxWidth
	}
	return it.Height, it.MinHeight, it.MaxHeight
}

func (a flexAxes) cross(it *Item) (size, lo, hi float64) {
	if a.row {
		return it.Height, it.MinHeight, it.MaxHeight
	}
	return it.Width, it.MinWidth, it.MaxWidth
}

func (a flexAxes) mainMargins(it *Item) (start, end float64) {
	if a.row {
		return it.Margin.Left, it.Margin.Right
	}
	return it.Margin.Top, it.Margin.Bottom
}

func (a flexAxes) crossMargins(it *Item) (start, end float64) {
	if a.row {
		return it.Margin.Top, it.Margin.Bottom
	}
	return it.Margin.Left, it.Margin.Right
}

// PerformLayout positions every item inside bounds and stores the result
// in each item's Bounds.
func (f *FlexBox) PerformLayout(bounds geom.Rect) {
	axes := flexAxes{row: f.Direction.IsRow()}
	containerMain, containerCross := bounds.Height, bounds.Width
	if axes.row {
		containerMain, containerCross = bounds.Width, bounds.Height
	}

	items := f.hypotheticalSizes(axes)
	lines := f.breakLines(axes, items, containerMain)
	for _, line := range lines {
		resolveFlexibleLengths(axes, line, containerMain)
	}
	f.sizeLines(axes, lines, containerCross)
	f.alignContent(lines, containerCross)
	for _, line := range lines {
		f.alignItems(axes, line)
		f.justify(axes, line, containerMain)
	}

	for _, line := range lines {
		for _, fi := range line.Items {
			mainPos, crossPos := fi.mainPos, fi.crossPos
			if f.Direction.IsReversed() {
				mainPos = containerMain - mainPos - fi.mainSize
			}
			if f.Wrap == css.WrapReverse {
				crossPos = containerCross - crossPos - fi.crossSize
			}
			if axes.row {
				fi.Bounds = geom.NewRect(bounds.X+mainPos, bounds.Y+crossPos, fi.mainSize, fi.crossSize)
			} else {
				fi.Bounds = geom.NewRect(bounds.X+crossPos, bounds.Y+mainPos, fi.crossSize, fi.mainSize)
			}
		}
	}
}

// hypotheticalSizes sorts the items by order and computes the size each
// would take before flexing: the basis when there is one, else the
// preferred size on the main axis.
func (f *FlexBox) hypotheticalSizes(axes flexAxes) []*FlexItem {
	sorted := slices.Clone(f.Items)
	slices.SortStableFunc(sorted, func(a, b *Item) int { return a.Order - b.Order })

	items := make([]*FlexItem, 0, len(sorted))
	for _, it := range sorted {
		fi := &FlexItem{Item: it}
		size, lo, hi := axes.main(it)
		if it.FlexBasis > 0 {
			fi.hypothetical = clampSize(it.FlexBasis, lo, hi)
		} else {
			fi.hypothetical = clampSize(pick(size, lo), lo, hi)
		}
		fi.mainSize = fi.hypothetical
		crossSize, crossLo, crossHi := axes.cross(it)
		fi.crossSize = clampSize(pick(crossSize, crossLo), crossLo, crossHi)
		items = append(items, fi)
	}
	return items
}

func (f *FlexBox) breakLines(axes flexAxes, items []*FlexItem, containerMain float64) []*FlexLine {
	if f.Wrap == css.NoWrap {
		return []*FlexLine{{Items: items}}
	}

	var lines []*FlexLine
	current := &FlexLine{}
	used := 0.0
	for _, fi := range items {
		start, end := axes.mainMargins(fi.Item)
		outer := fi.hypothetical + start + end
		if len(current.Items) > 0 && used+outer > containerMain {
			lines = append(lines, current)
			current = &FlexLine{}
			used = 0
		}
		current.Items = append(current.Items, fi)
		used += outer
	}
	if len(current.Items) > 0 || len(lines) == 0 {
		lines = append(lines, current)
	}
	return lines
}

// resolveFlexibleLengths grows or shrinks the items of a line to fill the
// main axis, freezing items as they hit their min or max.
func resolveFlexibleLengths(axes flexAxes, line *FlexLine, containerMain float64) {
	used := 0.0
	for _, fi := range line.Items {
		start, end := axes.mainMargins(fi.Item)
		used += fi.hypothetical + start + end
	}
	growing := used < containerMain

	for _, fi := range line.Items {
		fi.mainSize = fi.hypothetical
		factor := fi.FlexShrink
		if growing {
			factor = fi.FlexGrow
		}
		fi.frozen = factor <= 0
	}

	for {
		free := containerMain
		factors := 0.0
		for _, fi := range line.Items {
			start, end := axes.mainMargins(fi.Item)
			free -= start + end
			if fi.frozen {
				free -= fi.mainSize
				continue
			}
			free -= fi.hypothetical
			if growing {
				factors += fi.FlexGrow
			} else {
				factors += fi.FlexShrink * fi.hypothetical
			}
		}
		if factors <= 0 {
			return
		}
		if growing && factors < 1 {
			free *= factors
		}

		violation := 0.0
		for _, fi := range line.Items {
			if fi.frozen {
				continue
			}
			share := free * fi.FlexGrow / factors
			if !growing {
				share = free * fi.FlexShrink * fi.hypothetical / factors
			}
			target := fi.hypothetical + share
			_, lo, hi := axes.main(fi.Item)
			clamped := clampSize(target, lo, hi)
			violation += clamped - target
			fi.mainSize = clamped
		}

		done := true
		for _, fi := range line.Items {
			if fi.frozen {
				continue
			}
			_, lo, hi := axes.main(fi.Item)
			switch {
			case violation == 0:
				fi.frozen = true
			case violation > 0 && fi.mainSize == lo:
				fi.frozen = true
			case violation < 0 && hi >= 0 && fi.mainSize == hi:
				fi.frozen = true
			default:
				done = false
			}
		}
		if done || violation == 0 {
			return
		}
	}
}

// sizeLines computes each line's cross size. A single line that does not
// wrap takes the container's whole cross axis.
func (f *FlexBox) sizeLines(axes flexAxes, lines []*FlexLine, containerCross float64) {
	for _, line := range lines {
		line.CrossSize = 0
		for _, fi := range line.Items {
			start, end := axes.crossMargins(fi.Item)
			line.CrossSize = math.Max(line.CrossSize, fi.crossSize+start+end)
		}
	}
	if f.Wrap == css.NoWrap && len(lines) == 1 {
		lines[0].CrossSize = containerCross
	}
}

func (f *FlexBox) alignContent(lines []*FlexLine, containerCross float64) {
	total := 0.0
	for _, line := range lines {
		total += line.CrossSize
	}
	free := containerCross - total

	mode := f.AlignContent
	if f.Wrap == css.NoWrap {
		mode = css.JustifyStart
	}
	if mode == css.JustifyStretch {
		if free > 0 {
			for _, line := range lines {
				line.CrossSize += free / float64(len(lines))
			}
		}
		mode = css.JustifyStart
	}

	offset, gap := distribute(mode, free, len(lines))
	pos := offset
	for _, line := range lines {
		line.crossPos = pos
		pos += line.CrossSize + gap
	}
}

func (f *FlexBox) alignItems(axes flexAxes, line *FlexLine) {
	for _, fi := range line.Items {
		align := fi.AlignSelf
		if align == css.AlignAuto {
			align = f.AlignItems
		}
		start, end := axes.crossMargins(fi.Item)
		size, lo, hi := axes.cross(fi.Item)

		if align == css.AlignStretch && size == Unset {
			fi.crossSize = clampSize(line.CrossSize-start-end, lo, hi)
		}

		switch align {
		case css.AlignEnd:
			fi.crossPos = line.crossPos + line.CrossSize - fi.crossSize - end
		case css.AlignCentre:
			fi.crossPos = line.crossPos + start + (line.CrossSize-fi.crossSize-start-end)/2
		default:
			fi.crossPos = line.crossPos + start
		}
	}
}

func (f *FlexBox) justify(axes flexAxes, line *FlexLine, containerMain float64) {
	free := containerMain
	for _, fi := range line.Items {
		start, end := axes.mainMargins(fi.Item)
		free -= fi.mainSize + start + end
	}

	offset, gap := distribute(f.JustifyContent, free, len(line.Items))
	pos := offset
	for _, fi := range line.Items {
		start, end := axes.mainMargins(fi.Item)
		fi.mainPos = pos + start
		pos += start + fi.mainSize + end + gap
	}
}

// distribute returns the leading offset and the gap between n boxes that
// share free space under a justification. Overflowing space falls back
// to the start for space-between and to the centre for the other spaced
// modes.
func distribute(mode css.Justify, free float64, n int) (offset, gap float64) {
	if n == 0 {
		return 0, 0
	}
	if free < 0 {
		switch mode {
		case css.JustifySpaceBetween:
			mode = css.JustifyStart
		case css.JustifySpaceAround, css.JustifySpaceEvenly:
			mode = css.JustifyCentre
		}
	}
	switch mode {
	case css.JustifyEnd:
		return free, 0
	case css.JustifyCentre:
		return free / 2, 0
	case css.JustifySpaceBetween:
		if n > 1 {
			return 0, free / float64(n-1)
		}
		return 0, 0
	case css.JustifySpaceAround:
		gap = free / float64(n)
		return gap / 2, gap
	case css.JustifySpaceEvenly:
		gap = free / float64(n+1)
		return gap, gap
	}
	return 0, 0
}
