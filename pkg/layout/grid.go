package layout

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"vista/pkg/css"
	"vista/pkg/geom"
	"vista/pkg/tree"
)

// TrackKind is how a grid track is sized.
type TrackKind int

const (
	TrackAuto TrackKind = iota
	TrackPixels
	TrackFraction
	TrackPercent
)

// Track is one entry of a grid template.
type Track struct {
	Kind  TrackKind
	Value float64
}

func Px(v float64) Track { return Track{Kind: TrackPixels, Value: v} }

func Fr(v float64) Track { return Track{Kind: TrackFraction, Value: v} }

func (t Track) String() string {
	v := strconv.FormatFloat(t.Value, 'f', -1, 64)
	switch t.Kind {
	case TrackPixels:
		return v + "px"
	case TrackFraction:
		return v + "fr"
	case TrackPercent:
		return v + "%"
	}
	return "auto"
}

// ParseTracks reads a track list such as "1fr 100px auto". Arrays are
// read element by element.
func ParseTracks(v tree.Value) []Track {
	var tokens []string
	switch v.Kind() {
	case tree.KindUndefined:
		return nil
	case tree.KindArray:
		for _, e := range v.AsArray() {
			tokens = append(tokens, e.AsString())
		}
	default:
		tokens = strings.Fields(v.AsString())
	}
	tracks := make([]Track, 0, len(tokens))
	for _, tok := range tokens {
		tracks = append(tracks, ParseTrack(tok))
	}
	return tracks
}

// ParseTrack reads a single track size. Unreadable text is auto.
func ParseTrack(text string) Track {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || text == "auto" {
		return Track{}
	}
	n, ok := tree.ParseNumberPrefix(text)
	if !ok {
		return Track{}
	}
	switch {
	case strings.HasSuffix(text, "fr"):
		return Fr(n)
	case strings.HasSuffix(text, "%"):
		return Track{Kind: TrackPercent, Value: n}
	}
	return Px(n)
}

var quotedRow = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)

// ParseAreas reads grid-template-areas: an array of row strings, quoted
// rows ("a a" "b c"), or comma separated rows.
func ParseAreas(v tree.Value) [][]string {
	var rows []string
	switch v.Kind() {
	case tree.KindUndefined:
		return nil
	case tree.KindArray:
		for _, e := range v.AsArray() {
			rows = append(rows, e.AsString())
		}
	default:
		text := v.AsString()
		if matches := quotedRow.FindAllStringSubmatch(text, -1); len(matches) > 0 {
			for _, m := range matches {
				rows = append(rows, m[1]+m[2])
			}
		} else {
			rows = strings.Split(text, ",")
		}
	}
	var out [][]string
	for _, r := range rows {
		if names := strings.Fields(r); len(names) > 0 {
			out = append(out, names)
		}
	}
	return out
}

// ParseGap reads the gap shorthand. The first value is the row gap and the
// second the column gap; a single value applies to both.
func ParseGap(v tree.Value) (row, column css.Length) {
	if v.IsNumber() {
		l := css.Px(v.AsNumber())
		return l, l
	}
	tokens := strings.Fields(v.AsString())
	if len(tokens) == 0 {
		return css.Px(0), css.Px(0)
	}
	row = css.ParseLengthString(tokens[0])
	column = row
	if len(tokens) > 1 {
		column = css.ParseLengthString(tokens[1])
	}
	return row, column
}

// area is a named rectangle of the template, in 0-based track indices
// with exclusive ends.
type area struct {
	rowStart, rowEnd int
	colStart, colEnd int
}

func namedAreas(rows [][]string) map[string]area {
	out := make(map[string]area)
	for r, names := range rows {
		for c, name := range names {
			if name == "." {
				continue
			}
			a, ok := out[name]
			if !ok {
				out[name] = area{rowStart: r, rowEnd: r + 1, colStart: c, colEnd: c + 1}
				continue
			}
			a.rowStart = min(a.rowStart, r)
			a.rowEnd = max(a.rowEnd, r+1)
			a.colStart = min(a.colStart, c)
			a.colEnd = max(a.colEnd, c+1)
			out[name] = a
		}
	}
	return out
}

// placement is an item's position on one axis. start is -1 when the item
// is auto-placed on that axis.
type placement struct {
	start, span int
}

func (p placement) definite() bool { return p.start >= 0 }

var autoPlacement = placement{start: -1, span: 1}

// parseLine reads one side of a placement: a line number (negative counts
// from the end of the explicit grid) or "span n".
func parseLine(text string, explicit int) (line int, span int, ok bool) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 || fields[0] == "auto" {
		return 0, 0, false
	}
	if fields[0] == "span" {
		n := 1
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil && v > 0 {
				n = v
			}
		}
		return 0, n, true
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil || v == 0 {
		return 0, 0, false
	}
	if v < 0 {
		v = explicit + 2 + v
	}
	return max(v, 1), 0, true
}

// parsePlacement reads a column or row attribute: "2", "1 / 3",
// "2 / span 2", "span 2" or the name of a template area.
func parsePlacement(text string, areas map[string]area, columns bool, explicit int) placement {
	text = strings.TrimSpace(text)
	if a, ok := areas[text]; ok {
		if columns {
			return placement{start: a.colStart, span: a.colEnd - a.colStart}
		}
		return placement{start: a.rowStart, span: a.rowEnd - a.rowStart}
	}

	startText, endText, twoSided := strings.Cut(text, "/")
	startLine, startSpan, startOK := parseLine(startText, explicit)
	if !twoSided {
		switch {
		case !startOK:
			return autoPlacement
		case startSpan > 0:
			return placement{start: -1, span: startSpan}
		}
		return placement{start: startLine - 1, span: 1}
	}

	endLine, endSpan, endOK := parseLine(endText, explicit)
	switch {
	case startOK && startSpan == 0 && endOK && endSpan == 0:
		if endLine < startLine {
			startLine, endLine = endLine, startLine
		}
		return placement{start: startLine - 1, span: max(endLine-startLine, 1)}
	case startOK && startSpan == 0 && endOK:
		return placement{start: startLine - 1, span: endSpan}
	case startOK && startSpan == 0:
		return placement{start: startLine - 1, span: 1}
	case startOK && endOK && endSpan == 0:
		return placement{start: max(endLine-1-startSpan, 0), span: startSpan}
	case startOK:
		return placement{start: -1, span: startSpan}
	}
	return autoPlacement
}

// parseArea reads the area attribute: a template area name or
// "row-start / column-start / row-end / column-end".
func parseArea(text string, areas map[string]area, explicitRows, explicitColumns int) (row, col placement, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return autoPlacement, autoPlacement, false
	}
	if a, found := areas[text]; found {
		return placement{start: a.rowStart, span: a.rowEnd - a.rowStart},
			placement{start: a.colStart, span: a.colEnd - a.colStart}, true
	}
	parts := strings.Split(text, "/")
	if len(parts) != 4 {
		return autoPlacement, autoPlacement, false
	}
	row = parsePlacement(parts[0]+"/"+parts[2], nil, false, explicitRows)
	col = parsePlacement(parts[1]+"/"+parts[3], nil, true, explicitColumns)
	return row, col, true
}

// Grid is one grid layout problem.
type Grid struct {
	JustifyItems   css.Align
	AlignItems     css.Align
	JustifyContent css.Justify
	AlignContent   css.Justify
	AutoFlow       css.AutoFlow

	TemplateColumns []Track
	TemplateRows    []Track
	TemplateAreas   [][]string
	AutoColumns     Track
	AutoRows        Track

	RowGap, ColumnGap float64

	Items []*Item
}

// GridCell is an item with its resolved track span.
type GridCell struct {
	Item             *Item
	Row, Column      int
	RowSpan, ColSpan int
}

// PerformLayout places every item in bounds and stores the result in each
// item's Bounds.
func (g *Grid) PerformLayout(bounds geom.Rect) {
	cells, rows, columns := g.place()

	colSizes := sizeTracks(g.tracks(g.TemplateColumns, g.AutoColumns, columns), bounds.Width, g.ColumnGap,
		g.JustifyContent == css.JustifyStretch, cellSpans(cells, true))
	rowSizes := sizeTracks(g.tracks(g.TemplateRows, g.AutoRows, rows), bounds.Height, g.RowGap,
		g.AlignContent == css.JustifyStretch, cellSpans(cells, false))

	colPos := trackPositions(colSizes, bounds.X, bounds.Width, g.ColumnGap, g.JustifyContent)
	rowPos := trackPositions(rowSizes, bounds.Y, bounds.Height, g.RowGap, g.AlignContent)

	for _, c := range cells {
		x := colPos[c.Column]
		w := colPos[c.Column+c.ColSpan-1] + colSizes[c.Column+c.ColSpan-1] - x
		y := rowPos[c.Row]
		h := rowPos[c.Row+c.RowSpan-1] + rowSizes[c.Row+c.RowSpan-1] - y

		it := c.Item
		justify := it.JustifySelf
		if justify == css.AlignAuto {
			justify = g.JustifyItems
		}
		align := it.AlignSelf
		if align == css.AlignAuto {
			align = g.AlignItems
		}
		left, width := alignInCell(justify, x, w, it.Width, it.MinWidth, it.MaxWidth, it.Margin.Left, it.Margin.Right)
		top, height := alignInCell(align, y, h, it.Height, it.MinHeight, it.MaxHeight, it.Margin.Top, it.Margin.Bottom)
		it.Bounds = geom.NewRect(left, top, width, height)
	}
}

func (g *Grid) tracks(template []Track, auto Track, count int) []Track {
	tracks := slices.Clone(template)
	for len(tracks) < count {
		tracks = append(tracks, auto)
	}
	return tracks
}

// place resolves every item's cell, auto-placing those without explicit
// lines in flow order.
func (g *Grid) place() (cells []*GridCell, rows, columns int) {
	areas := namedAreas(g.TemplateAreas)
	explicitRows := max(len(g.TemplateRows), len(g.TemplateAreas))
	explicitColumns := len(g.TemplateColumns)
	for _, r := range g.TemplateAreas {
		explicitColumns = max(explicitColumns, len(r))
	}

	items := slices.Clone(g.Items)
	slices.SortStableFunc(items, func(a, b *Item) int { return a.Order - b.Order })

	type request struct {
		item     *Item
		row, col placement
	}
	requests := make([]request, 0, len(items))
	for _, it := range items {
		row := parsePlacement(it.Row, areas, false, explicitRows)
		col := parsePlacement(it.Column, areas, true, explicitColumns)
		if r, c, ok := parseArea(it.Area, areas, explicitRows, explicitColumns); ok {
			row, col = r, c
		}
		requests = append(requests, request{item: it, row: row, col: col})
	}

	// The flow runs along the major axis; the minor axis has a fixed
	// number of tracks.
	byColumn := g.AutoFlow.IsColumn()
	major := func(r request) placement {
		if byColumn {
			return r.col
		}
		return r.row
	}
	minor := func(r request) placement {
		if byColumn {
			return r.row
		}
		return r.col
	}
	minorCount := explicitColumns
	if byColumn {
		minorCount = explicitRows
	}
	for _, r := range requests {
		m := minor(r)
		minorCount = max(minorCount, m.span)
		if m.definite() {
			minorCount = max(minorCount, m.start+m.span)
		}
	}
	minorCount = max(minorCount, 1)

	occupied := make(map[[2]int]bool)
	fits := func(ma, mi, maSpan, miSpan int) bool {
		if mi+miSpan > minorCount {
			return false
		}
		for a := ma; a < ma+maSpan; a++ {
			for b := mi; b < mi+miSpan; b++ {
				if occupied[[2]int{a, b}] {
					return false
				}
			}
		}
		return true
	}
	majorCount := 0
	mark := func(ma, mi, maSpan, miSpan int) {
		for a := ma; a < ma+maSpan; a++ {
			for b := mi; b < mi+miSpan; b++ {
				occupied[[2]int{a, b}] = true
			}
		}
		majorCount = max(majorCount, ma+maSpan)
	}

	resolved := make(map[*Item][2]placement, len(requests))
	record := func(r request, ma, mi placement) {
		mark(ma.start, mi.start, ma.span, mi.span)
		resolved[r.item] = [2]placement{ma, mi}
	}

	for _, r := range requests {
		if ma, mi := major(r), minor(r); ma.definite() && mi.definite() {
			record(r, ma, mi)
		}
	}
	for _, r := range requests {
		ma, mi := major(r), minor(r)
		if !ma.definite() || mi.definite() {
			continue
		}
		for col := 0; ; col++ {
			if fits(ma.start, col, ma.span, mi.span) || col+mi.span >= minorCount {
				record(r, ma, placement{start: col, span: mi.span})
				break
			}
		}
	}

	cursorMajor, cursorMinor := 0, 0
	for _, r := range requests {
		ma, mi := major(r), minor(r)
		if ma.definite() {
			continue
		}
		if g.AutoFlow.IsDense() {
			cursorMajor, cursorMinor = 0, 0
		}
		if mi.definite() {
			if mi.start < cursorMinor {
				cursorMajor++
			}
			for !fits(cursorMajor, mi.start, ma.span, mi.span) {
				cursorMajor++
			}
			record(r, placement{start: cursorMajor, span: ma.span}, mi)
			cursorMinor = mi.start + mi.span
			continue
		}
		for {
			if cursorMinor+mi.span > minorCount {
				cursorMajor++
				cursorMinor = 0
				continue
			}
			if fits(cursorMajor, cursorMinor, ma.span, mi.span) {
				break
			}
			cursorMinor++
		}
		record(r, placement{start: cursorMajor, span: ma.span}, placement{start: cursorMinor, span: mi.span})
		cursorMinor += mi.span
	}

	majorExplicit := explicitRows
	if byColumn {
		majorExplicit = explicitColumns
	}
	majorCount = max(majorCount, majorExplicit)

	for _, r := range requests {
		p := resolved[r.item]
		c := &GridCell{Item: r.item}
		if byColumn {
			c.Column, c.ColSpan, c.Row, c.RowSpan = p[0].start, p[0].span, p[1].start, p[1].span
		} else {
			c.Row, c.RowSpan, c.Column, c.ColSpan = p[0].start, p[0].span, p[1].start, p[1].span
		}
		cells = append(cells, c)
	}
	if byColumn {
		return cells, minorCount, majorCount
	}
	return cells, majorCount, minorCount
}

// trackSpan is an item's demand on a run of tracks.
type trackSpan struct {
	start, span int
	size        float64
}

func cellSpans(cells []*GridCell, columns bool) []trackSpan {
	spans := make([]trackSpan, 0, len(cells))
	for _, c := range cells {
		it := c.Item
		if columns {
			spans = append(spans, trackSpan{c.Column, c.ColSpan, it.preferredWidth() + it.Margin.Horizontal()})
		} else {
			spans = append(spans, trackSpan{c.Row, c.RowSpan, it.preferredHeight() + it.Margin.Vertical()})
		}
	}
	return spans
}

// sizeTracks resolves fixed tracks, grows auto tracks to their items and
// shares the remaining space between fractional tracks. When stretch is
// set and there are no fractional tracks, auto tracks absorb free space.
func sizeTracks(tracks []Track, available, gap float64, stretch bool, spans []trackSpan) []float64 {
	sizes := make([]float64, len(tracks))
	fractions := 0.0
	for i, t := range tracks {
		switch t.Kind {
		case TrackPixels:
			sizes[i] = t.Value
		case TrackPercent:
			sizes[i] = available * t.Value / 100
		case TrackFraction:
			fractions += t.Value
		}
	}

	slices.SortStableFunc(spans, func(a, b trackSpan) int { return a.span - b.span })
	for _, s := range spans {
		if s.start+s.span > len(tracks) {
			continue
		}
		current := gap * float64(s.span-1)
		var autos []int
		flexible := false
		for i := s.start; i < s.start+s.span; i++ {
			current += sizes[i]
			switch tracks[i].Kind {
			case TrackAuto:
				autos = append(autos, i)
			case TrackFraction:
				flexible = true
			}
		}
		if flexible || len(autos) == 0 || s.size <= current {
			continue
		}
		extra := (s.size - current) / float64(len(autos))
		for _, i := range autos {
			sizes[i] += extra
		}
	}

	used := gap * float64(max(len(tracks)-1, 0))
	for _, s := range sizes {
		used += s
	}
	free := available - used

	if fractions > 0 {
		if free > 0 {
			for i, t := range tracks {
				if t.Kind == TrackFraction {
					sizes[i] = free * t.Value / math.Max(fractions, 1)
				}
			}
		}
		return sizes
	}

	if stretch && free > 0 {
		var autos []int
		for i, t := range tracks {
			if t.Kind == TrackAuto {
				autos = append(autos, i)
			}
		}
		for _, i := range autos {
			sizes[i] += free / float64(len(autos))
		}
	}
	return sizes
}

func trackPositions(sizes []float64, origin, available, gap float64, mode css.Justify) []float64 {
	used := gap * float64(max(len(sizes)-1, 0))
	for _, s := range sizes {
		used += s
	}
	if mode == css.JustifyStretch {
		mode = css.JustifyStart
	}
	offset, extra := distribute(mode, available-used, len(sizes))

	positions := make([]float64, len(sizes))
	pos := origin + offset
	for i, s := range sizes {
		positions[i] = pos
		pos += s + gap + extra
	}
	return positions
}

// alignInCell sizes and places an item along one axis of its cell.
func alignInCell(align css.Align, cellStart, cellSize, size, lo, hi, marginStart, marginEnd float64) (pos, extent float64) {
	switch {
	case size != Unset:
		extent = clampSize(size, lo, hi)
	case align == css.AlignStretch:
		extent = clampSize(cellSize-marginStart-marginEnd, lo, hi)
	default:
		extent = clampSize(lo, lo, hi)
	}

	switch align {
	case css.AlignEnd:
		pos = cellStart + cellSize - extent - marginEnd
	case css.AlignCentre:
		pos = cellStart + marginStart + (cellSize-extent-marginStart-marginEnd)/2
	default:
		pos = cellStart + marginStart
	}
	return pos, extent
}
