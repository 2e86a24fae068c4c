package css

import (
	"vista/pkg/property"
)

// Display selects the layout a container applies to its children.
type Display int

const (
	DisplayFlex Display = iota
	DisplayGrid
	DisplayBlock
)

var DisplayCodec = property.Enum(DisplayFlex,
	map[Display]string{DisplayFlex: "flex", DisplayGrid: "grid", DisplayBlock: "block"}, nil)

// Alignment keywords are spelled "centre"; "center" is accepted as an
// alias throughout.
const centreAlias = "center"

type FlexDirection int

const (
	Row FlexDirection = iota
	RowReverse
	Column
	ColumnReverse
)

// IsRow reports whether the main axis is horizontal.
func (d FlexDirection) IsRow() bool { return d == Row || d == RowReverse }

func (d FlexDirection) IsReversed() bool { return d == RowReverse || d == ColumnReverse }

var FlexDirectionCodec = property.Enum(Column,
	map[FlexDirection]string{Row: "row", RowReverse: "row-reverse", Column: "column", ColumnReverse: "column-reverse"}, nil)

type FlexWrap int

const (
	NoWrap FlexWrap = iota
	Wrap
	WrapReverse
)

var FlexWrapCodec = property.Enum(NoWrap,
	map[FlexWrap]string{NoWrap: "nowrap", Wrap: "wrap", WrapReverse: "wrap-reverse"}, nil)

// Justify distributes free space along an axis.
type Justify int

const (
	JustifyStart Justify = iota
	JustifyEnd
	JustifyCentre
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
	JustifyStretch
)

var FlexJustifyCodec = property.Enum(JustifyStart,
	map[Justify]string{
		JustifyStart:        "flex-start",
		JustifyEnd:          "flex-end",
		JustifyCentre:       "centre",
		JustifySpaceBetween: "space-between",
		JustifySpaceAround:  "space-around",
		JustifySpaceEvenly:  "space-evenly",
	},
	map[string]Justify{centreAlias: JustifyCentre, "start": JustifyStart, "end": JustifyEnd})

// Align places items on the cross axis of their line or cell.
type Align int

const (
	AlignAuto Align = iota
	AlignStart
	AlignEnd
	AlignCentre
	AlignStretch
)

var FlexAlignItemsCodec = property.Enum(AlignStretch,
	map[Align]string{AlignStart: "flex-start", AlignEnd: "flex-end", AlignCentre: "centre", AlignStretch: "stretch"},
	map[string]Align{centreAlias: AlignCentre, "start": AlignStart, "end": AlignEnd})

var FlexAlignSelfCodec = property.Enum(AlignAuto,
	map[Align]string{AlignAuto: "auto", AlignStart: "flex-start", AlignEnd: "flex-end", AlignCentre: "centre", AlignStretch: "stretch"},
	map[string]Align{centreAlias: AlignCentre, "start": AlignStart, "end": AlignEnd})

var FlexAlignContentCodec = property.Enum(JustifyStretch,
	map[Justify]string{
		JustifyStretch:      "stretch",
		JustifyStart:        "flex-start",
		JustifyEnd:          "flex-end",
		JustifyCentre:       "centre",
		JustifySpaceBetween: "space-between",
		JustifySpaceAround:  "space-around",
		JustifySpaceEvenly:  "space-evenly",
	},
	map[string]Justify{centreAlias: JustifyCentre, "start": JustifyStart, "end": JustifyEnd})

var GridItemsCodec = property.Enum(AlignStretch,
	map[Align]string{AlignStart: "start", AlignEnd: "end", AlignCentre: "centre", AlignStretch: "stretch"},
	map[string]Align{centreAlias: AlignCentre})

var GridSelfCodec = property.Enum(AlignAuto,
	map[Align]string{AlignAuto: "auto", AlignStart: "start", AlignEnd: "end", AlignCentre: "centre", AlignStretch: "stretch"},
	map[string]Align{centreAlias: AlignCentre})

var GridContentCodec = property.Enum(JustifyStretch,
	map[Justify]string{
		JustifyStart:        "start",
		JustifyEnd:          "end",
		JustifyCentre:       "centre",
		JustifyStretch:      "stretch",
		JustifySpaceAround:  "space-around",
		JustifySpaceBetween: "space-between",
		JustifySpaceEvenly:  "space-evenly",
	},
	map[string]Justify{centreAlias: JustifyCentre})

// AutoFlow controls how the grid places items without explicit lines.
type AutoFlow int

const (
	FlowRow AutoFlow = iota
	FlowColumn
	FlowRowDense
	FlowColumnDense
)

func (f AutoFlow) IsColumn() bool { return f == FlowColumn || f == FlowColumnDense }

func (f AutoFlow) IsDense() bool { return f == FlowRowDense || f == FlowColumnDense }

var AutoFlowCodec = property.Enum(FlowRow,
	map[AutoFlow]string{FlowRow: "row", FlowColumn: "column", FlowRowDense: "row dense", FlowColumnDense: "column dense"}, nil)
