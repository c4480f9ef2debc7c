package geometry

// WidthClass is the index encoding tier a geometry's primitives go to.
type WidthClass int

const (
	Width8 WidthClass = iota
	Width16
	Width32
)

// NumWidthClasses is the number of index encoding tiers.
const NumWidthClasses = 3

// Upper bounds on unique positions for each class.
const (
	MaxPositions8Bits  = 1 << 8
	MaxPositions16Bits = 1 << 16
)

// ClassFor routes a geometry by its unique position count alone.
func ClassFor(numUniquePositions int) WidthClass {
	switch {
	case numUniquePositions <= MaxPositions8Bits:
		return Width8
	case numUniquePositions <= MaxPositions16Bits:
		return Width16
	default:
		return Width32
	}
}

// Bits returns the index element width.
func (w WidthClass) Bits() int {
	switch w {
	case Width8:
		return 8
	case Width16:
		return 16
	default:
		return 32
	}
}

// Bytes returns the index element size in bytes.
func (w WidthClass) Bytes() int {
	return w.Bits() / 8
}

func (w WidthClass) String() string {
	switch w {
	case Width8:
		return "8bit"
	case Width16:
		return "16bit"
	case Width32:
		return "32bit"
	}
	return "unknown"
}
