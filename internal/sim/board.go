package sim

import "math"

// Vec2 is a 2D vector in board space. y grows downward.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Peg is a static circular obstacle.
type Peg struct {
	Pos    Vec2
	Radius float64
}

// SlotSensor is a terminal scoring region at the bottom of the board.
// Index is the absolute offset from the board's center slot; the
// multiplier profile decreases outward from the center.
type SlotSensor struct {
	Index      int
	Multiplier int
	PointValue int64
	MinX       float64
	MaxX       float64
}

// multiplierProfile maps center-offset to multiplier; offsets past the
// profile's end are 1x.
var multiplierProfile = []int{16, 9, 5, 3}

func multiplierForOffset(offset int) int {
	if offset < len(multiplierProfile) {
		return multiplierProfile[offset]
	}
	return 1
}

// Board holds the static layout: walls are implied by [0, BoardWidth].
type Board struct {
	Pegs  []Peg
	Slots []SlotSensor
}

// NewBoard builds the standard staggered-peg pachinko layout with
// SlotCount slots along the bottom edge.
func NewBoard() *Board {
	b := &Board{}

	const (
		firstRowY  = 120.0
		lastRowY   = 500.0
		rowSpacing = 54.0
		colSpacing = 48.0
	)
	row := 0
	for y := firstRowY; y <= lastRowY; y += rowSpacing {
		offset := 0.0
		if row%2 == 1 {
			offset = colSpacing / 2
		}
		for x := colSpacing/2 + offset; x < BoardWidth; x += colSpacing {
			b.Pegs = append(b.Pegs, Peg{Pos: Vec2{X: x, Y: y}, Radius: PegRadius})
		}
		row++
	}

	slotWidth := BoardWidth / SlotCount
	center := SlotCount / 2
	for i := 0; i < SlotCount; i++ {
		offset := int(math.Abs(float64(i - center)))
		mult := multiplierForOffset(offset)
		b.Slots = append(b.Slots, SlotSensor{
			Index:      offset,
			Multiplier: mult,
			PointValue: int64(mult) * PointScale,
			MinX:       float64(i) * slotWidth,
			MaxX:       float64(i+1) * slotWidth,
		})
	}
	return b
}

// SlotAt returns the sensor covering x, or nil when x is off-board.
func (b *Board) SlotAt(x float64) *SlotSensor {
	if x < 0 || x >= BoardWidth {
		return nil
	}
	idx := int(x / (BoardWidth / SlotCount))
	if idx < 0 || idx >= len(b.Slots) {
		return nil
	}
	return &b.Slots[idx]
}
