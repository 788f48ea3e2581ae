package verify

import (
	"fmt"

	"github.com/ternarybob/pitwall/internal/dom"
)

// Bound is a strict threshold on one coordinate of an element's top-left corner.
type Bound struct {
	Axis    byte // 'x' or 'y'
	Greater bool
	Value   float64
}

func MinX(v float64) Bound { return Bound{Axis: 'x', Greater: true, Value: v} }
func MaxX(v float64) Bound { return Bound{Axis: 'x', Value: v} }
func MinY(v float64) Bound { return Bound{Axis: 'y', Greater: true, Value: v} }
func MaxY(v float64) Bound { return Bound{Axis: 'y', Value: v} }

func (b Bound) String() string {
	op := "<"
	if b.Greater {
		op = ">"
	}
	return fmt.Sprintf("%c %s %g", b.Axis, op, b.Value)
}

func (b Bound) holds(box dom.Box) bool {
	v := box.X
	if b.Axis == 'y' {
		v = box.Y
	}
	if b.Greater {
		return v > b.Value
	}
	return v < b.Value
}

// CheckLayout returns a description of every bound box violates; nil means the layout is as expected.
func CheckLayout(box dom.Box, bounds ...Bound) []string {
	var violations []string
	for _, b := range bounds {
		if !b.holds(box) {
			violations = append(violations, fmt.Sprintf("expected %s, got x=%g y=%g", b, box.X, box.Y))
		}
	}
	return violations
}
