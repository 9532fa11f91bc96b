// Package tests holds hardware bring-up plans that take over the frame
// while they run.
package tests

import (
	"fmt"

	"github.com/coreman2200/layercube/internal/cube"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	PlaneZ     Kind = "plane_z"
)

// ParseKind accepts the wire names used by the control API.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case IndexSweep, RGBTest, PlaneZ:
		return k, nil
	}
	return None, fmt.Errorf("unknown test %q", s)
}

type Plan struct {
	Kind Kind
	// Cycles bounds RGBTest; zero means three (one per channel).
	Cycles int
}

type Runner struct {
	plan Plan
	step int
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }

func (r *Runner) Kind() Kind { return r.plan.Kind }

// Steps taken so far.
func (r *Runner) Steps() int { return r.step }

// Step paints the next test frame into v; returns false when complete, leaving
// v black.
func (r *Runner) Step(v *cube.Volume) bool {
	v.Clear()

	switch r.plan.Kind {
	case IndexSweep:
		if r.step >= cube.Total {
			return false
		}
		v.Set(cube.CoordOf(r.step), cube.White)
	case RGBTest:
		n := r.plan.Cycles
		if n <= 0 {
			n = 3
		}
		if r.step >= n {
			return false
		}
		v.Fill([]cube.Color{cube.Red, cube.Green, cube.Blue}[r.step%3])
	case PlaneZ:
		if r.step >= cube.Depth {
			return false
		}
		for y := 0; y < cube.Size; y++ {
			for x := 0; x < cube.Size; x++ {
				v.Set(cube.Coord{X: x, Y: y, Z: r.step}, cube.Cyan)
			}
		}
	default:
		return false
	}
	r.step++
	return true
}
