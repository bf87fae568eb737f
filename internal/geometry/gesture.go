package geometry

import (
	"fmt"
	"strings"
)

// Phase is the stage of a continuous gesture as reported by a recognizer.
type Phase int

const (
	PhaseBegan Phase = iota
	PhaseChanged
	PhaseEnded
	PhaseCancelled
)

var phaseNames = map[Phase]string{
	PhaseBegan:     "began",
	PhaseChanged:   "changed",
	PhaseEnded:     "ended",
	PhaseCancelled: "cancelled",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ParsePhase parses a phase name. An empty string means PhaseChanged.
func ParsePhase(s string) (Phase, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PhaseChanged, nil
	}
	for p, name := range phaseNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown gesture phase: %q", s)
}

// GestureState holds the pending translation and scale of the gestures in
// flight. Each value is consumed when applied: translation resets to zero and
// scale resets to one, mirroring a recognizer whose translation and scale are
// reset after every change.
type GestureState struct {
	PanX  float64 `json:"pan_x"`
	PanY  float64 `json:"pan_y"`
	Scale float64 `json:"scale"`
}

func newGestureState() GestureState {
	return GestureState{Scale: 1}
}

// AddPan accumulates a translation.
func (g *GestureState) AddPan(dx, dy float64) {
	g.PanX += dx
	g.PanY += dy
}

// TakePan returns the pending translation and resets it to zero.
func (g *GestureState) TakePan() (float64, float64) {
	dx, dy := g.PanX, g.PanY
	g.PanX, g.PanY = 0, 0
	return dx, dy
}

// MulScale accumulates a multiplicative scale factor.
func (g *GestureState) MulScale(f float64) {
	g.Scale *= f
}

// TakeScale returns the pending scale factor and resets it to one.
func (g *GestureState) TakeScale() float64 {
	s := g.Scale
	g.Scale = 1
	return s
}
