// Package wizard drives a GPA analysis step by step: choose the mask size,
// pick and refine two g-vectors, then compute the distortion tensor.
package wizard

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"

	"gpastrain/internal/models"
	"gpastrain/pkg/gpa"
	"gpastrain/pkg/peaks"
)

// State is a step of the analysis
type State int

const (
	Idle State = iota
	AwaitRadius
	AwaitG1
	RefiningG1
	AwaitG2
	RefiningG2
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AwaitRadius:
		return "AwaitRadius"
	case AwaitG1:
		return "AwaitG1"
	case RefiningG1:
		return "RefiningG1"
	case AwaitG2:
		return "AwaitG2"
	case RefiningG2:
		return "RefiningG2"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrInvalidTransition is returned for events the current state does not accept
	ErrInvalidTransition = errors.New("wizard: event not accepted in current state")

	// ErrNothingToReuse is returned by ReuseG and RefineSameArea when no
	// earlier pick or rectangle exists
	ErrNothingToReuse = errors.New("wizard: nothing to reuse")
)

// Wizard is the analysis state machine over one Engine. It is not safe for
// concurrent use.
type Wizard struct {
	engine *gpa.Engine
	state  State
	logger *log.Logger

	radius float64
	sigma  float64 // fixed mask width; 0 derives it from the radius

	angle float64
	mode  gpa.Mode

	snap       *peaks.Index
	snapRadius float64

	// picks and refinement area of the previous run, in centred coordinates
	lastG    [2]*models.Coord2D[float64]
	lastRect *models.Rect
}

// Option configures a Wizard
type Option func(*Wizard)

// WithLogger traces state transitions to l
func WithLogger(l *log.Logger) Option {
	return func(w *Wizard) { w.logger = l }
}

// WithSigma fixes the mask width instead of deriving it from the radius
func WithSigma(sigma float64) Option {
	return func(w *Wizard) { w.sigma = sigma }
}

// WithSnapping moves every g-vector pick onto the nearest peak of ix within maxDist
func WithSnapping(ix *peaks.Index, maxDist float64) Option {
	return func(w *Wizard) {
		w.snap = ix
		w.snapRadius = maxDist
	}
}

// WithAngle sets the initial tensor rotation in degrees
func WithAngle(angle float64) Option {
	return func(w *Wizard) { w.angle = angle }
}

// WithMode sets the initial tensor mode
func WithMode(m gpa.Mode) Option {
	return func(w *Wizard) { w.mode = m }
}

// New creates a wizard in the Idle state
func New(engine *gpa.Engine, opts ...Option) *Wizard {
	w := &Wizard{
		engine: engine,
		logger: log.New(io.Discard, "", 0),
		mode:   gpa.Distortion,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current step
func (w *Wizard) State() State { return w.state }

// Engine returns the engine the wizard drives
func (w *Wizard) Engine() *gpa.Engine { return w.engine }

// Radius returns the accepted g-vector search radius
func (w *Wizard) Radius() float64 { return w.radius }

// Sigma returns the mask width used for new phases
func (w *Wizard) Sigma() float64 {
	if w.sigma > 0 {
		return w.sigma
	}
	return gpa.SigmaForRadius(w.radius)
}

// Angle returns the tensor rotation in degrees
func (w *Wizard) Angle() float64 { return w.angle }

// Mode returns the tensor mode
func (w *Wizard) Mode() gpa.Mode { return w.mode }

func (w *Wizard) moveTo(s State) {
	w.logger.Printf("wizard: %v -> %v", w.state, s)
	w.state = s
}

func (w *Wizard) expect(event string, states ...State) error {
	for _, s := range states {
		if w.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in %v", ErrInvalidTransition, event, w.state)
}

// slot returns the phase index the current state works on
func (w *Wizard) slot() int {
	if w.state == AwaitG2 || w.state == RefiningG2 {
		return 1
	}
	return 0
}

// Start begins an analysis and proposes the automatic radius estimate
func (w *Wizard) Start() error {
	if err := w.expect("start", Idle); err != nil {
		return err
	}
	w.radius = float64(w.engine.GVectorRadius())
	w.moveTo(AwaitRadius)
	return nil
}

// Restart abandons the current analysis and returns to the radius step.
// The previous picks stay available to ReuseG.
func (w *Wizard) Restart() error {
	if err := w.expect("restart", AwaitRadius, AwaitG1, RefiningG1, AwaitG2, RefiningG2, Done); err != nil {
		return err
	}
	w.radius = float64(w.engine.GVectorRadius())
	w.moveTo(AwaitRadius)
	return nil
}

// SmallestG sets the radius to the distance of a picked spot from the centre
func (w *Wizard) SmallestG(x, y float64) error {
	if err := w.expect("smallest g", AwaitRadius); err != nil {
		return err
	}
	w.radius = math.Hypot(x, y)
	return nil
}

// AcceptRadius accepts radius as the search radius; values <= 0 keep the
// current proposal
func (w *Wizard) AcceptRadius(radius float64) error {
	if err := w.expect("accept radius", AwaitRadius); err != nil {
		return err
	}
	if radius > 0 {
		w.radius = radius
	}
	if !(w.Sigma() > 0) {
		return fmt.Errorf("%w: radius %g", gpa.ErrInvalidSigma, w.radius)
	}
	w.moveTo(AwaitG1)
	return nil
}

// PickG calculates the current phase for a g-vector at (x, y) in centred
// spectrum pixels, snapping it to a detected peak when enabled
func (w *Wizard) PickG(x, y float64) error {
	if err := w.expect("pick g", AwaitG1, AwaitG2); err != nil {
		return err
	}

	pick := models.Coord2D[float64]{X: x, Y: y}
	if w.snap != nil {
		pick = w.snap.Snap(pick, w.snapRadius)
	}

	slot := w.slot()
	if err := w.engine.CalculatePhase(slot, pick.X, pick.Y, w.Sigma()); err != nil {
		return err
	}
	w.lastG[slot] = &pick

	if slot == 0 {
		w.moveTo(RefiningG1)
	} else {
		w.moveTo(RefiningG2)
	}
	return nil
}

// ReuseG picks the g-vector used for the current slot in the previous analysis
func (w *Wizard) ReuseG() error {
	if err := w.expect("reuse g", AwaitG1, AwaitG2); err != nil {
		return err
	}
	last := w.lastG[w.slot()]
	if last == nil {
		return fmt.Errorf("%w: no g-vector %d", ErrNothingToReuse, w.slot()+1)
	}
	return w.PickG(last.X, last.Y)
}

// LastG returns the last pick for phase slot i, in centred spectrum pixels
func (w *Wizard) LastG(i int) (models.Coord2D[float64], bool) {
	if (i != 0 && i != 1) || w.lastG[i] == nil {
		return models.Coord2D[float64]{}, false
	}
	return *w.lastG[i], true
}

// Refine refines the current phase over rect, given in image coordinates
// centred on (rows/2, cols/2). It may be called repeatedly.
func (w *Wizard) Refine(rect models.Rect) error {
	if err := w.expect("refine", RefiningG1, RefiningG2); err != nil {
		return err
	}

	p, err := w.engine.Phase(w.slot())
	if err != nil {
		return err
	}
	size := w.engine.Size()
	if err := p.Refine(rect.FromCentered(size.Y, size.X)); err != nil {
		return err
	}

	w.lastRect = &rect
	g := p.GVectorPixels()
	w.logger.Printf("wizard: refined g%d to (%.4f, %.4f)", w.slot()+1, g.X, g.Y)
	return nil
}

// RefineSameArea refines the current phase over the last used rectangle
func (w *Wizard) RefineSameArea() error {
	if err := w.expect("refine same area", RefiningG1, RefiningG2); err != nil {
		return err
	}
	if w.lastRect == nil {
		return fmt.Errorf("%w: no refinement area", ErrNothingToReuse)
	}
	return w.Refine(*w.lastRect)
}

// Accept finishes the current g-vector. Accepting the second one computes
// the distortion tensor; if that fails the wizard stays on the second g-vector.
func (w *Wizard) Accept() error {
	if err := w.expect("accept", RefiningG1, RefiningG2); err != nil {
		return err
	}

	if w.state == RefiningG1 {
		w.moveTo(AwaitG2)
		return nil
	}

	if err := w.engine.CalculateDistortion(w.angle, w.mode); err != nil {
		return err
	}
	w.moveTo(Done)
	return nil
}

// SetAngle changes the tensor rotation and recomputes the tensor when an
// analysis has finished and the angle differs
func (w *Wizard) SetAngle(angle float64) error {
	if w.state != Done || angle == w.angle {
		w.angle = angle
		return nil
	}
	if err := w.engine.CalculateDistortion(angle, w.mode); err != nil {
		return err
	}
	w.angle = angle
	return nil
}

// SetMode changes the tensor mode and recomputes the tensor when an
// analysis has finished
func (w *Wizard) SetMode(m gpa.Mode) error {
	if w.state != Done {
		w.mode = m
		return nil
	}
	if err := w.engine.CalculateDistortion(w.angle, m); err != nil {
		return err
	}
	w.mode = m
	return nil
}
