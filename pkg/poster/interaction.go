package poster

import (
	"fmt"
	"math"

	"github.com/menta2k/labelkit/pkg/types"
)

// State is the current pointer gesture
type State int

const (
	Idle State = iota
	Dragging
	Resizing
	DraggingHeader
	DraggingFooter
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case DraggingHeader:
		return "dragging-header"
	case DraggingFooter:
		return "dragging-footer"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Point is a pointer location in client pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Direction is an arrow key
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Nudge steps in pixels
const (
	NudgeStep      = 1
	NudgeStepShift = 10
)

// Feedback is what the view shows for the gesture in progress or just committed
type Feedback struct {
	State    State          `json:"state"`
	ID       string         `json:"id,omitempty"`
	Position types.Position `json:"position"`
	Size     types.Size     `json:"size"`
	Offset   int            `json:"offset"`
}

// Interaction turns pointer and keyboard events into editor updates.
// Motion is previewed on every move and written to the editor only on pointer-up.
// Only one gesture runs at a time. The selected element takes arrow keys while no
// gesture is active, unless the view called Blur.
type Interaction struct {
	editor *Editor

	state   State
	target  string
	start   Point
	pos     types.Position
	size    types.Size
	band    int
	blurred bool
}

// NewInteraction binds an interaction layer to an editor
func NewInteraction(editor *Editor) *Interaction {
	return &Interaction{editor: editor}
}

// State returns the active gesture
func (in *Interaction) State() State {
	return in.state
}

// Focused reports whether arrow keys would move the selected element
func (in *Interaction) Focused() bool {
	return !in.blurred && in.state == Idle && in.editor.SelectedID() != ""
}

// PointerDown handles a press on an element. An unselected element is selected
// and nothing else happens; a selected one starts a drag.
func (in *Interaction) PointerDown(id string, p Point) (State, error) {
	if err := in.ready(); err != nil {
		return in.state, err
	}
	el, ok := in.editor.Get(id)
	if !ok {
		return in.state, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if in.editor.SelectedID() != id {
		if err := in.editor.Select(id); err != nil {
			return in.state, err
		}
		in.blurred = false
		return Idle, nil
	}

	in.begin(Dragging, id, p)
	in.pos = el.Position
	return in.state, nil
}

// ResizeStart handles a press on the resize handle of an element
func (in *Interaction) ResizeStart(id string, p Point) error {
	if err := in.ready(); err != nil {
		return err
	}
	el, ok := in.editor.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !el.Type.Resizable() {
		return fmt.Errorf("%w: %s", ErrNotResizable, el.Type)
	}
	if err := in.editor.Select(id); err != nil {
		return err
	}

	in.begin(Resizing, id, p)
	in.pos = el.Position
	in.size = el.EffectiveSize()
	return nil
}

// HeaderDragStart handles a press on the header band handle
func (in *Interaction) HeaderDragStart(p Point) error {
	if err := in.ready(); err != nil {
		return err
	}
	in.begin(DraggingHeader, "", p)
	in.band = in.editor.HeaderTop()
	return nil
}

// FooterDragStart handles a press on the footer band handle
func (in *Interaction) FooterDragStart(p Point) error {
	if err := in.ready(); err != nil {
		return err
	}
	in.begin(DraggingFooter, "", p)
	in.band = in.editor.FooterBottom()
	return nil
}

func (in *Interaction) ready() error {
	if in.editor.Preview() {
		return ErrPreviewMode
	}
	if in.state != Idle {
		return ErrGestureActive
	}
	return nil
}

func (in *Interaction) begin(s State, id string, p Point) {
	in.state = s
	in.target = id
	in.start = p
}

// PointerMove returns where the gesture would land without touching the editor
func (in *Interaction) PointerMove(p Point) (Feedback, error) {
	if in.state == Idle {
		return Feedback{}, ErrNoGesture
	}
	return in.feedback(p), nil
}

// PointerUp commits the gesture to the editor and returns to Idle
func (in *Interaction) PointerUp(p Point) (Feedback, error) {
	if in.state == Idle {
		return Feedback{}, ErrNoGesture
	}
	fb := in.feedback(p)

	var err error
	switch in.state {
	case Dragging:
		err = in.editor.Move(in.target, fb.Position)
	case Resizing:
		err = in.editor.Resize(in.target, fb.Size)
	case DraggingHeader:
		fb.Offset = in.editor.SetHeaderTop(fb.Offset)
	case DraggingFooter:
		fb.Offset = in.editor.SetFooterBottom(fb.Offset)
	}

	in.reset()
	if err != nil {
		return Feedback{}, err
	}
	fb.State = Idle
	return fb, nil
}

// Cancel abandons the active gesture without committing it
func (in *Interaction) Cancel() {
	in.reset()
}

func (in *Interaction) reset() {
	in.state = Idle
	in.target = ""
	in.start = Point{}
	in.pos = types.Position{}
	in.size = types.Size{}
	in.band = 0
}

func (in *Interaction) feedback(p Point) Feedback {
	dx := p.X - in.start.X
	dy := p.Y - in.start.Y

	fb := Feedback{State: in.state, ID: in.target, Position: in.pos, Size: in.size}
	switch in.state {
	case Dragging:
		fb.Position = types.Position{
			X: round(float64(in.pos.X) + dx),
			Y: round(float64(in.pos.Y) + dy),
		}
	case Resizing:
		fb.Size = types.Size{
			Width:  min(max(MinResize, round(float64(in.size.Width)+dx)), MaxWidth),
			Height: min(max(MinResize, round(float64(in.size.Height)+dy)), MaxHeight),
		}
	case DraggingHeader:
		fb.Offset = ClampBand(round(float64(in.band) + dy))
	case DraggingFooter:
		fb.Offset = ClampBand(round(float64(in.band) - dy))
	}
	return fb
}

// Focus gives the selected element keyboard focus back after Blur
func (in *Interaction) Focus() error {
	if in.state != Idle {
		return ErrGestureActive
	}
	if in.editor.SelectedID() == "" {
		return ErrNoSelection
	}
	in.blurred = false
	return nil
}

// Blur stops arrow keys from moving the selection, e.g. while a form field is edited
func (in *Interaction) Blur() {
	in.blurred = true
}

// Nudge moves the selected element by one arrow-key step and commits it
func (in *Interaction) Nudge(dir Direction, shift bool) (types.Position, error) {
	if in.editor.Preview() {
		return types.Position{}, ErrPreviewMode
	}
	if in.state != Idle {
		return types.Position{}, ErrGestureActive
	}
	el, ok := in.editor.Selected()
	if !ok {
		return types.Position{}, ErrNoSelection
	}
	if in.blurred {
		return types.Position{}, ErrNotFocused
	}

	step := NudgeStep
	if shift {
		step = NudgeStepShift
	}
	pos := el.Position
	switch dir {
	case Up:
		pos.Y -= step
	case Down:
		pos.Y += step
	case Left:
		pos.X -= step
	case Right:
		pos.X += step
	default:
		return types.Position{}, fmt.Errorf("unknown direction %d", dir)
	}

	if err := in.editor.Move(el.ID, pos); err != nil {
		return types.Position{}, err
	}
	return pos, nil
}

func round(v float64) int {
	return int(math.Round(v))
}
