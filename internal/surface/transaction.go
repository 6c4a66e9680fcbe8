package surface

import "fmt"

// OpKind identifies a single surface mutation.
type OpKind string

const (
	OpSetPosition   OpKind = "SET_POSITION"
	OpSetWindowCrop OpKind = "SET_WINDOW_CROP"
	OpSetAlpha      OpKind = "SET_ALPHA"
	OpSetMatrix     OpKind = "SET_MATRIX"
	OpShow          OpKind = "SHOW"
	OpHide          OpKind = "HIDE"
)

// Op is one mutation request. Only the fields relevant to Kind are set.
type Op struct {
	Kind   OpKind  `json:"kind"`
	Handle Handle  `json:"handle"`
	X      int     `json:"x,omitempty"`
	Y      int     `json:"y,omitempty"`
	Crop   *Rect   `json:"crop,omitempty"` // nil clears the crop
	Alpha  float32 `json:"alpha,omitempty"`
	Matrix Matrix  `json:"matrix,omitempty"`
}

func (o Op) String() string {
	switch o.Kind {
	case OpSetPosition:
		return fmt.Sprintf("%s #%d (%d,%d)", o.Kind, o.Handle, o.X, o.Y)
	case OpSetWindowCrop:
		if o.Crop == nil {
			return fmt.Sprintf("%s #%d cleared", o.Kind, o.Handle)
		}
		return fmt.Sprintf("%s #%d %s", o.Kind, o.Handle, o.Crop)
	case OpSetAlpha:
		return fmt.Sprintf("%s #%d %.2f", o.Kind, o.Handle, o.Alpha)
	case OpSetMatrix:
		m := o.Matrix
		return fmt.Sprintf("%s #%d [%g %g %g %g]", o.Kind, o.Handle, m.DsDx, m.DtDx, m.DtDy, m.DsDy)
	default:
		return fmt.Sprintf("%s #%d", o.Kind, o.Handle)
	}
}

// Transaction collects surface mutations that must reach the compositor
// together. It is not safe for concurrent use; the sync queue hands each
// closure the transaction for the current cycle one at a time.
type Transaction struct {
	ops []Op
}

// NewTransaction returns an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// SetPosition moves the surface's top-left corner to (x, y).
func (t *Transaction) SetPosition(h Handle, x, y int) *Transaction {
	return t.add(Op{Kind: OpSetPosition, Handle: h, X: x, Y: y})
}

// SetWindowCrop crops the surface to crop. A nil crop removes any crop.
func (t *Transaction) SetWindowCrop(h Handle, crop *Rect) *Transaction {
	op := Op{Kind: OpSetWindowCrop, Handle: h}
	if crop != nil {
		c := *crop
		op.Crop = &c
	}
	return t.add(op)
}

// SetAlpha sets surface opacity in [0, 1].
func (t *Transaction) SetAlpha(h Handle, alpha float32) *Transaction {
	return t.add(Op{Kind: OpSetAlpha, Handle: h, Alpha: alpha})
}

// SetMatrix sets the surface transform.
func (t *Transaction) SetMatrix(h Handle, dsdx, dtdx, dtdy, dsdy float32) *Transaction {
	return t.add(Op{Kind: OpSetMatrix, Handle: h, Matrix: Matrix{DsDx: dsdx, DtDx: dtdx, DtDy: dtdy, DsDy: dsdy}})
}

// Show makes the surface visible.
func (t *Transaction) Show(h Handle) *Transaction {
	return t.add(Op{Kind: OpShow, Handle: h})
}

// Hide makes the surface invisible.
func (t *Transaction) Hide(h Handle) *Transaction {
	return t.add(Op{Kind: OpHide, Handle: h})
}

// Ops returns a copy of the queued operations in submission order.
func (t *Transaction) Ops() []Op {
	out := make([]Op, len(t.ops))
	copy(out, t.ops)
	return out
}

// Len returns the number of queued operations.
func (t *Transaction) Len() int {
	return len(t.ops)
}

// Empty reports whether t carries no operations.
func (t *Transaction) Empty() bool {
	return len(t.ops) == 0
}

func (t *Transaction) add(op Op) *Transaction {
	t.ops = append(t.ops, op)
	return t
}
