package platform

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/taskleash/internal/surface"
)

// Backend abstracts the compositor the sync queue commits to.
type Backend interface {
	// Apply commits every operation in t, in order.
	Apply(t *surface.Transaction) error
	// SurfaceExists reports whether the compositor still knows h.
	SurfaceExists(h surface.Handle) (bool, error)
}

// surfaceOps is the per-surface vocabulary a window system provides.
type surfaceOps interface {
	Move(h surface.Handle, x, y int) error
	Resize(h surface.Handle, width, height int) error
	SetOpacity(h surface.Handle, alpha float64) error
	Map(h surface.Handle) error
	Unmap(h surface.Handle) error
}

// serverOps is a surfaceOps whose display server can be held still for the
// duration of a batch.
type serverOps interface {
	surfaceOps
	// ManagedGeometry reports whether moves and resizes are carried out by a
	// window manager rather than by the server directly.
	ManagedGeometry() bool
	GrabServer() error
	UngrabServer() error
}

// applyTransaction applies t in request order. When geometry goes straight
// to the server the batch runs inside a server grab and lands as one unit.
// A window manager cannot act while the server is grabbed, so managed
// batches are sent ungrabbed and take effect as the window manager handles
// them.
func applyTransaction(s serverOps, t *surface.Transaction, logger *slog.Logger) (err error) {
	if s.ManagedGeometry() {
		logger.Debug("applying transaction through window manager", "ops", t.Len())
		return applyOps(s, t, logger)
	}

	if err := s.GrabServer(); err != nil {
		return err
	}
	defer func() {
		if ungrabErr := s.UngrabServer(); ungrabErr != nil {
			err = errors.Join(err, ungrabErr)
		}
	}()
	return applyOps(s, t, logger)
}

// applyOps translates a transaction into window-system calls. Every op is
// attempted; failures are joined.
func applyOps(s surfaceOps, t *surface.Transaction, logger *slog.Logger) error {
	var errs []error
	for _, op := range t.Ops() {
		var err error
		switch op.Kind {
		case surface.OpSetPosition:
			err = s.Move(op.Handle, op.X, op.Y)
		case surface.OpSetWindowCrop:
			// Without a crop the window already shows its full size.
			switch {
			case op.Crop == nil:
			case op.Crop.Empty():
				err = fmt.Errorf("empty crop %s", op.Crop)
			default:
				err = s.Resize(op.Handle, op.Crop.Width(), op.Crop.Height())
			}
		case surface.OpSetAlpha:
			err = s.SetOpacity(op.Handle, float64(op.Alpha))
		case surface.OpSetMatrix:
			if !op.Matrix.IsIdentity() {
				logger.Debug("skipping unsupported surface transform", "op", op.String())
			}
		case surface.OpShow:
			err = s.Map(op.Handle)
		case surface.OpHide:
			err = s.Unmap(op.Handle)
		default:
			err = fmt.Errorf("unknown surface op %q", op.Kind)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", op, err))
		}
	}
	return errors.Join(errs...)
}
