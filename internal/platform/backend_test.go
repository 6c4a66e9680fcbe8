package platform

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/1broseidon/taskleash/internal/surface"
)

type fakeOps struct {
	calls   []string
	failMap bool
}

func (f *fakeOps) Move(h surface.Handle, x, y int) error {
	f.calls = append(f.calls, fmt.Sprintf("move %d %d,%d", h, x, y))
	return nil
}

func (f *fakeOps) Resize(h surface.Handle, width, height int) error {
	f.calls = append(f.calls, fmt.Sprintf("resize %d %dx%d", h, width, height))
	return nil
}

func (f *fakeOps) SetOpacity(h surface.Handle, alpha float64) error {
	f.calls = append(f.calls, fmt.Sprintf("opacity %d %.1f", h, alpha))
	return nil
}

func (f *fakeOps) Map(h surface.Handle) error {
	f.calls = append(f.calls, fmt.Sprintf("map %d", h))
	if f.failMap {
		return errors.New("bad window")
	}
	return nil
}

func (f *fakeOps) Unmap(h surface.Handle) error {
	f.calls = append(f.calls, fmt.Sprintf("unmap %d", h))
	return nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestApplyOps_TranslatesFullscreenReset(t *testing.T) {
	ops := &fakeOps{}
	tx := surface.NewTransaction().
		SetPosition(7, 10, 20).
		SetWindowCrop(7, nil).
		SetAlpha(7, 1).
		SetMatrix(7, 1, 0, 0, 1).
		Show(7)

	if err := applyOps(ops, tx, discard); err != nil {
		t.Fatalf("applyOps: %v", err)
	}
	want := "move 7 10,20|opacity 7 1.0|map 7"
	if got := strings.Join(ops.calls, "|"); got != want {
		t.Fatalf("calls = %q, want %q", got, want)
	}
}

func TestApplyOps_CropResizesAndHideUnmaps(t *testing.T) {
	ops := &fakeOps{}
	crop := surface.Rect{Left: 0, Top: 0, Right: 320, Bottom: 180}
	tx := surface.NewTransaction().SetWindowCrop(3, &crop).SetMatrix(3, 0.5, 0, 0, 0.5).Hide(3)

	if err := applyOps(ops, tx, discard); err != nil {
		t.Fatalf("applyOps: %v", err)
	}
	want := "resize 3 320x180|unmap 3"
	if got := strings.Join(ops.calls, "|"); got != want {
		t.Fatalf("calls = %q, want %q", got, want)
	}
}

func TestApplyOps_ContinuesPastFailures(t *testing.T) {
	ops := &fakeOps{failMap: true}
	tx := surface.NewTransaction().Show(1).SetPosition(1, 5, 5)

	err := applyOps(ops, tx, discard)
	if err == nil || !strings.Contains(err.Error(), "bad window") {
		t.Fatalf("expected joined map error, got %v", err)
	}
	if len(ops.calls) != 2 {
		t.Fatalf("expected both ops attempted, got %v", ops.calls)
	}
}

func TestApplyOps_EmptyCropIsRejected(t *testing.T) {
	ops := &fakeOps{}
	crop := surface.Rect{Left: 50, Top: 0, Right: 50, Bottom: 100}
	tx := surface.NewTransaction().SetWindowCrop(2, &crop).Show(2)

	err := applyOps(ops, tx, discard)
	if err == nil || !strings.Contains(err.Error(), "empty crop") {
		t.Fatalf("expected empty crop error, got %v", err)
	}
	if got := strings.Join(ops.calls, "|"); got != "map 2" {
		t.Fatalf("calls = %q, want %q", got, "map 2")
	}
}

type fakeServer struct {
	fakeOps
	managed   bool
	ungrabErr error
}

func (f *fakeServer) ManagedGeometry() bool { return f.managed }

func (f *fakeServer) GrabServer() error {
	f.calls = append(f.calls, "grab")
	return nil
}

func (f *fakeServer) UngrabServer() error {
	f.calls = append(f.calls, "ungrab")
	return f.ungrabErr
}

func TestApplyTransaction_DirectGeometryIsGrabbed(t *testing.T) {
	s := &fakeServer{}
	tx := surface.NewTransaction().SetPosition(7, 10, 20).SetAlpha(7, 1).Show(7)

	if err := applyTransaction(s, tx, discard); err != nil {
		t.Fatalf("applyTransaction: %v", err)
	}
	want := "grab|move 7 10,20|opacity 7 1.0|map 7|ungrab"
	if got := strings.Join(s.calls, "|"); got != want {
		t.Fatalf("calls = %q, want %q", got, want)
	}
}

func TestApplyTransaction_ManagedGeometryIsNotGrabbed(t *testing.T) {
	s := &fakeServer{managed: true}
	tx := surface.NewTransaction().SetPosition(7, 10, 20).Show(7)

	if err := applyTransaction(s, tx, discard); err != nil {
		t.Fatalf("applyTransaction: %v", err)
	}
	want := "move 7 10,20|map 7"
	if got := strings.Join(s.calls, "|"); got != want {
		t.Fatalf("calls = %q, want %q", got, want)
	}
}

func TestApplyTransaction_JoinsUngrabError(t *testing.T) {
	s := &fakeServer{fakeOps: fakeOps{failMap: true}, ungrabErr: errors.New("ungrab failed")}
	tx := surface.NewTransaction().Show(1)

	err := applyTransaction(s, tx, discard)
	if err == nil || !strings.Contains(err.Error(), "bad window") || !strings.Contains(err.Error(), "ungrab failed") {
		t.Fatalf("expected map and ungrab errors joined, got %v", err)
	}
	if s.calls[len(s.calls)-1] != "ungrab" {
		t.Fatalf("server left grabbed: %v", s.calls)
	}
}
