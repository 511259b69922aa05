// Package frame provides the concrete Frame payload type used by the
// demo program and tests. spec.md treats the frame representation as
// an opaque payload owned entirely by external collaborators; Frame is
// one such collaborator - a plain handle around raw image bytes with the Display capability the scheduler's show=true
// option invokes on release (spec §6).
package frame

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hbomb79/vtm/pkg/logger"
)

var log = logger.Get("frame")

// Frame is a single ingested unit of video, identified by a
// process-local id and carrying an opaque byte payload (e.g. raw
// pixels, or an encoded image - the scheduler never inspects it).
type Frame struct {
	ID      uuid.UUID
	Width   int
	Height  int
	Data    []byte
	Created time.Time
}

// New wraps raw pixel/encoded data into a Frame.
func New(width, height int, data []byte) *Frame {
	return &Frame{
		ID:      uuid.New(),
		Width:   width,
		Height:  height,
		Data:    data,
		Created: time.Now(),
	}
}

// Display satisfies scheduler.Displayable: the demo program's show=true
// path invokes this instead of a real windowing call, since on-screen
// display is out of scope for the core (spec §1).
func (f *Frame) Display(delay time.Duration) {
	log.Emit(logger.INFO, "displaying frame %s (%dx%d) for %s\n", f.ID, f.Width, f.Height, delay)
	if delay > 0 {
		time.Sleep(delay)
	}
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame{%s %dx%d %dB}", f.ID, f.Width, f.Height, len(f.Data))
}

// ExportBytes satisfies diagnostic.Exportable, handing the sink the
// frame's raw payload directly.
func (f *Frame) ExportBytes() ([]byte, error) {
	return f.Data, nil
}

// ExportMeta satisfies diagnostic.Exportable, supplying the generic
// map the sink decodes via mapstructure into its own ExportMetadata.
func (f *Frame) ExportMeta() map[string]any {
	return map[string]any{
		"Label": f.ID.String(),
		"Tags":  []string{fmt.Sprintf("%dx%d", f.Width, f.Height)},
	}
}
