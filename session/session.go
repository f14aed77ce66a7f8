// Package session ties one decoded image to its edit stack, history and
// render engine. A session serializes stack mutations, commits each one
// to the undo history (except while a coalesced gesture is open) and
// renders the current revision on demand, with a latest-wins policy for
// asynchronous renders.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/lux"
	"github.com/gogpu/lux/edit"
	"github.com/gogpu/lux/engine"
	"github.com/gogpu/lux/pipeline"
	"github.com/gogpu/lux/raw"
)

// Option configures a Session.
type Option func(*Session)

// WithHistoryCapacity bounds the undo depth.
func WithHistoryCapacity(n int) Option {
	return func(s *Session) { s.history = edit.NewHistory(n) }
}

// Session is an open edit of a single image. Safe for concurrent use.
type Session struct {
	img *raw.Image
	eng *engine.Engine

	mu         sync.Mutex
	stack      *edit.Stack
	history    *edit.History
	coalescing bool

	renderMu sync.Mutex
	cancel   context.CancelFunc
}

// View is a finished render plus its derived display data.
type View struct {
	Frame *lux.Frame
	Histo *Histogram

	// Seq is the revision sequence the view was rendered from.
	Seq uint64

	// Degraded mirrors the engine result flag.
	Degraded bool
}

// New opens a session on a decoded image.
func New(img *raw.Image, eng *engine.Engine, opts ...Option) *Session {
	s := &Session{
		img:     img,
		eng:     eng,
		stack:   edit.NewStack(),
		history: edit.NewHistory(edit.DefaultHistoryCapacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history.Commit(s.stack.Revision())
	return s
}

// Restore opens a session on a previously persisted revision.
func Restore(img *raw.Image, eng *engine.Engine, rev *edit.Revision, opts ...Option) *Session {
	s := New(img, eng, opts...)
	s.mu.Lock()
	s.stack = edit.FromRevision(rev)
	s.history.Commit(s.stack.Revision())
	s.mu.Unlock()
	return s
}

// Image returns the source image.
func (s *Session) Image() *raw.Image { return s.img }

// Revision returns the current revision.
func (s *Session) Revision() *edit.Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.Revision()
}

// Append adds an operation to the end of the stack.
func (s *Session) Append(op edit.Operation) (*edit.Revision, error) {
	return s.mutate(func() (*edit.Revision, error) { return s.stack.Append(op) })
}

// Update replaces the parameters of an operation in place.
func (s *Session) Update(id edit.OpID, p edit.Params) (*edit.Revision, error) {
	return s.mutate(func() (*edit.Revision, error) { return s.stack.Update(id, p) })
}

// Reorder moves an operation to a new index.
func (s *Session) Reorder(id edit.OpID, index int) (*edit.Revision, error) {
	return s.mutate(func() (*edit.Revision, error) { return s.stack.Reorder(id, index) })
}

// Remove deletes an operation.
func (s *Session) Remove(id edit.OpID) (*edit.Revision, error) {
	return s.mutate(func() (*edit.Revision, error) { return s.stack.Remove(id) })
}

// ToggleEnabled flips an operation's enabled state, keeping its
// parameters and identity.
func (s *Session) ToggleEnabled(id edit.OpID) (*edit.Revision, error) {
	return s.mutate(func() (*edit.Revision, error) { return s.stack.ToggleEnabled(id) })
}

func (s *Session) mutate(fn func() (*edit.Revision, error)) (*edit.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev, err := fn()
	if err != nil {
		return nil, err
	}
	if !s.coalescing {
		s.history.Commit(rev)
	}
	return rev, nil
}

// BeginCoalesced opens a gesture bracket: mutations made until
// EndCoalesced replace each other instead of piling up history entries.
// A slider drag commits one undo step, not hundreds.
func (s *Session) BeginCoalesced() {
	s.mu.Lock()
	s.coalescing = true
	s.mu.Unlock()
}

// EndCoalesced closes the gesture bracket and commits the final state as
// a single history entry.
func (s *Session) EndCoalesced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.coalescing {
		return
	}
	s.coalescing = false
	s.history.Commit(s.stack.Revision())
}

// Undo steps the session back one committed revision.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.stack = edit.FromRevision(rev)
	return true
}

// Redo steps forward again after an undo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.stack = edit.FromRevision(rev)
	return true
}

// CanUndo reports whether an undo step exists.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether a redo step exists.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Render compiles and renders the current revision synchronously.
func (s *Session) Render(ctx context.Context) (*View, error) {
	rev := s.Revision()
	return s.renderRevision(ctx, rev)
}

// RenderAsync renders the current revision on a new goroutine and calls
// done with the result. A newer RenderAsync call cancels the one in
// flight; the superseded call reports context.Canceled. Renders the user
// has already scrolled past never block the latest one.
func (s *Session) RenderAsync(done func(*View, error)) {
	s.renderMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.renderMu.Unlock()

	rev := s.Revision()
	go func() {
		defer cancel()
		view, err := s.renderRevision(ctx, rev)
		if err != nil && ctx.Err() != nil {
			lux.Logger().Debug("render superseded", slog.Uint64("seq", rev.Seq()))
			done(nil, ctx.Err())
			return
		}
		done(view, err)
	}()
}

func (s *Session) renderRevision(ctx context.Context, rev *edit.Revision) (*View, error) {
	frame := s.img.Frame()
	plan, err := pipeline.Compile(rev, frame.Width(), frame.Height(), s.img.ContentHash())
	if err != nil {
		return nil, fmt.Errorf("session: compile: %w", err)
	}
	res, err := s.eng.Render(ctx, plan, frame)
	if err != nil {
		return nil, err
	}
	return &View{
		Frame:    res.Frame,
		Histo:    ComputeHistogram(res.Frame),
		Seq:      rev.Seq(),
		Degraded: res.Degraded,
	}, nil
}
