// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package hostview displays rendered previews inside a host gogpu
// application. The host owns the GPU device and the draw loop; hostview
// receives frames from a render session, uploads them to a texture
// owned by the host's renderer and draws that texture on demand.
//
// The host application (e.g. gogpu.App) implements
// gpucontext.DeviceProvider and passes it to New. hostview never
// creates a device of its own.
package hostview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/lux"
)

// Common errors returned by Viewport operations.
var (
	// ErrViewportClosed is returned when operations are attempted on a
	// closed viewport.
	ErrViewportClosed = errors.New("hostview: viewport is closed")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("hostview: nil DeviceProvider")

	// ErrNilFrame is returned when a nil frame is submitted.
	ErrNilFrame = errors.New("hostview: nil frame")

	// ErrNoTextureCreator is returned when the draw context cannot
	// create textures.
	ErrNoTextureCreator = errors.New("hostview: draw context has no texture creator")

	// ErrInvalidTexture is returned when the created texture does not
	// implement gpucontext.Texture.
	ErrInvalidTexture = errors.New("hostview: texture does not implement gpucontext.Texture")
)

// textureDestroyer matches the Destroy method of host textures.
type textureDestroyer interface {
	Destroy()
}

// Viewport holds the latest rendered frame and mirrors it into a GPU
// texture owned by the host renderer.
//
// SetFrame may be called from a render callback goroutine; Present must
// be called from the host's draw loop. A single mutex covers both.
type Viewport struct {
	mu       sync.Mutex
	provider gpucontext.DeviceProvider

	// Latest frame, encoded for display. data is sRGB RGBA8 rows.
	data   []byte
	width  int
	height int

	texture     any // host texture, created lazily on first Present
	oldTexture  any // previous texture awaiting deferred destruction
	dirty       bool
	sizeChanged bool
	closed      bool
}

// New creates a Viewport backed by the host's device provider.
// The provider should come from the host application, e.g.
// gogpu.App.GPUContextProvider().
func New(provider gpucontext.DeviceProvider) (*Viewport, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	return &Viewport{provider: provider}, nil
}

// SetFrame replaces the displayed frame. The frame is encoded to 8-bit
// sRGB immediately, so the caller may keep mutating or release it.
func (v *Viewport) SetFrame(f *lux.Frame) error {
	if f == nil {
		return ErrNilFrame
	}
	img := f.ToNRGBA()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewportClosed
	}
	if f.Width() != v.width || f.Height() != v.height {
		v.sizeChanged = true
	}
	v.width = f.Width()
	v.height = f.Height()
	v.data = img.Pix
	v.dirty = true
	return nil
}

// Size returns the dimensions of the current frame in pixels.
// Both are zero before the first SetFrame.
func (v *Viewport) Size() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

// IsDirty reports whether a new frame is pending GPU upload.
func (v *Viewport) IsDirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dirty
}

// Provider returns the DeviceProvider associated with this viewport.
// Returns nil after Close.
func (v *Viewport) Provider() gpucontext.DeviceProvider {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.provider
}

// Present draws the current frame at the origin of the host draw
// context. The dc parameter should be obtained from the host, e.g.
// gogpu.Context.AsTextureDrawer().
func (v *Viewport) Present(dc gpucontext.TextureDrawer) error {
	return v.PresentAt(dc, 0, 0)
}

// PresentAt draws the current frame at the given position.
//
// The first call after a new frame (or a size change) uploads pixel
// data to the host texture; later calls just draw the existing texture.
func (v *Viewport) PresentAt(dc gpucontext.TextureDrawer, x, y float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewportClosed
	}
	if v.data == nil {
		// Nothing rendered yet.
		return nil
	}

	tex, err := v.flushLocked()
	if err != nil {
		return err
	}

	// A pending texture carries the pixel data until a creator is
	// available; the real GPU texture can only be made here.
	if pending, ok := tex.(*pendingTexture); ok {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrNoTextureCreator
		}

		// NewTextureFromRGBA waits for the GPU internally, so once it
		// returns the old texture is no longer referenced by in-flight
		// command buffers and can be destroyed.
		realTex, err := creator.NewTextureFromRGBA(pending.width, pending.height, pending.data)
		if err != nil {
			return fmt.Errorf("hostview: NewTextureFromRGBA failed: %w", err)
		}
		v.texture = realTex
		tex = realTex

		if v.oldTexture != nil {
			if d, ok := v.oldTexture.(textureDestroyer); ok {
				d.Destroy()
			}
			v.oldTexture = nil
		}
	}

	gpuTex, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidTexture
	}
	return dc.DrawTexture(gpuTex, x, y)
}

// flushLocked returns the up-to-date texture, uploading pending pixel
// data if the viewport is dirty. Caller holds v.mu.
func (v *Viewport) flushLocked() (any, error) {
	// Size changes force a texture recreation. The old texture may
	// still be read by in-flight GPU work, so destruction is deferred
	// until after the next upload's GPU wait.
	if v.sizeChanged {
		if v.texture != nil {
			if v.oldTexture != nil {
				if d, ok := v.oldTexture.(textureDestroyer); ok {
					d.Destroy()
				}
			}
			v.oldTexture = v.texture
			v.texture = nil
		}
		v.sizeChanged = false
	}

	if !v.dirty && v.texture != nil {
		return v.texture, nil
	}

	if v.texture == nil {
		v.texture = &pendingTexture{width: v.width, height: v.height, data: v.data}
		v.dirty = false
		return v.texture, nil
	}

	if updater, ok := v.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(v.data); err != nil {
			return nil, fmt.Errorf("hostview: texture update failed: %w", err)
		}
	}
	v.dirty = false
	return v.texture, nil
}

// Close releases the host textures. Close is idempotent.
func (v *Viewport) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	for _, t := range []any{v.oldTexture, v.texture} {
		if d, ok := t.(textureDestroyer); ok {
			d.Destroy()
		}
	}
	v.oldTexture = nil
	v.texture = nil
	v.data = nil
	v.provider = nil
	return nil
}

// pendingTexture holds pixel data until a texture creator is available.
// Real textures can only be created inside PresentAt, where the host
// draw context is in scope.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}
