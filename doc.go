// Package lux is a non-destructive RAW photo develop engine.
//
// # Overview
//
// lux decodes camera RAW sensor data, applies a reorderable, re-editable
// stack of image operations, and renders results through GPU compute passes.
// Only the edit instructions are ever persisted; source pixels are never
// modified.
//
//	img, _ := raw.NewRegistry().DecodeFile(ctx, "IMG_0001.dng")
//	eng, _ := engine.New(nil)
//	s := session.New(img, eng)
//	s.Append(edit.New(edit.ExposureParams{Stops: 1}))
//	view, _ := s.Render(ctx)
//
// # Architecture
//
// The module is organized leaf-first:
//   - lux (root): Frame pixel buffers, geometry, sRGB boundary conversion
//   - raw: RAW decode boundary and built-in Bayer superpixel develop
//   - edit: edit stack, revisions, history, sidecar serialization
//   - mask: procedural and AI-derived masks, mask provider
//   - pipeline: compiles a stack revision into an ordered pass list
//   - engine: executes passes with a Merkle-keyed render cache
//   - session: coalesced interactive editing and async re-renders
//   - export: resize and encode of final buffers
//   - integration/hostview: preview display inside a host gogpu app
//
// All intermediate math is linear float32; display-referred conversion
// happens only in the final output pass.
package lux
