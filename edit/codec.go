package edit

import (
	"encoding/json"
	"fmt"
)

// DocumentVersion is the current sidecar schema version. Readers accept
// any version up to this one; writers always emit the current version.
const DocumentVersion = 1

// Document is the JSON sidecar form of an edit stack. It carries the
// declared operation order, kind tags and parameter records, and stays
// valid across process restarts: identities are the stable operation IDs,
// not in-memory pointers.
type Document struct {
	Version    int            `json:"version"`
	Seq        uint64         `json:"seq"`
	Operations []OperationDoc `json:"operations"`
}

// OperationDoc is one serialized operation. Params is decoded according
// to Kind.
type OperationDoc struct {
	ID      OpID            `json:"id"`
	Kind    Kind            `json:"kind"`
	Enabled bool            `json:"enabled"`
	Params  json.RawMessage `json:"params"`
}

// Marshal serializes a revision to sidecar JSON.
func Marshal(rev *Revision) ([]byte, error) {
	doc := Document{Version: DocumentVersion, Seq: rev.Seq()}
	for _, op := range rev.Ops() {
		raw, err := json.Marshal(op.Params)
		if err != nil {
			return nil, fmt.Errorf("edit: marshal %s: %w", op.Kind(), err)
		}
		doc.Operations = append(doc.Operations, OperationDoc{
			ID:      op.ID,
			Kind:    op.Kind(),
			Enabled: op.Enabled,
			Params:  raw,
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal parses sidecar JSON and rebuilds a validated revision.
// Unknown kinds and out-of-range parameters are rejected, as are stacks
// whose mask dependencies do not resolve in the declared order.
func Unmarshal(data []byte) (*Revision, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("edit: parse sidecar: %w", err)
	}
	if doc.Version < 1 || doc.Version > DocumentVersion {
		return nil, fmt.Errorf("edit: unsupported sidecar version %d", doc.Version)
	}
	ops := make([]Operation, 0, len(doc.Operations))
	for i, od := range doc.Operations {
		p, err := decodeParams(od.Kind, od.Params)
		if err != nil {
			return nil, fmt.Errorf("edit: operation %d (%s): %w", i, od.Kind, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("edit: operation %d: %w", i, err)
		}
		id := od.ID
		if id == "" {
			id = NewOpID()
		}
		ops = append(ops, Operation{ID: id, Enabled: od.Enabled, Params: p})
	}
	if err := CheckDependencies(ops); err != nil {
		return nil, fmt.Errorf("edit: sidecar: %w", err)
	}
	return &Revision{seq: doc.Seq, ops: ops}, nil
}

// decodeParams picks the parameter type for a kind tag.
func decodeParams(k Kind, raw json.RawMessage) (Params, error) {
	var p Params
	switch k {
	case KindExposure:
		p = &ExposureParams{}
	case KindContrast:
		p = &ContrastParams{}
	case KindHighlights:
		p = &HighlightsParams{}
	case KindShadows:
		p = &ShadowsParams{}
	case KindWhites:
		p = &WhitesParams{}
	case KindBlacks:
		p = &BlacksParams{}
	case KindCurve:
		p = &CurveParams{}
	case KindWhiteBalance:
		p = &WhiteBalanceParams{}
	case KindHSL:
		p = &HSLParams{}
	case KindCalibration:
		p = &CalibrationParams{}
	case KindCrop:
		p = &CropParams{}
	case KindRotate:
		p = &RotateParams{}
	case KindPerspective:
		p = &PerspectiveParams{}
	case KindLocal:
		p = &LocalParams{}
	default:
		return nil, fmt.Errorf("%q: %w", k, ErrUnknownOperation)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, err
		}
	}
	return deref(p), nil
}

// deref converts the pointer used for decoding back to the value form the
// stack carries.
func deref(p Params) Params {
	switch v := p.(type) {
	case *ExposureParams:
		return *v
	case *ContrastParams:
		return *v
	case *HighlightsParams:
		return *v
	case *ShadowsParams:
		return *v
	case *WhitesParams:
		return *v
	case *BlacksParams:
		return *v
	case *CurveParams:
		return *v
	case *WhiteBalanceParams:
		return *v
	case *HSLParams:
		return *v
	case *CalibrationParams:
		return *v
	case *CropParams:
		return *v
	case *RotateParams:
		return *v
	case *PerspectiveParams:
		return *v
	case *LocalParams:
		return *v
	}
	return p
}
