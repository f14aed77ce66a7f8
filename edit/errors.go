package edit

import (
	"errors"
	"fmt"
)

// Edit stack errors.
var (
	// ErrParamRange is returned when a parameter is outside its bounded range.
	ErrParamRange = errors.New("edit: parameter out of range")

	// ErrInvalidOperationOrder is returned when a mutation would break the
	// mask/upstream dependency invariant. The stack is left unchanged.
	ErrInvalidOperationOrder = errors.New("edit: invalid operation order")

	// ErrUnknownOperation is returned when an operation id is not in the stack.
	ErrUnknownOperation = errors.New("edit: unknown operation")

	// ErrNilParams is returned when an operation has no parameter record.
	ErrNilParams = errors.New("edit: nil params")
)

// DependencyError reports a local operation whose mask references an
// operation that is missing or does not precede it.
type DependencyError struct {
	// Op is the local operation owning the mask.
	Op OpID
	// Ref is the referenced upstream operation.
	Ref OpID
	// Missing is true when Ref is absent from the stack entirely.
	Missing bool
}

// Error implements the error interface.
func (e *DependencyError) Error() string {
	if e.Missing {
		return fmt.Sprintf("edit: operation %s references missing operation %s", e.Op, e.Ref)
	}
	return fmt.Sprintf("edit: operation %s references operation %s which does not precede it", e.Op, e.Ref)
}

// CheckDependencies verifies the ordering invariant: every local operation
// whose mask declares an upstream dependency must be preceded by that
// operation. Returns a *DependencyError describing the first violation.
func CheckDependencies(ops []Operation) error {
	seen := make(map[OpID]bool, len(ops))
	for _, op := range ops {
		if m := op.Mask(); m != nil && m.DependsOn != "" {
			ref := OpID(m.DependsOn)
			if !seen[ref] {
				missing := true
				for _, other := range ops {
					if other.ID == ref {
						missing = false
						break
					}
				}
				return &DependencyError{Op: op.ID, Ref: ref, Missing: missing}
			}
		}
		seen[op.ID] = true
	}
	return nil
}
