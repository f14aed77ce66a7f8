package edit

import (
	"fmt"
	"reflect"
)

// Revision is an immutable snapshot of the edit stack, identified by a
// monotonically increasing sequence number. Revisions never change after
// creation; history and rendering hold them freely.
type Revision struct {
	seq uint64
	ops []Operation
}

// Seq returns the revision's sequence number.
func (r *Revision) Seq() uint64 { return r.seq }

// Len returns the number of operations.
func (r *Revision) Len() int { return len(r.ops) }

// Ops returns a copy of the operations in application order.
func (r *Revision) Ops() []Operation {
	out := make([]Operation, len(r.ops))
	copy(out, r.ops)
	return out
}

// Op returns the operation at index i.
func (r *Revision) Op(i int) Operation { return r.ops[i] }

// Find returns the operation with the given id and its index.
func (r *Revision) Find(id OpID) (Operation, int, bool) {
	for i, op := range r.ops {
		if op.ID == id {
			return op, i, true
		}
	}
	return Operation{}, -1, false
}

// EqualOps reports whether two revisions contain the same operations with
// the same parameters, ignoring sequence numbers.
func (r *Revision) EqualOps(other *Revision) bool {
	if other == nil || len(r.ops) != len(other.ops) {
		return false
	}
	return reflect.DeepEqual(r.ops, other.ops)
}

// Stack is the mutable editor over an ordered operation sequence. Every
// successful mutation produces a new immutable Revision; previously
// returned revisions are never modified. Stack itself is not safe for
// concurrent use; the session serializes access.
type Stack struct {
	ops []Operation
	seq uint64
}

// NewStack creates an empty stack. The initial revision has sequence 0.
func NewStack() *Stack {
	return &Stack{}
}

// FromRevision creates a stack whose state continues from rev.
func FromRevision(rev *Revision) *Stack {
	return &Stack{ops: rev.Ops(), seq: rev.seq}
}

// Revision snapshots the current state.
func (s *Stack) Revision() *Revision {
	ops := make([]Operation, len(s.ops))
	copy(ops, s.ops)
	return &Revision{seq: s.seq, ops: ops}
}

// Append adds an operation at the end of the stack.
func (s *Stack) Append(op Operation) (*Revision, error) {
	if err := validateOp(op); err != nil {
		return nil, err
	}
	next := append(s.copyOps(), op)
	return s.commit(next)
}

// Update replaces the parameters of the identified operation. The new
// parameters must be of the operation's kind; identity is preserved.
func (s *Stack) Update(id OpID, p Params) (*Revision, error) {
	i, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNilParams
	}
	if p.Kind() != s.ops[i].Kind() {
		return nil, fmt.Errorf("edit: update kind %q does not match operation kind %q: %w",
			p.Kind(), s.ops[i].Kind(), ErrInvalidOperationOrder)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	next := s.copyOps()
	next[i].Params = p
	return s.commit(next)
}

// Reorder moves the identified operation to newIndex.
func (s *Stack) Reorder(id OpID, newIndex int) (*Revision, error) {
	i, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if newIndex < 0 || newIndex >= len(s.ops) {
		return nil, fmt.Errorf("edit: reorder index %d outside [0, %d): %w",
			newIndex, len(s.ops), ErrInvalidOperationOrder)
	}
	next := s.copyOps()
	op := next[i]
	next = append(next[:i], next[i+1:]...)
	next = append(next[:newIndex], append([]Operation{op}, next[newIndex:]...)...)
	return s.commit(next)
}

// Remove deletes the identified operation.
func (s *Stack) Remove(id OpID) (*Revision, error) {
	i, err := s.find(id)
	if err != nil {
		return nil, err
	}
	next := s.copyOps()
	next = append(next[:i], next[i+1:]...)
	return s.commit(next)
}

// ToggleEnabled flips the enabled flag of the identified operation.
// The operation keeps its identity and parameters while disabled.
func (s *Stack) ToggleEnabled(id OpID) (*Revision, error) {
	i, err := s.find(id)
	if err != nil {
		return nil, err
	}
	next := s.copyOps()
	next[i].Enabled = !next[i].Enabled
	return s.commit(next)
}

// commit validates the candidate ordering and, on success, installs it and
// returns the new revision. On failure the stack is unchanged.
func (s *Stack) commit(next []Operation) (*Revision, error) {
	if err := CheckDependencies(next); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOperationOrder, err)
	}
	s.ops = next
	s.seq++
	return s.Revision(), nil
}

func (s *Stack) find(id OpID) (int, error) {
	for i, op := range s.ops {
		if op.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrUnknownOperation, id)
}

func (s *Stack) copyOps() []Operation {
	out := make([]Operation, len(s.ops))
	copy(out, s.ops)
	return out
}

func validateOp(op Operation) error {
	if op.Params == nil {
		return ErrNilParams
	}
	if op.ID == "" {
		return fmt.Errorf("%w: empty operation id", ErrUnknownOperation)
	}
	return op.Params.Validate()
}
