// Package access lifts Go's visibility and immutability restrictions on
// class members before they are used reflectively.
//
// Escalation never fails by itself. A policy that refuses to open a member
// returns the refusal in a Grant carried by the match, and the refusal
// surfaces as ErrAccessDenied when the member is invoked, read or written.
package access

import (
	"errors"
	"fmt"

	"github.com/anoideaopen/mirror/core/class"
)

// ErrAccessDenied is returned when the policy refused to escalate a member.
var ErrAccessDenied = errors.New("access denied")

// Policy decides which restrictions an Escalator may lift.
type Policy struct {
	AllowUnexported    bool // unexported constructors, methods and fields
	AllowReadOnlyWrite bool // writes to fields marked read-only
}

var (
	// Permissive opens every member, read-only fields included.
	Permissive = Policy{AllowUnexported: true, AllowReadOnlyWrite: true}

	// ExportedOnly keeps Go's own rules: unexported members and read-only
	// fields stay closed.
	ExportedOnly = Policy{}
)

// Escalator applies a Policy to resolved members.
type Escalator struct {
	Policy Policy
}

// NewEscalator returns an Escalator enforcing p.
func NewEscalator(p Policy) *Escalator {
	return &Escalator{Policy: p}
}

// MakeAccessible computes what may be done with m under the policy. The
// outcome depends only on m and the policy, so calling it again yields an
// equal Grant. Nothing is recorded on m.
func (e *Escalator) MakeAccessible(m *class.Member) class.Grant {
	g := class.Grant{
		Escalated: true,
		Visible:   m.Exported || e.Policy.AllowUnexported,
		Writable:  !m.ReadOnly || e.Policy.AllowReadOnlyWrite,
	}
	if !g.Visible {
		g.Denied = fmt.Errorf("%w: %s is unexported", ErrAccessDenied, m)
	}

	return g
}

// Resolve escalates the member of match and stores the outcome on match.
func (e *Escalator) Resolve(match *class.Match) *class.Match {
	match.Grant = e.MakeAccessible(match.Member)
	return match
}

// CheckUse returns the refusal, if any, for invoking or reading m under g.
func CheckUse(m *class.Member, g class.Grant) error {
	if !g.Escalated {
		return fmt.Errorf("%w: %s was not made accessible", ErrAccessDenied, m)
	}
	if !g.Visible {
		return g.Denied
	}
	return nil
}

// CheckWrite returns the refusal, if any, for writing the field m under g.
func CheckWrite(m *class.Member, g class.Grant) error {
	if err := CheckUse(m, g); err != nil {
		return err
	}
	if !g.Writable {
		return fmt.Errorf("%w: %s is read-only", ErrAccessDenied, m)
	}
	return nil
}
