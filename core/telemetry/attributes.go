package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/anoideaopen/mirror/core/class"
)

// Attribute keys of chain step spans.
const (
	keyChainID    = "mirror.chain_id"
	keyClass      = "mirror.class"
	keyMember     = "mirror.member"
	keyMemberKind = "mirror.member_kind"
)

// ChainID identifies the chain a step belongs to.
func ChainID(id string) attribute.KeyValue {
	return attribute.String(keyChainID, id)
}

// Class is the qualified name of the class the step runs on.
func Class(name string) attribute.KeyValue {
	return attribute.String(keyClass, name)
}

// Member is the name of the constructor, method or field used by the step.
func Member(name string) attribute.KeyValue {
	return attribute.String(keyMember, name)
}

// MemberKind is the kind of the member resolved by the step.
func MemberKind(k class.Kind) attribute.KeyValue {
	return attribute.String(keyMemberKind, k.String())
}
