package value

import "fmt"

// DefinitionError reports a malformed variable declaration: an empty set
// domain, an out-of-range reset value, or an unsupported timer bound.
// Constructors return these wrapped behind the plain error interface so
// callers that don't care about structure can just check err != nil.
type DefinitionError struct {
	ChannelKind string
	Variable    string
	Reason      string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("[%s] variable %s: %s", e.ChannelKind, e.Variable, e.Reason)
}

func newDefinitionError(channelKind, name, reason string) error {
	return &DefinitionError{ChannelKind: channelKind, Variable: name, Reason: reason}
}
