package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Wildcard matches any resource or action token inside a pattern.
const Wildcard = "*"

var ErrMalformedPattern = errors.New("malformed permission pattern")

// Capability is a concrete (resource, action) pair demanded by an operation,
// e.g. ("documents", "delete").
type Capability struct {
	Resource string
	Action   string
}

// Cap is a shorthand constructor used by the operation table.
func Cap(resource, action string) Capability {
	return Capability{Resource: resource, Action: action}
}

func (c Capability) String() string {
	return c.Resource + ":" + c.Action
}

// Pattern is a granted (resource, action) pair where either field may be the
// wildcard. Patterns are compared structurally, token by token.
type Pattern struct {
	Resource string
	Action   string
}

// ParsePattern parses "resource:action" into a Pattern. The bare universal
// pattern "*" is accepted as "*:*". Anything else without exactly one ":"
// separator, or with an empty segment, is malformed. Validation happens here,
// at permission-creation and role-assignment time; Matches assumes
// well-formed input.
func ParsePattern(s string) (Pattern, error) {
	if s == Wildcard {
		return Pattern{Resource: Wildcard, Action: Wildcard}, nil
	}
	resource, action, ok := strings.Cut(s, ":")
	if !ok || resource == "" || action == "" || strings.Contains(action, ":") {
		return Pattern{}, fmt.Errorf("%w: %q", ErrMalformedPattern, s)
	}
	return Pattern{Resource: resource, Action: action}, nil
}

// MustPattern is for static tables and tests where the input is a literal.
func MustPattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string {
	return p.Resource + ":" + p.Action
}

// Matches reports whether the pattern covers the capability. Each segment
// matches on exact, case-sensitive token equality or the wildcard. No prefix
// globbing beyond a fully wildcarded segment.
func (p Pattern) Matches(c Capability) bool {
	if p.Resource != Wildcard && p.Resource != c.Resource {
		return false
	}
	return p.Action == Wildcard || p.Action == c.Action
}

// PatternSet is a deduplicated set of granted patterns. Grants are purely
// additive: there is no deny pattern.
type PatternSet map[Pattern]struct{}

// NewPatternSet builds a set from already-validated patterns.
func NewPatternSet(patterns ...Pattern) PatternSet {
	set := make(PatternSet, len(patterns))
	for _, p := range patterns {
		set[p] = struct{}{}
	}
	return set
}

// Allows reports whether any pattern in the set matches the capability.
// The empty set never allows anything.
func (s PatternSet) Allows(c Capability) bool {
	if _, ok := s[Pattern{Resource: c.Resource, Action: c.Action}]; ok {
		return true
	}
	for p := range s {
		if p.Matches(c) {
			return true
		}
	}
	return false
}

// Add unions another pattern into the set.
func (s PatternSet) Add(p Pattern) {
	s[p] = struct{}{}
}

// Strings returns the set in "resource:action" form, unordered.
func (s PatternSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p.String())
	}
	return out
}
