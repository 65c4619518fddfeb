package variant

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// All is the selection keyword that expands to the whole allowed set.
const All = "all"

// ErrEmptySelection is returned when no token was given at all.
var ErrEmptySelection = errors.New("empty case selection")

// UnknownError reports a selection token outside the allowed vocabulary.
type UnknownError struct {
	Token   string
	Allowed []Variant
}

// Error implements the error interface.
func (e *UnknownError) Error() string {
	tags := make([]string, len(e.Allowed))
	for i, v := range e.Allowed {
		tags[i] = v.String()
	}
	return fmt.Sprintf("unknown case %q: must be %q or one of [%s]", e.Token, All, strings.Join(tags, ", "))
}

// Select parses a user selection token against the allowed vocabulary.
// "all" yields allowed in full. Otherwise the token is split on commas and
// every element must name an allowed variant; the first unknown element
// fails the whole selection.
func Select(token string, allowed []Variant) ([]Variant, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrEmptySelection
	}
	if token == All {
		return slices.Clone(allowed), nil
	}

	var selection []Variant
	for _, raw := range strings.Split(token, ",") {
		tag := strings.TrimSpace(raw)
		v, ok := Lookup(tag)
		if !ok || !slices.Contains(allowed, v) {
			return nil, &UnknownError{Token: tag, Allowed: allowed}
		}
		if !slices.Contains(selection, v) {
			selection = append(selection, v)
		}
	}
	return selection, nil
}
