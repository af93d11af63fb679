package key

import (
	"fmt"
	"sort"
	"strings"
)

// Key is an opaque, equality-comparable cache/limit key. Keys are canonical
// string encodings: equal inputs always produce equal keys.
type Key string

// Empty is the canonical key for zero-argument invocations. It is distinct
// from the encoding of a nil argument and of an empty-string argument.
const Empty = Key("()")

// String returns the key's canonical encoding.
func (k Key) String() string { return string(k) }

// sep separates components inside a composite key. A non-printable separator
// keeps composite keys of string arguments from colliding with each other.
const sep = "\x1f"

// encode produces the canonical encoding of a single value. nil gets an
// explicit marker so that a nil argument, an empty string argument, and a
// zero-argument invocation all yield distinct keys.
func encode(v any) string {
	if v == nil {
		return "<nil>"
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return `""`
		}
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Of encodes a single value as a Key. A plain string value doubles as its
// own key.
func Of(v any) Key {
	return Key(encode(v))
}

// Compose builds the composite key over positional arguments (in order) and
// named arguments (sorted by name). The composite implements value equality
// through its canonical encoding.
func Compose(args []any, named map[string]any) Key {
	parts := make([]string, 0, len(args)+len(named))
	for _, a := range args {
		parts = append(parts, encode(a))
	}

	if len(named) > 0 {
		names := make([]string, 0, len(named))
		for n := range named {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			parts = append(parts, n+"="+encode(named[n]))
		}
	}

	return Key("(" + strings.Join(parts, sep) + ")")
}
