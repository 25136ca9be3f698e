package epidata

import (
	"cmp"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Item is one element of a list parameter: a scalar or an inclusive range.
// The set of implementations is closed; use Scalar, Values or NewRange.
type Item interface {
	fmt.Stringer
	isItem()
}

type scalar string

func (s scalar) String() string { return string(s) }
func (scalar) isItem()          {}

// Scalar wraps a single value rendered with its default string form.
// Floats are written in plain decimal notation, never with an exponent.
func Scalar[T cmp.Ordered](v T) Item {
	return scalar(format(v))
}

func format[T cmp.Ordered](v T) string {
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Range is an inclusive interval between two ordered values, e.g. a span of
// epiweeks or dates. Build it with NewRange; the endpoints are always ordered.
type Range[T cmp.Ordered] struct {
	from T
	to   T
}

// NewRange builds a Range, swapping the endpoints when to <= from.
func NewRange[T cmp.Ordered](from, to T) Range[T] {
	if to <= from {
		from, to = to, from
	}
	return Range[T]{from: from, to: to}
}

// From returns the lower endpoint.
func (r Range[T]) From() T { return r.from }

// To returns the upper endpoint.
func (r Range[T]) To() T { return r.to }

// String renders the range as "from-to".
func (r Range[T]) String() string {
	return format(r.from) + "-" + format(r.to)
}

func (Range[T]) isItem() {}

// List is an ordered sequence of items. Order is preserved on encoding.
type List []Item

// Values builds a List of scalars.
func Values[T cmp.Ordered](vs ...T) List {
	l := make(List, len(vs))
	for i, v := range vs {
		l[i] = Scalar(v)
	}
	return l
}

// Of builds a List from arbitrary items.
func Of(items ...Item) List {
	return List(items)
}

// Encode renders the list in the wire format: items joined by commas,
// ranges as "from-to". No escaping is performed. A nil item keeps its
// position as an empty token; endpoint methods reject such lists before
// anything is sent.
func (l List) Encode() string {
	parts := make([]string, len(l))
	for i, it := range l {
		if it != nil {
			parts[i] = it.String()
		}
	}
	return strings.Join(parts, ",")
}

// hasNil reports whether any item is nil.
func (l List) hasNil() bool {
	for _, it := range l {
		if it == nil {
			return true
		}
	}
	return false
}

// Encode is shorthand for List(items).Encode().
func Encode(items ...Item) string {
	return List(items).Encode()
}
