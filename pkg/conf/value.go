package conf

import "fmt"

// Object is a configuration value tree. Values are Go scalars, []any
// lists, nested Objects, Deferred lazy leaves, or Default-wrapped
// low-priority definitions.
type Object map[string]any

// Deferred is a lazily computed value. The computation runs at most
// once, on first force, and the result (or error) is cached. Forcing a
// Deferred whose computation is already in progress is an
// unresolvable-cycle error.
//
// Deferred leaves are the escape hatch that lets a fragment embed reads
// of other hosts' final configurations without evaluating them while
// the fragment itself is being evaluated.
type Deferred struct {
	fn    func() (any, error)
	state evalState
	value any
	err   error
}

// Defer wraps a computation as a lazy leaf value.
func Defer(fn func() (any, error)) *Deferred {
	return &Deferred{fn: fn}
}

// force evaluates the deferred value, memoizing the outcome.
func (d *Deferred) force(path string) (any, error) {
	switch d.state {
	case stateDone:
		return d.value, d.err
	case stateInProgress:
		return nil, NewCycleError("deferred value depends on itself").WithPath(path)
	}

	d.state = stateInProgress
	v, err := d.fn()
	// A deferred computation may itself yield a deferred value.
	for err == nil {
		inner, ok := v.(*Deferred)
		if !ok {
			break
		}
		v, err = inner.force(path)
	}
	d.value, d.err = v, err
	d.state = stateDone
	d.fn = nil

	return d.value, d.err
}

// defaulted marks a low-priority definition.
type defaulted struct {
	value any
}

// Default wraps a value as a low-priority definition: it is discarded
// whenever any fragment defines the same option without the wrapper.
// This is how schema fragments declare overridable defaults.
func Default(v any) any {
	return defaulted{value: v}
}

// evalState tracks the lifecycle of a memoized computation.
type evalState uint8

const (
	stateUnevaluated evalState = iota
	stateInProgress
	stateDone
)

// kind partitions resolved values for merging.
type kind uint8

const (
	kindAtomic kind = iota
	kindObject
	kindList
)

func (k kind) String() string {
	switch k {
	case kindObject:
		return "object"
	case kindList:
		return "list"
	default:
		return "atomic value"
	}
}

// kindOf classifies a forced, unwrapped value.
func kindOf(v any) kind {
	switch v.(type) {
	case Object, map[string]any:
		return kindObject
	case []any, []string:
		return kindList
	default:
		return kindAtomic
	}
}

// asObject normalizes the object representations.
func asObject(v any) (Object, bool) {
	switch o := v.(type) {
	case Object:
		return o, true
	case map[string]any:
		return Object(o), true
	}
	return nil, false
}

// asList normalizes the list representations.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// joinPath extends an option path with one more segment.
func joinPath(path, seg string) string {
	if path == "" {
		return seg
	}
	return fmt.Sprintf("%s.%s", path, seg)
}
