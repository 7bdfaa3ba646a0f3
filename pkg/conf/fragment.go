package conf

import "errors"

// Fragment is one unit of configuration: either a static object or a
// function from an injected context to an object. The two shapes are a
// tagged variant rather than an interface so the injector can
// pattern-match on them.
type Fragment struct {
	static   Object
	compute  func(*Context) (Object, error)
	isStatic bool
}

// Static creates a fragment from a fixed object. Its content does not
// depend on the evaluation context.
func Static(obj Object) Fragment {
	return Fragment{static: obj, isStatic: true}
}

// Compute creates a fragment whose object is produced from the
// evaluation context on demand.
func Compute(fn func(*Context) (Object, error)) Fragment {
	return Fragment{compute: fn}
}

// IsStatic reports whether the fragment is context-independent.
func (f Fragment) IsStatic() bool {
	return f.isStatic
}

// InjectSpecial wraps a computed fragment so that extra named values
// are merged into its context when it is evaluated, with extra entries
// overriding same-named context values. Static fragments are returned
// unchanged: they cannot observe the context.
func InjectSpecial(extra map[string]any, f Fragment) Fragment {
	if f.isStatic || len(extra) == 0 {
		return f
	}

	inner := f.compute
	return Compute(func(ctx *Context) (Object, error) {
		return inner(ctx.With(extra))
	})
}

// eval produces the fragment's object under ctx.
func (f Fragment) eval(ctx *Context) (Object, error) {
	if f.isStatic {
		return f.static, nil
	}
	if f.compute == nil {
		return nil, NewBadFragmentError("fragment has no body", nil)
	}

	obj, err := f.compute(ctx)
	if err != nil {
		// Classified errors raised by nested evaluation pass through
		// so cycle and conflict kinds stay observable at the top.
		var ce *Error
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, NewBadFragmentError("fragment evaluation failed", err)
	}
	return obj, nil
}
