package conf

import (
	"errors"
	"fmt"
	"strings"
)

// unit is one fragment application within a system. Its object is
// computed at most once; re-entrant evaluation is a cycle.
type unit struct {
	fragment Fragment
	ctx      *Context
	state    evalState
	object   Object
	err      error
}

func (u *unit) eval() (Object, error) {
	switch u.state {
	case stateDone:
		return u.object, u.err
	case stateInProgress:
		return nil, NewCycleError("fragment evaluation depends on its own result")
	}

	u.state = stateInProgress
	obj, err := u.fragment.eval(u.ctx)
	if err == nil && obj == nil {
		obj = Object{}
	}
	u.object, u.err = obj, err
	u.state = stateDone

	return u.object, u.err
}

// System is a resolved configuration: an ordered stack of layers, each
// holding fragment applications under their own context. Nothing is
// evaluated until an option is read; results are memoized per fragment
// and shared between a system and every system derived from it with
// Extend.
//
// Systems are not safe for concurrent use. Resolution is a
// single-threaded, deterministic computation.
type System struct {
	layers [][]*unit
}

// Evaluate builds a system from fragments applied in order under ctx.
// No fragment runs until the first read.
func Evaluate(fragments []Fragment, ctx *Context) *System {
	return &System{layers: [][]*unit{newUnits(fragments, ctx)}}
}

// Extend derives a new system layering fragments (under their own
// context) on top of the receiver. Earlier layers are shared, not
// re-evaluated: memoized fragment results remain valid for both
// systems. Options set by later layers take precedence over earlier
// ones.
func (s *System) Extend(fragments []Fragment, ctx *Context) *System {
	layers := make([][]*unit, 0, len(s.layers)+1)
	layers = append(layers, s.layers...)
	layers = append(layers, newUnits(fragments, ctx))
	return &System{layers: layers}
}

func newUnits(fragments []Fragment, ctx *Context) []*unit {
	units := make([]*unit, len(fragments))
	for i, f := range fragments {
		units[i] = &unit{fragment: f, ctx: ctx}
	}
	return units
}

// Get resolves the option at a dot-separated path, forcing only the
// fragments and deferred values the path depends on. The result has
// all nested lazy values resolved.
func (s *System) Get(path string) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("conf: empty option path")
	}

	defs, err := s.definitionsAt(strings.Split(path, "."), path)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, NewNotFoundError(path)
	}

	return merge(path, defs)
}

// Has reports whether any fragment defines the option at path.
func (s *System) Has(path string) (bool, error) {
	_, err := s.Get(path)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// String resolves the option at path as a string.
func (s *System) String(path string) (string, error) {
	v, err := s.Get(path)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", NewWrongTypeError(path, "string", v)
	}
	return str, nil
}

// StringSlice resolves the option at path as a list of strings.
func (s *System) StringSlice(path string) ([]string, error) {
	v, err := s.Get(path)
	if err != nil {
		return nil, err
	}

	list, ok := asList(v)
	if !ok {
		return nil, NewWrongTypeError(path, "list of strings", v)
	}
	out := make([]string, len(list))
	for i, elem := range list {
		str, ok := elem.(string)
		if !ok {
			return nil, NewWrongTypeError(path, "list of strings", elem)
		}
		out[i] = str
	}
	return out, nil
}

// Bool resolves the option at path as a boolean.
func (s *System) Bool(path string) (bool, error) {
	v, err := s.Get(path)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, NewWrongTypeError(path, "bool", v)
	}
	return b, nil
}

// Resolve forces the full configuration tree: every fragment runs,
// every deferred value is computed, and the merged result is returned
// as a plain object suitable for encoding.
func (s *System) Resolve() (Object, error) {
	var defs []definition
	for li, units := range s.layers {
		for _, u := range units {
			obj, err := u.eval()
			if err != nil {
				return nil, err
			}
			if len(obj) == 0 {
				continue
			}
			defs = append(defs, definition{value: obj, layer: li})
		}
	}
	if len(defs) == 0 {
		return Object{}, nil
	}

	merged, err := merge("", defs)
	if err != nil {
		return nil, err
	}
	obj, ok := asObject(merged)
	if !ok {
		return nil, NewConflictError("top-level configuration is not an object")
	}
	return obj, nil
}

// definitionsAt collects, per fragment in application order, the value
// each fragment contributes at the given path.
func (s *System) definitionsAt(segs []string, path string) ([]definition, error) {
	var defs []definition
	for li, units := range s.layers {
		for _, u := range units {
			obj, err := u.eval()
			if err != nil {
				var ce *Error
				if errors.As(err, &ce) {
					return nil, ce.WithPath(path)
				}
				return nil, err
			}

			def, ok, err := walkObject(obj, segs, path, li)
			if err != nil {
				return nil, err
			}
			if ok {
				defs = append(defs, def)
			}
		}
	}
	return defs, nil
}

// walkObject descends a single fragment's object along the path
// segments, forcing deferred values and tracking default wrappers. The
// second return reports whether the fragment defines the path at all.
func walkObject(obj Object, segs []string, path string, layer int) (definition, bool, error) {
	var cur any = obj
	isDefault := false
	walked := ""

	for _, seg := range segs {
		v, wasDefault, err := normalize(cur, walked)
		if err != nil {
			return definition{}, false, err
		}
		isDefault = isDefault || wasDefault

		o, ok := asObject(v)
		if !ok {
			// The fragment defines a strict prefix of the path as a
			// non-object: the path cannot be resolved against it.
			return definition{}, false, NewConflictError(
				fmt.Sprintf("option %q is defined as %s, not an object", walked, kindOf(v)),
			).WithPath(path)
		}

		cur, ok = o[seg]
		if !ok {
			return definition{}, false, nil
		}
		walked = joinPath(walked, seg)
	}

	v, wasDefault, err := normalize(cur, path)
	if err != nil {
		return definition{}, false, err
	}
	isDefault = isDefault || wasDefault

	return definition{value: v, layer: layer, isDefault: isDefault}, true, nil
}
