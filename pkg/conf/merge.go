package conf

import (
	"fmt"
	"reflect"
)

// definition is one fragment's contribution at an option path.
type definition struct {
	// value is the contributed value, deferred and default wrappers
	// already stripped along the walked path.
	value any

	// layer is the index of the layer the contribution came from.
	// Later layers take precedence for atomic options.
	layer int

	// isDefault marks low-priority contributions (Default wrapper
	// anywhere on the walked path).
	isDefault bool
}

// normalize forces deferred values and strips default wrappers,
// reporting whether a default wrapper was seen.
func normalize(v any, path string) (any, bool, error) {
	isDefault := false
	for {
		switch t := v.(type) {
		case *Deferred:
			forced, err := t.force(path)
			if err != nil {
				return nil, false, err
			}
			v = forced
		case defaulted:
			isDefault = true
			v = t.value
		default:
			return v, isDefault, nil
		}
	}
}

// merge folds an ordered definition list into one value.
//
// Rules, in order:
//   - when every definition is an object, objects merge recursively
//     (default-marked subtrees still contribute keys; overriding is
//     decided leaf by leaf);
//   - otherwise default definitions are dropped as soon as one
//     explicit definition exists;
//   - lists concatenate in application order;
//   - atomic values are taken from the last layer defining the path;
//     two differing definitions inside that layer are a conflict;
//   - definitions of different kinds at one path are a conflict.
func merge(path string, defs []definition) (any, error) {
	if len(defs) == 1 {
		return deepResolve(path, defs[0].value)
	}

	allObjects := true
	for _, d := range defs {
		if kindOf(d.value) != kindObject {
			allObjects = false
			break
		}
	}
	if allObjects {
		return mergeObjects(path, defs)
	}

	defs = dropDefaults(defs)
	if len(defs) == 1 {
		return deepResolve(path, defs[0].value)
	}

	k := kindOf(defs[0].value)
	for _, d := range defs[1:] {
		if kindOf(d.value) != k {
			return nil, NewConflictError(fmt.Sprintf(
				"conflicting definition kinds: %s and %s", k, kindOf(d.value),
			)).WithPath(path)
		}
	}

	switch k {
	case kindObject:
		return mergeObjects(path, defs)
	case kindList:
		return mergeLists(path, defs)
	default:
		return mergeAtomics(path, defs)
	}
}

// mergeObjects merges object definitions key by key, preserving the
// order keys were first contributed in.
func mergeObjects(path string, defs []definition) (Object, error) {
	var keys []string
	seen := make(map[string]bool)
	byKey := make(map[string][]definition)

	for _, d := range defs {
		obj, _ := asObject(d.value)
		// Map visit order does not matter here: per-key definition
		// order follows the outer defs loop.
		for k, v := range obj {
			nv, wasDefault, err := normalize(v, joinPath(path, k))
			if err != nil {
				return nil, err
			}
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
			byKey[k] = append(byKey[k], definition{
				value:     nv,
				layer:     d.layer,
				isDefault: d.isDefault || wasDefault,
			})
		}
	}

	out := make(Object, len(keys))
	for _, k := range keys {
		merged, err := merge(joinPath(path, k), byKey[k])
		if err != nil {
			return nil, err
		}
		out[k] = merged
	}
	return out, nil
}

// mergeLists concatenates list definitions in application order.
func mergeLists(path string, defs []definition) ([]any, error) {
	var out []any
	for _, d := range defs {
		list, _ := asList(d.value)
		for i, elem := range list {
			resolved, err := deepResolve(fmt.Sprintf("%s[%d]", path, i), elem)
			if err != nil {
				return nil, err
			}
			out = append(out, resolved)
		}
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// mergeAtomics applies last-layer-wins, rejecting disagreeing
// definitions within the winning layer.
func mergeAtomics(path string, defs []definition) (any, error) {
	last := defs[0].layer
	for _, d := range defs[1:] {
		if d.layer > last {
			last = d.layer
		}
	}

	var winners []definition
	for _, d := range defs {
		if d.layer == last {
			winners = append(winners, d)
		}
	}

	for _, d := range winners[1:] {
		if !reflect.DeepEqual(d.value, winners[0].value) {
			return nil, NewConflictError(fmt.Sprintf(
				"conflicting values %v and %v", winners[0].value, d.value,
			)).WithPath(path)
		}
	}

	return winners[len(winners)-1].value, nil
}

// dropDefaults removes default-marked definitions when at least one
// explicit definition is present.
func dropDefaults(defs []definition) []definition {
	hasExplicit := false
	for _, d := range defs {
		if !d.isDefault {
			hasExplicit = true
			break
		}
	}
	if !hasExplicit {
		return defs
	}

	out := defs[:0:0]
	for _, d := range defs {
		if !d.isDefault {
			out = append(out, d)
		}
	}
	return out
}

// deepResolve forces every lazy value inside v, returning a tree of
// plain objects, lists and scalars.
func deepResolve(path string, v any) (any, error) {
	v, _, err := normalize(v, path)
	if err != nil {
		return nil, err
	}

	switch t := v.(type) {
	case Object, map[string]any:
		obj, _ := asObject(t)
		out := make(Object, len(obj))
		for k, elem := range obj {
			resolved, err := deepResolve(joinPath(path, k), elem)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any, []string:
		list, _ := asList(t)
		out := make([]any, len(list))
		for i, elem := range list {
			resolved, err := deepResolve(fmt.Sprintf("%s[%d]", path, i), elem)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}
