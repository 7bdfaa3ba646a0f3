package inventory

import (
	"sort"

	"github.com/JulesdeCube/avalanche/pkg/conf"
)

// GroupNames derives the identity name table from a groups mapping.
// Fragments reference groups through this table ("groups.web") instead
// of literal strings, so a typo is a lookup failure rather than a
// silently empty phantom group.
func GroupNames(groups map[string]conf.Fragment) map[string]string {
	names := make(map[string]string, len(groups))
	for name := range groups {
		names[name] = name
	}
	return names
}

// GroupSchema is the fragment declaring the groups option: a list of
// group names, default empty. It carries no behavior of its own; hosts
// override the default to declare their memberships.
func GroupSchema() conf.Fragment {
	return conf.Static(conf.Object{
		OptionGroups: conf.Default([]any{}),
	})
}

// IsMember reports whether the system's groups option lists the given
// group name. A system without a groups option is a member of nothing.
func IsMember(sys *conf.System, group string) (bool, error) {
	groups, err := sys.StringSlice(OptionGroups)
	if err != nil {
		if conf.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	for _, g := range groups {
		if g == group {
			return true, nil
		}
	}
	return false, nil
}

// MembersOf filters systems down to the entries whose groups option
// lists the given group name.
func MembersOf(systems map[string]*conf.System, group string) (map[string]*conf.System, error) {
	members := make(map[string]*conf.System)
	for name, sys := range systems {
		ok, err := IsMember(sys, group)
		if err != nil {
			return nil, err
		}
		if ok {
			members[name] = sys
		}
	}
	return members, nil
}

// sortedKeys returns map keys in deterministic order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
