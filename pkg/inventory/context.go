package inventory

import (
	"fmt"

	"github.com/JulesdeCube/avalanche/pkg/conf"
)

// Option paths the resolver reads or contributes.
const (
	// OptionGroups is the list-of-strings option holding a host's
	// declared group memberships.
	OptionGroups = "groups"

	// OptionOverlays is the option the caller-supplied overlays are
	// forwarded through.
	OptionOverlays = "overlays"
)

// Names of the special arguments injected into every fragment context.
// Caller-supplied extra arguments override these on collision.
const (
	// ArgGroups is the group-name table (name -> name).
	ArgGroups = "groups"

	// ArgGroupsMembers is the per-group membership table.
	ArgGroupsMembers = "groupsMembers"

	// ArgHosts is the table of final host systems.
	ArgHosts = "hosts"

	// ArgGroupName is the current group's name. Group fragments only.
	ArgGroupName = "groupName"

	// ArgMembers is the current group's member table. Group fragments
	// only.
	ArgMembers = "members"
)

// SystemTable is a lazy table of final host systems: the whole
// inventory, or the members of one group. Entries resolve on demand
// through the resolver's memoized per-host computations, which is what
// lets a fragment introspect the final configuration of other hosts
// while its own is still being produced.
type SystemTable struct {
	r *resolver

	// group restricts the table to one group's members; empty means
	// every host.
	group string
}

// Get returns the final system of the named host. For a group-scoped
// table the host must be a member of the group.
func (t *SystemTable) Get(name string) (*conf.System, error) {
	entry, ok := t.r.entries[name]
	if !ok {
		return nil, fmt.Errorf("inventory: unknown host %q", name)
	}

	if t.group != "" {
		member, err := t.r.declaredMember(entry, t.group)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, fmt.Errorf("inventory: host %q is not a member of group %q", name, t.group)
		}
	}

	return t.r.finalSystem(entry)
}

// Names returns the table's host keys in sorted order. For a
// group-scoped table this evaluates every host's declared groups list.
func (t *SystemTable) Names() ([]string, error) {
	all := sortedKeys(t.r.entries)
	if t.group == "" {
		return all, nil
	}

	var names []string
	for _, name := range all {
		member, err := t.r.declaredMember(t.r.entries[name], t.group)
		if err != nil {
			return nil, err
		}
		if member {
			names = append(names, name)
		}
	}
	return names, nil
}

// Systems materializes the table as a name -> final-system mapping.
func (t *SystemTable) Systems() (map[string]*conf.System, error) {
	names, err := t.Names()
	if err != nil {
		return nil, err
	}

	systems := make(map[string]*conf.System, len(names))
	for _, name := range names {
		sys, err := t.Get(name)
		if err != nil {
			return nil, err
		}
		systems[name] = sys
	}
	return systems, nil
}

// MembersTable maps every group name to its member table.
type MembersTable struct {
	r *resolver
}

// Group returns the member table of the named group.
func (m *MembersTable) Group(name string) (*SystemTable, error) {
	if _, ok := m.r.names[name]; !ok {
		return nil, fmt.Errorf("inventory: unknown group %q", name)
	}
	return &SystemTable{r: m.r, group: name}, nil
}

// Names returns the group names in sorted order.
func (m *MembersTable) Names() []string {
	return sortedKeys(m.r.names)
}

// Hosts extracts the final-system table from a fragment context.
func Hosts(ctx *conf.Context) (*SystemTable, bool) {
	v, ok := ctx.Value(ArgHosts)
	if !ok {
		return nil, false
	}
	t, ok := v.(*SystemTable)
	return t, ok
}

// Members extracts the current group's member table from a fragment
// context. Only set while a group fragment is applied.
func Members(ctx *conf.Context) (*SystemTable, bool) {
	v, ok := ctx.Value(ArgMembers)
	if !ok {
		return nil, false
	}
	t, ok := v.(*SystemTable)
	return t, ok
}

// GroupsMembers extracts the per-group membership table from a
// fragment context.
func GroupsMembers(ctx *conf.Context) (*MembersTable, bool) {
	v, ok := ctx.Value(ArgGroupsMembers)
	if !ok {
		return nil, false
	}
	t, ok := v.(*MembersTable)
	return t, ok
}

// GroupName extracts the current group's name from a fragment context.
// Only set while a group fragment is applied.
func GroupName(ctx *conf.Context) (string, bool) {
	v, ok := ctx.Value(ArgGroupName)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

// Groups extracts the group-name table from a fragment context.
func Groups(ctx *conf.Context) (map[string]string, bool) {
	v, ok := ctx.Value(ArgGroups)
	if !ok {
		return nil, false
	}
	names, ok := v.(map[string]string)
	return names, ok
}
