package inventory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/JulesdeCube/avalanche/pkg/conf"
	"github.com/JulesdeCube/avalanche/pkg/fqdn"
)

// Config is the declarative input of an inventory resolution.
type Config struct {
	// Hosts maps FQDN keys to host fragments.
	Hosts map[string]conf.Fragment

	// Groups maps group names to group fragments, applied as overlays
	// to every member host.
	Groups map[string]conf.Fragment

	// DefaultModules are fragments applied to every host after its own
	// fragment.
	DefaultModules []conf.Fragment

	// ExtraArgs entries are merged into every fragment context,
	// overriding the built-in special arguments on name collision.
	ExtraArgs map[string]any

	// Overlays are forwarded opaquely into every system through the
	// overlays option.
	Overlays []any

	// Logger receives resolution traces. The zero value discards them.
	Logger zerolog.Logger
}

// Build resolves the inventory: one final system per host, with every
// group the host declares applied as an overlay, in declaration-list
// order. The returned keys correspond 1:1 with cfg.Hosts.
//
// Resolution is all-or-nothing: any fragment error, unknown group
// reference, malformed FQDN or unresolvable cycle fails the whole
// call, since the result is a single interdependent table rather than
// independently computed entries.
func Build(cfg Config) (map[string]*conf.System, error) {
	r, err := newResolver(cfg)
	if err != nil {
		return nil, err
	}

	systems := make(map[string]*conf.System, len(r.entries))
	for _, name := range sortedKeys(r.entries) {
		sys, err := r.finalSystem(r.entries[name])
		if err != nil {
			if IsUnknownGroup(err) {
				return nil, err
			}
			return nil, fmt.Errorf("inventory: resolving host %q: %w", name, err)
		}
		systems[name] = sys
	}

	r.log.Debug().Int("hosts", len(systems)).Int("groups", len(r.names)).
		Msg("inventory resolved")

	return systems, nil
}

// thunkState tracks a memoized per-host computation.
type thunkState uint8

const (
	thunkIdle thunkState = iota
	thunkBusy
	thunkReady
)

// hostEntry carries the per-host resolution state: the base system and
// the two memoized computations derived from it.
type hostEntry struct {
	name string

	// base is the host's system before any group overlay.
	base *conf.System

	// groups caches the host's declared group list, read once from the
	// base system. Overlays cannot change it.
	groupsState thunkState
	groups      []string
	groupsErr   error

	// final caches the host's system after all group overlays.
	finalState thunkState
	final      *conf.System
	finalErr   error
}

// resolver owns the lazy host graph of one Build call.
type resolver struct {
	groups    map[string]conf.Fragment
	defaults  []conf.Fragment
	extraArgs map[string]any
	log       zerolog.Logger

	// names is the identity table of declared group names.
	names map[string]string

	entries map[string]*hostEntry

	// baseCtx is the special-argument context shared by every base
	// system; group applications derive their own from the same
	// built-ins.
	baseCtx  *conf.Context
	builtins map[string]any
}

func newResolver(cfg Config) (*resolver, error) {
	r := &resolver{
		groups:    cfg.Groups,
		defaults:  cfg.DefaultModules,
		extraArgs: cfg.ExtraArgs,
		log:       cfg.Logger,
		names:     GroupNames(cfg.Groups),
		entries:   make(map[string]*hostEntry, len(cfg.Hosts)),
	}

	r.builtins = map[string]any{
		ArgGroups:        r.names,
		ArgGroupsMembers: &MembersTable{r: r},
		ArgHosts:         &SystemTable{r: r},
	}
	r.baseCtx = conf.NewContext(r.builtins).With(cfg.ExtraArgs)

	overlays := make([]any, len(cfg.Overlays))
	copy(overlays, cfg.Overlays)

	for name, fragment := range cfg.Hosts {
		hostName, err := hostNameFragment(name)
		if err != nil {
			return nil, fmt.Errorf("inventory: host %q: %w", name, err)
		}

		fragments := make([]conf.Fragment, 0, 4+len(r.defaults))
		fragments = append(fragments,
			hostName,
			conf.Static(conf.Object{OptionOverlays: overlays}),
			GroupSchema(),
			fragment,
		)
		fragments = append(fragments, r.defaults...)

		r.entries[name] = &hostEntry{
			name: name,
			base: conf.Evaluate(fragments, r.baseCtx),
		}
	}

	return r, nil
}

// hostNameFragment contributes networking.hostName and, when the key
// has more than one label, networking.domain.
func hostNameFragment(name string) (conf.Fragment, error) {
	info, err := fqdn.Parse(name)
	if err != nil {
		return conf.Fragment{}, err
	}

	networking := conf.Object{"hostName": info.Hostname}
	if info.Domain != "" {
		networking["domain"] = info.Domain
	}
	return conf.Static(conf.Object{"networking": networking}), nil
}

// declaredGroups reads the host's groups option from the base system,
// before any overlay is applied, and validates every name against the
// group table. Computed at most once per host.
func (r *resolver) declaredGroups(e *hostEntry) ([]string, error) {
	switch e.groupsState {
	case thunkReady:
		return e.groups, e.groupsErr
	case thunkBusy:
		return nil, conf.NewCycleError(
			fmt.Sprintf("groups list of host %q depends on itself", e.name))
	}

	e.groupsState = thunkBusy
	groups, err := e.base.StringSlice(OptionGroups)
	if err == nil {
		for _, g := range groups {
			if _, ok := r.names[g]; !ok {
				err = &UnknownGroupError{Host: e.name, Group: g}
				groups = nil
				break
			}
		}
	}
	e.groups, e.groupsErr = groups, err
	e.groupsState = thunkReady

	return e.groups, e.groupsErr
}

// declaredMember reports whether the host declared membership in the
// group at base-construction time.
func (r *resolver) declaredMember(e *hostEntry, group string) (bool, error) {
	groups, err := r.declaredGroups(e)
	if err != nil {
		return false, err
	}
	for _, g := range groups {
		if g == group {
			return true, nil
		}
	}
	return false, nil
}

// finalSystem folds the host's declared groups over its base system,
// one Extend per group, in list order. Computed at most once per host;
// the resulting system still resolves its options lazily.
func (r *resolver) finalSystem(e *hostEntry) (*conf.System, error) {
	switch e.finalState {
	case thunkReady:
		return e.final, e.finalErr
	case thunkBusy:
		return nil, conf.NewCycleError(
			fmt.Sprintf("final system of host %q depends on itself", e.name))
	}

	e.finalState = thunkBusy
	e.final, e.finalErr = r.applyGroups(e)
	e.finalState = thunkReady

	return e.final, e.finalErr
}

func (r *resolver) applyGroups(e *hostEntry) (*conf.System, error) {
	groups, err := r.declaredGroups(e)
	if err != nil {
		return nil, err
	}

	sys := e.base
	for _, group := range groups {
		r.log.Debug().Str("host", e.name).Str("group", group).
			Msg("applying group overlay")
		sys = sys.Extend([]conf.Fragment{r.groups[group]}, r.groupContext(group))
	}
	return sys, nil
}

// groupContext derives the special-argument context a group fragment is
// applied under: the shared built-ins plus the group's own name and
// member table, with extra arguments overriding everything.
func (r *resolver) groupContext(group string) *conf.Context {
	ctx := conf.NewContext(r.builtins).With(map[string]any{
		ArgGroupName: group,
		ArgMembers:   &SystemTable{r: r, group: group},
	})
	return ctx.With(r.extraArgs)
}
