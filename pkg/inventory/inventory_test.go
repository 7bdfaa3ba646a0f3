package inventory

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/JulesdeCube/avalanche/pkg/conf"
	"github.com/JulesdeCube/avalanche/pkg/fqdn"
)

func TestBuild_Empty(t *testing.T) {
	systems, err := Build(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(systems) != 0 {
		t.Errorf("expected empty inventory, got %d entries", len(systems))
	}
}

func TestBuild_KeysAndNetworking(t *testing.T) {
	cfg := Config{
		Hosts: map[string]conf.Fragment{
			"web01.example.com": conf.Static(conf.Object{}),
			"db":                conf.Static(conf.Object{}),
		},
	}

	systems, err := Build(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(systems) != len(cfg.Hosts) {
		t.Fatalf("got %d systems, want %d", len(systems), len(cfg.Hosts))
	}

	for key, sys := range systems {
		info, err := fqdn.Parse(key)
		if err != nil {
			t.Fatalf("bad key %q: %v", key, err)
		}

		host, err := sys.String("networking.hostName")
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		if host != info.Hostname {
			t.Errorf("%s: hostName = %q, want %q", key, host, info.Hostname)
		}

		if info.Domain == "" {
			ok, err := sys.Has("networking.domain")
			if err != nil {
				t.Fatalf("%s: %v", key, err)
			}
			if ok {
				t.Errorf("%s: single-label key must not have a domain", key)
			}
			continue
		}
		domain, err := sys.String("networking.domain")
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		if domain != info.Domain {
			t.Errorf("%s: domain = %q, want %q", key, domain, info.Domain)
		}
	}
}

func TestBuild_GroupsDefaultEmpty(t *testing.T) {
	systems, err := Build(Config{
		Hosts: map[string]conf.Fragment{"a": conf.Static(conf.Object{})},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	groups, err := systems["a"].StringSlice(OptionGroups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("groups = %v, want empty", groups)
	}
}

func TestBuild_GroupOrderSensitivity(t *testing.T) {
	mkConfig := func(order []any) Config {
		return Config{
			Hosts: map[string]conf.Fragment{
				"h": conf.Static(conf.Object{OptionGroups: order}),
			},
			Groups: map[string]conf.Fragment{
				"g1": conf.Static(conf.Object{"x": 1}),
				"g2": conf.Static(conf.Object{"x": 2}),
			},
		}
	}

	tests := []struct {
		order []any
		want  int
	}{
		{[]any{"g1", "g2"}, 2},
		{[]any{"g2", "g1"}, 1},
	}

	for _, tt := range tests {
		systems, err := Build(mkConfig(tt.order))
		if err != nil {
			t.Fatalf("order %v: unexpected error: %v", tt.order, err)
		}
		v, err := systems["h"].Get("x")
		if err != nil {
			t.Fatalf("order %v: unexpected error: %v", tt.order, err)
		}
		if v != tt.want {
			t.Errorf("order %v: x = %v, want %d", tt.order, v, tt.want)
		}
	}
}

func TestBuild_GroupOverridesHostAtomic(t *testing.T) {
	systems, err := Build(Config{
		Hosts: map[string]conf.Fragment{
			"h": conf.Static(conf.Object{
				OptionGroups: []any{"web"},
				"port":       80,
			}),
		},
		Groups: map[string]conf.Fragment{
			"web": conf.Static(conf.Object{"port": 8080}),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := systems["h"].Get("port")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 8080 {
		t.Errorf("port = %v, want 8080 (group overlays take precedence)", v)
	}
}

func TestBuild_UnknownGroup(t *testing.T) {
	_, err := Build(Config{
		Hosts: map[string]conf.Fragment{
			"h": conf.Static(conf.Object{OptionGroups: []any{"nope"}}),
		},
	})
	if !IsUnknownGroup(err) {
		t.Fatalf("expected unknown-group error, got %v", err)
	}

	var uge *UnknownGroupError
	if !errors.As(err, &uge) || uge.Host != "h" || uge.Group != "nope" {
		t.Errorf("error context = %v, want host h / group nope", err)
	}
}

func TestBuild_EmptyFQDNKey(t *testing.T) {
	_, err := Build(Config{
		Hosts: map[string]conf.Fragment{"...": conf.Static(conf.Object{})},
	})
	if !errors.Is(err, fqdn.ErrEmptyFQDN) {
		t.Fatalf("expected ErrEmptyFQDN, got %v", err)
	}
}

func TestBuild_MembershipVisibility(t *testing.T) {
	// The web group records its member names and tags every member;
	// the tag must be readable back through the members table, since
	// the table exposes final systems.
	web := conf.Compute(func(ctx *conf.Context) (conf.Object, error) {
		members, ok := Members(ctx)
		if !ok {
			return nil, fmt.Errorf("members table missing")
		}
		return conf.Object{
			"role": "web",
			"memberNames": conf.Defer(func() (any, error) {
				names, err := members.Names()
				if err != nil {
					return nil, err
				}
				out := make([]any, len(names))
				for i, n := range names {
					out[i] = n
				}
				return out, nil
			}),
			"memberRoles": conf.Defer(func() (any, error) {
				names, err := members.Names()
				if err != nil {
					return nil, err
				}
				var roles []any
				for _, n := range names {
					sys, err := members.Get(n)
					if err != nil {
						return nil, err
					}
					role, err := sys.String("role")
					if err != nil {
						return nil, err
					}
					roles = append(roles, role)
				}
				return roles, nil
			}),
		}, nil
	})

	systems, err := Build(Config{
		Hosts: map[string]conf.Fragment{
			"web01": conf.Static(conf.Object{OptionGroups: []any{"web"}}),
			"web02": conf.Static(conf.Object{OptionGroups: []any{"web"}}),
			"db01":  conf.Static(conf.Object{}),
		},
		Groups: map[string]conf.Fragment{"web": web},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names, err := systems["web01"].Get("memberNames")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(names, []any{"web01", "web02"}) {
		t.Errorf("memberNames = %v, want [web01 web02]", names)
	}

	roles, err := systems["web02"].Get("memberRoles")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(roles, []any{"web", "web"}) {
		t.Errorf("memberRoles = %v, want [web web]", roles)
	}
}

func TestBuild_HostReadsOtherHostFinalSystem(t *testing.T) {
	// lb reads app's role, an option only set by app's group overlay:
	// the hosts table must expose post-overlay state.
	lb := conf.Compute(func(ctx *conf.Context) (conf.Object, error) {
		hosts, ok := Hosts(ctx)
		if !ok {
			return nil, fmt.Errorf("hosts table missing")
		}
		return conf.Object{
			"upstreamRole": conf.Defer(func() (any, error) {
				app, err := hosts.Get("app01")
				if err != nil {
					return nil, err
				}
				return app.String("role")
			}),
		}, nil
	})

	systems, err := Build(Config{
		Hosts: map[string]conf.Fragment{
			"lb01":  lb,
			"app01": conf.Static(conf.Object{OptionGroups: []any{"backend"}}),
		},
		Groups: map[string]conf.Fragment{
			"backend": conf.Static(conf.Object{"role": "backend"}),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	role, err := systems["lb01"].String("upstreamRole")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != "backend" {
		t.Errorf("upstreamRole = %q, want \"backend\"", role)
	}
}

func TestBuild_StrictSelfReadIsCycle(t *testing.T) {
	// A group fragment that strictly reads an option produced by its
	// own application cannot make progress.
	selfish := conf.Compute(func(ctx *conf.Context) (conf.Object, error) {
		members, _ := Members(ctx)
		sys, err := members.Get("h")
		if err != nil {
			return nil, err
		}
		v, err := sys.Get("size")
		if err != nil {
			return nil, err
		}
		return conf.Object{"size": 1, "copy": v}, nil
	})

	systems, err := Build(Config{
		Hosts: map[string]conf.Fragment{
			"h": conf.Static(conf.Object{OptionGroups: []any{"selfish"}}),
		},
		Groups: map[string]conf.Fragment{"selfish": selfish},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = systems["h"].Get("size")
	if !conf.IsCycle(err) {
		t.Fatalf("expected unresolvable-cycle, got %v", err)
	}
}

func TestBuild_ExtraArgsOverrideBuiltins(t *testing.T) {
	probe := conf.Compute(func(ctx *conf.Context) (conf.Object, error) {
		name, _ := ctx.Value(ArgGroupName)
		region, _ := ctx.Value("region")
		return conf.Object{"seenGroupName": name, "region": region}, nil
	})

	systems, err := Build(Config{
		Hosts: map[string]conf.Fragment{
			"h": conf.Static(conf.Object{OptionGroups: []any{"g"}}),
		},
		Groups: map[string]conf.Fragment{"g": probe},
		ExtraArgs: map[string]any{
			ArgGroupName: "forced",
			"region":     "eu-west",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := systems["h"].Get("seenGroupName")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "forced" {
		t.Errorf("seenGroupName = %v, want \"forced\" (extraArgs override built-ins)", v)
	}

	region, err := systems["h"].String("region")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if region != "eu-west" {
		t.Errorf("region = %q, want \"eu-west\"", region)
	}
}

func TestBuild_DefaultModules(t *testing.T) {
	defaults := []conf.Fragment{
		conf.Static(conf.Object{
			"timezone": conf.Default("UTC"),
			"managed":  true,
		}),
	}

	systems, err := Build(Config{
		Hosts: map[string]conf.Fragment{
			"a": conf.Static(conf.Object{"timezone": "Europe/Paris"}),
			"b": conf.Static(conf.Object{}),
		},
		DefaultModules: defaults,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name, want := range map[string]string{"a": "Europe/Paris", "b": "UTC"} {
		tz, err := systems[name].String("timezone")
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if tz != want {
			t.Errorf("%s: timezone = %q, want %q", name, tz, want)
		}

		managed, err := systems[name].Bool("managed")
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !managed {
			t.Errorf("%s: managed = false, want true", name)
		}
	}
}

func TestBuild_OverlaysForwarded(t *testing.T) {
	overlays := []any{"overlay-a", "overlay-b"}
	systems, err := Build(Config{
		Hosts:    map[string]conf.Fragment{"h": conf.Static(conf.Object{})},
		Overlays: overlays,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := systems["h"].Get(OptionOverlays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(v, []any{"overlay-a", "overlay-b"}) {
		t.Errorf("overlays = %v, want %v", v, overlays)
	}
}

func TestBuild_OverlayCannotChangeMembership(t *testing.T) {
	// The sneaky group rewrites the groups option; the rewrite is
	// visible in the final value but must not change which overlays
	// were applied.
	systems, err := Build(Config{
		Hosts: map[string]conf.Fragment{
			"h": conf.Static(conf.Object{OptionGroups: []any{"sneaky"}}),
		},
		Groups: map[string]conf.Fragment{
			"sneaky": conf.Static(conf.Object{
				OptionGroups: []any{"other"},
				"sneaked":    true,
			}),
			"other": conf.Static(conf.Object{"otherApplied": true}),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sneaked, err := systems["h"].Bool("sneaked")
	if err != nil || !sneaked {
		t.Fatalf("sneaky group not applied: %v %v", sneaked, err)
	}

	ok, err := systems["h"].Has("otherApplied")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("overlay-declared group must not be applied")
	}
}

func TestBuild_HostFragmentErrorFailsBuild(t *testing.T) {
	boom := errors.New("boom")
	_, err := Build(Config{
		Hosts: map[string]conf.Fragment{
			"ok":  conf.Static(conf.Object{}),
			"bad": conf.Compute(func(*conf.Context) (conf.Object, error) { return nil, boom }),
		},
	})
	if err == nil {
		t.Fatal("expected Build to fail")
	}
	if !errors.Is(err, boom) {
		t.Errorf("underlying error lost: %v", err)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	cfg := func() Config {
		return Config{
			Hosts: map[string]conf.Fragment{
				"a.example.com": conf.Static(conf.Object{OptionGroups: []any{"g"}}),
				"b.example.com": conf.Static(conf.Object{OptionGroups: []any{"g"}}),
			},
			Groups: map[string]conf.Fragment{
				"g": conf.Static(conf.Object{"tags": []any{"managed"}}),
			},
		}
	}

	first, err := Build(cfg())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Build(cfg())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"a.example.com", "b.example.com"} {
		lhs, err := first[name].Resolve()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rhs, err := second[name].Resolve()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(lhs, rhs) {
			t.Errorf("%s: resolution is not deterministic", name)
		}
	}
}

func TestBuild_GroupsMembersTable(t *testing.T) {
	probe := conf.Compute(func(ctx *conf.Context) (conf.Object, error) {
		tables, ok := GroupsMembers(ctx)
		if !ok {
			return nil, fmt.Errorf("groupsMembers table missing")
		}
		return conf.Object{
			"dbHosts": conf.Defer(func() (any, error) {
				table, err := tables.Group("db")
				if err != nil {
					return nil, err
				}
				names, err := table.Names()
				if err != nil {
					return nil, err
				}
				out := make([]any, len(names))
				for i, n := range names {
					out[i] = n
				}
				return out, nil
			}),
		}, nil
	})

	systems, err := Build(Config{
		Hosts: map[string]conf.Fragment{
			"db01": conf.Static(conf.Object{OptionGroups: []any{"db"}}),
			"db02": conf.Static(conf.Object{OptionGroups: []any{"db"}}),
			"mon":  probe,
		},
		Groups: map[string]conf.Fragment{
			"db": conf.Static(conf.Object{}),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := systems["mon"].Get("dbHosts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := v.([]any)
	var names []string
	for _, n := range got {
		names = append(names, n.(string))
	}
	sort.Strings(names)
	if !reflect.DeepEqual(names, []string{"db01", "db02"}) {
		t.Errorf("dbHosts = %v, want [db01 db02]", names)
	}
}
