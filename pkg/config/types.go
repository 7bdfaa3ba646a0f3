package config

import (
	"fmt"

	"github.com/JulesdeCube/avalanche/pkg/conf"
	"github.com/JulesdeCube/avalanche/pkg/fqdn"
	"github.com/JulesdeCube/avalanche/pkg/hostname"
	"github.com/JulesdeCube/avalanche/pkg/inventory"
)

// Definition is the decoded form of the top-level "inventory" field of
// a CUE definition.
type Definition struct {
	// Hosts maps FQDN keys to host entries.
	Hosts map[string]Entry `json:"hosts,omitempty"`

	// HostRanges declares sequentially numbered host fleets expanded
	// with the hostname generator.
	HostRanges []HostRange `json:"hostRanges,omitempty" validate:"dive"`

	// Groups maps group names to group entries.
	Groups map[string]Entry `json:"groups,omitempty"`

	// ExtraArgs are merged into every fragment context.
	ExtraArgs map[string]any `json:"extraArgs,omitempty"`

	// Overlays are forwarded opaquely to the resolver.
	Overlays []any `json:"overlays,omitempty"`
}

// Entry is one host or group declaration.
type Entry struct {
	// Config is the entry's configuration fragment.
	Config map[string]any `json:"config,omitempty"`
}

// HostRange declares a numbered fleet: prefix01..prefixNN.
type HostRange struct {
	// Prefix is the name stem the padded index is appended to.
	Prefix string `json:"prefix" validate:"required"`

	// Count is the number of hosts to generate.
	Count int `json:"count" validate:"required,gte=1"`

	// Width is the index width; zero means the default of 2.
	Width int `json:"width,omitempty" validate:"gte=0"`

	// Domain, when set, is appended to every generated name.
	Domain string `json:"domain,omitempty"`

	// Config is the fragment shared by every generated host.
	Config map[string]any `json:"config,omitempty"`
}

// ToInventory converts the definition into a resolver configuration of
// static fragments.
func (d *Definition) ToInventory() (inventory.Config, error) {
	cfg := inventory.Config{
		Hosts:     make(map[string]conf.Fragment, len(d.Hosts)),
		Groups:    make(map[string]conf.Fragment, len(d.Groups)),
		ExtraArgs: d.ExtraArgs,
		Overlays:  d.Overlays,
	}

	for name, entry := range d.Hosts {
		cfg.Hosts[name] = conf.Static(conf.Object(entry.Config))
	}

	for _, r := range d.HostRanges {
		width := r.Width
		if width == 0 {
			width = hostname.DefaultWidth
		}

		generated := hostname.GenHosts(width, conf.Static(conf.Object(r.Config)), r.Prefix, r.Count)
		for name, fragment := range generated {
			if r.Domain != "" {
				name = fqdn.Append(name, r.Domain)
			}
			if _, exists := cfg.Hosts[name]; exists {
				return inventory.Config{}, fmt.Errorf("config: duplicate host %q", name)
			}
			cfg.Hosts[name] = fragment
		}
	}

	for name, entry := range d.Groups {
		cfg.Groups[name] = conf.Static(conf.Object(entry.Config))
	}

	return cfg, nil
}
