// Package hostname generates zero-padded sequential host names, the
// "lb01".."lb12" kind used for machine fleets.
package hostname

import (
	"strconv"
	"strings"

	"github.com/JulesdeCube/avalanche/pkg/conf"
)

// DefaultWidth is the index width used when callers do not care.
const DefaultWidth = 2

// PadLeft prepends pad until s is at least width characters long. It
// never truncates: a string already long enough is returned as is.
func PadLeft(pad string, width int, s string) string {
	if pad == "" {
		return s
	}

	var b strings.Builder
	for n := len(s); n < width; n += len(pad) {
		b.WriteString(pad)
	}
	if b.Len() == 0 {
		return s
	}
	b.WriteString(s)
	return b.String()
}

// GenID renders n zero-padded to the given width.
func GenID(width, n int) string {
	return PadLeft("0", width, strconv.Itoa(n))
}

// GenHostname builds a name from a prefix and a padded index:
// GenHostname(2, "lb", 1) is "lb01".
func GenHostname(width int, prefix string, id int) string {
	return prefix + GenID(width, id)
}

// GenHosts produces count host entries named prefix+01..prefix+count,
// all sharing the given fragment. Each entry gets an "id" special
// argument injected into its context; the injected id is zero-based
// while the name suffix is one-based, so "lb01" sees id 0.
func GenHosts(width int, fragment conf.Fragment, prefix string, count int) map[string]conf.Fragment {
	hosts := make(map[string]conf.Fragment, count)
	for i := 1; i <= count; i++ {
		name := GenHostname(width, prefix, i)
		hosts[name] = conf.InjectSpecial(map[string]any{"id": i - 1}, fragment)
	}
	return hosts
}
