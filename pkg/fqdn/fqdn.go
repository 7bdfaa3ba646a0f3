// Package fqdn provides helpers for dotted-label host names.
//
// A fully-qualified name is a sequence of non-empty labels joined by ".".
// The first label is the hostname, the remainder is the domain. Empty
// labels produced by splitting (leading, trailing or doubled dots) are
// always discarded.
package fqdn

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins labels into a name.
const Separator = "."

// ErrEmptyFQDN is returned when a name contains no labels at all.
var ErrEmptyFQDN = errors.New("fqdn: name contains no labels")

// Info is the decomposition of a fully-qualified name.
type Info struct {
	// Labels is the ordered, non-empty label sequence.
	Labels []string

	// Hostname is the first label.
	Hostname string

	// Domain is the remaining labels joined by ".", or "" when the name
	// consists of a single label.
	Domain string
}

// Parse splits a name on "." and drops empty labels.
// It returns ErrEmptyFQDN when nothing remains.
func Parse(name string) (Info, error) {
	labels := Split(name)
	if len(labels) == 0 {
		return Info{}, fmt.Errorf("%w: %q", ErrEmptyFQDN, name)
	}

	info := Info{
		Labels:   labels,
		Hostname: labels[0],
	}
	if len(labels) > 1 {
		info.Domain = Join(labels[1:])
	}

	return info, nil
}

// Split returns the non-empty labels of a name. Split("") is empty.
func Split(name string) []string {
	parts := strings.Split(name, Separator)
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}

// Join is the inverse of Split. Join(nil) == "".
func Join(labels []string) string {
	return strings.Join(labels, Separator)
}

// Append concatenates the labels of two names: Append("a.b", "c.d") is
// "a.b.c.d". Either side may be empty; Append(x, "") == x.
func Append(name, domain string) string {
	return Join(append(Split(name), Split(domain)...))
}

// SetDomain replaces everything after the first label of name with
// domain. SetDomain("a.b.c", "x.y") is "a.x.y"; an empty domain strips
// the name down to its hostname.
func SetDomain(name, domain string) (string, error) {
	info, err := Parse(name)
	if err != nil {
		return "", err
	}
	return Append(info.Hostname, domain), nil
}
