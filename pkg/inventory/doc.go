// Package inventory resolves declarative host/group definitions into
// one fully-merged configuration per host.
//
// # Overview
//
// The caller supplies hosts (FQDN key -> fragment), groups (name ->
// fragment), default modules, extra arguments and overlays. Build then
// works in two phases:
//
//  1. Per host, a base system is evaluated from the host-name module
//     (networking.hostName/domain derived from the key), the overlays
//     module, the group schema, the host's own fragment, and the
//     default modules.
//  2. The host's declared groups list is read once from the base
//     system, and each named group fragment is layered on with Extend,
//     in list order. Later groups override earlier ones.
//
// # The fixed point
//
// Every fragment context carries the groups name table, the
// groupsMembers table and the hosts table. The tables expose final
// systems, the very values Build is producing, so a host fragment can
// read another host's configuration after its group overlays, and a
// group fragment can enumerate its members' final systems. The cycle
// is broken by laziness: tables hand out systems without forcing them,
// and option reads are memoized per fragment.
//
// Reads performed while a fragment body executes are strict: a strict
// read of a value that transitively needs the fragment's own output is
// an unresolvable cycle. Fragments defer such reads into leaf values
// with conf.Defer, which are only forced when the enclosing option is
// read.
//
// Because the declared groups list is read from the base system, an
// overlay that rewrites the groups option changes the final value of
// that option but never which groups get applied, and never the
// membership tables.
package inventory
