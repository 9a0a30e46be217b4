package netlist

import (
	"strconv"
	"strings"
)

// Mangler derives Verilog-legal identifiers from net name hints. Names
// are deterministic and collision-free: fragments join with
// underscores and every name ends in the net id.
type Mangler struct {
	nl    *Netlist
	names []string
}

// NewMangler prepares names for every net in nl.
func NewMangler(nl *Netlist) *Mangler {
	m := &Mangler{nl: nl, names: make([]string, len(nl.Nets))}
	for _, net := range nl.Nets {
		m.names[net.ID] = mangle(net.Hints, net.ID)
	}
	return m
}

// Name returns the identifier of a net.
func (m *Mangler) Name(id int) string { return m.names[id] }

// RefName returns the identifier a reference reads, including the port
// suffix for multi-output nets.
func (m *Mangler) RefName(ref NetRef) string {
	if ref.Port == "" {
		return m.names[ref.ID]
	}
	return m.names[ref.ID] + "_" + ref.Port
}

func mangle(h Hints, id int) string {
	var parts []string
	for _, p := range h.Prefixes {
		parts = append(parts, sanitize(p))
	}
	for _, r := range h.Roots {
		parts = append(parts, sanitize(r))
	}
	for _, s := range h.Suffixes {
		parts = append(parts, sanitize(s))
	}
	joined := strings.Join(nonEmpty(parts), "_")
	if joined == "" {
		joined = "v"
	}
	return joined + "_" + strconv.Itoa(id)
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sanitize replaces anything outside [A-Za-z0-9_] with an underscore
// and guards against a leading digit.
func sanitize(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
