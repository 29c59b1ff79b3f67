package allowlist

import (
	"context"
	"strings"
)

// fakeEngine is an in-memory stand-in for a routing engine, used across
// the package's tests. It supports Text/Push/RunCommand against a line
// slice that Push mutates in place, the way vtysh's running-config would
// change after a "configure terminal" batch.
type fakeEngine struct {
	lines       []string
	pushFail    bool
	reloadCount int
	pushedBatches [][]string
}

func (f *fakeEngine) Text(ctx context.Context) ([]string, error) {
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeEngine) Push(ctx context.Context, commands []string) (bool, error) {
	f.pushedBatches = append(f.pushedBatches, commands)
	if f.pushFail {
		return false, nil
	}
	for _, cmd := range commands {
		f.applyCommand(cmd)
	}
	return true, nil
}

func (f *fakeEngine) RunCommand(ctx context.Context, args []string) (bool, string, string, error) {
	f.reloadCount++
	return true, "", "", nil
}

// applyCommand is a deliberately simplified model of vtysh semantics:
// enough to exercise idempotence/round-trip tests, not a full FRR clone.
func (f *fakeEngine) applyCommand(cmd string) {
	trimmed := strings.TrimSpace(cmd)
	switch {
	case strings.HasPrefix(cmd, "no ip prefix-list ") || strings.HasPrefix(cmd, "no ipv6 prefix-list "):
		name := lastField(cmd)
		f.removeLinesWithPrefix(prefixListLinePrefix(cmd, name))
	case strings.HasPrefix(cmd, "no bgp community-list standard "):
		name := lastField(cmd)
		f.removeLinesWithPrefix("bgp community-list standard " + name + " permit ")
	case strings.HasPrefix(cmd, "no route-map "):
		fields := strings.Fields(cmd)
		// no route-map <name> permit <seq>
		name, seq := fields[2], fields[4]
		f.removeSection(name, seq)
	case strings.HasPrefix(cmd, "ip prefix-list ") || strings.HasPrefix(cmd, "ipv6 prefix-list "):
		f.lines = append(f.lines, cmd)
	case strings.HasPrefix(cmd, "bgp community-list standard "):
		f.lines = append(f.lines, cmd)
	case strings.HasPrefix(cmd, "route-map "):
		f.lines = append(f.lines, cmd)
	case strings.HasPrefix(trimmed, "match "):
		f.lines = append(f.lines, cmd)
	}
}

func prefixListLinePrefix(cmd, name string) string {
	if strings.HasPrefix(cmd, "no ipv6") {
		return "ipv6 prefix-list " + name + " seq "
	}
	return "ip prefix-list " + name + " seq "
}

func lastField(s string) string {
	fields := strings.Fields(s)
	return fields[len(fields)-1]
}

func (f *fakeEngine) removeLinesWithPrefix(prefix string) {
	out := f.lines[:0]
	for _, l := range f.lines {
		if !strings.HasPrefix(l, prefix) {
			out = append(out, l)
		}
	}
	f.lines = out
}

func (f *fakeEngine) removeSection(rmName, seq string) {
	header := "route-map " + rmName + " permit " + seq
	out := f.lines[:0]
	skipping := false
	for _, l := range f.lines {
		if l == header {
			skipping = true
			continue
		}
		if skipping {
			if strings.HasPrefix(strings.TrimSpace(l), "match ") {
				continue
			}
			skipping = false
		}
		out = append(out, l)
	}
	f.lines = out
}

func testConstants() ConstantPrefixes {
	return ConstantPrefixes{
		V4: []string{"deny 0.0.0.0/0 le 32"},
		V6: []string{"deny ::/0 le 128"},
	}
}
