package bbrgate

import (
	"context"
	"strings"
	"testing"

	"github.com/newtron-network/bgp-allowlistd/pkg/allowlist"
)

type fakeEngine struct {
	lines  []string
	pushed [][]string
}

func (f *fakeEngine) Text(ctx context.Context) ([]string, error) {
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeEngine) Push(ctx context.Context, commands []string) (bool, error) {
	f.pushed = append(f.pushed, commands)
	return true, nil
}

func (f *fakeEngine) RunCommand(ctx context.Context, args []string) (bool, string, string, error) {
	return true, "", "", nil
}

type fakePeerGroups struct{ groups []string }

func (f fakePeerGroups) PeerGroups() []string { return f.groups }

func TestHandleSetEnablesBBR(t *testing.T) {
	engine := &fakeEngine{}
	view := allowlist.NewConfigView(engine)
	gate := NewGate(view, fakePeerGroups{groups: []string{"PG_LEAF"}}, "65000", true)

	ok := gate.HandleSet(context.Background(), "all", map[string]string{"status": "enabled"})
	if !ok {
		t.Fatal("HandleSet must always return true")
	}
	if len(engine.pushed) != 1 {
		t.Fatalf("expected one pushed batch, got %d", len(engine.pushed))
	}
	joined := strings.Join(engine.pushed[0], "\n")
	if !strings.Contains(joined, "neighbor PG_LEAF allowas-in 1") || strings.Contains(joined, "no neighbor") {
		t.Errorf("expected enabling command without 'no' prefix, got:\n%s", joined)
	}
}

func TestHandleSetDisablesBBR(t *testing.T) {
	engine := &fakeEngine{}
	view := allowlist.NewConfigView(engine)
	gate := NewGate(view, fakePeerGroups{groups: []string{"PG_LEAF"}}, "65000", true)

	gate.HandleSet(context.Background(), "all", map[string]string{"status": "disabled"})
	joined := strings.Join(engine.pushed[0], "\n")
	if !strings.Contains(joined, "no neighbor PG_LEAF allowas-in 1") {
		t.Errorf("expected 'no neighbor' removal command, got:\n%s", joined)
	}
}

func TestHandleSetRejectsInvalidStatus(t *testing.T) {
	engine := &fakeEngine{}
	view := allowlist.NewConfigView(engine)
	gate := NewGate(view, fakePeerGroups{groups: []string{"PG_LEAF"}}, "65000", true)

	gate.HandleSet(context.Background(), "all", map[string]string{"status": "maybe"})
	if len(engine.pushed) != 0 {
		t.Errorf("invalid status must not push any commands, got %v", engine.pushed)
	}
}

func TestHandleSetRejectsWrongKey(t *testing.T) {
	engine := &fakeEngine{}
	view := allowlist.NewConfigView(engine)
	gate := NewGate(view, fakePeerGroups{groups: []string{"PG_LEAF"}}, "65000", true)

	gate.HandleSet(context.Background(), "not-all", map[string]string{"status": "enabled"})
	if len(engine.pushed) != 0 {
		t.Errorf("wrong key must not push any commands, got %v", engine.pushed)
	}
}

func TestHandleSetDeferredWithoutPeerGroups(t *testing.T) {
	engine := &fakeEngine{}
	view := allowlist.NewConfigView(engine)
	gate := NewGate(view, fakePeerGroups{groups: nil}, "65000", true)

	gate.HandleSet(context.Background(), "all", map[string]string{"status": "enabled"})
	if len(engine.pushed) != 0 {
		t.Errorf("no peer groups known yet should defer, got %v", engine.pushed)
	}
}

func TestHandleSetFeatureDisabled(t *testing.T) {
	engine := &fakeEngine{}
	view := allowlist.NewConfigView(engine)
	gate := NewGate(view, fakePeerGroups{groups: []string{"PG_LEAF"}}, "65000", false)

	gate.HandleSet(context.Background(), "all", map[string]string{"status": "enabled"})
	if len(engine.pushed) != 0 {
		t.Errorf("disabled gate must not push commands, got %v", engine.pushed)
	}
}
