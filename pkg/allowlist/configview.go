package allowlist

import (
	"context"
	"fmt"

	"github.com/newtron-network/bgp-allowlistd/pkg/util"
)

// Engine is the narrow routing-engine executor interface the reconciler
// consumes. A real implementation talks to vtysh, locally or over SSH; see
// pkg/engine.
type Engine interface {
	// Text returns the current running configuration as ordered lines.
	Text(ctx context.Context) ([]string, error)

	// Push applies an ordered command batch transactionally and reports
	// success. Push is not atomic across engine semantics: a false
	// return (or error) means the cache must be invalidated and the
	// caller should rely on the next event to reconverge.
	Push(ctx context.Context, commands []string) (bool, error)

	// RunCommand invokes a one-off engine command, such as the soft
	// reload "clear bgp * soft in", returning ok plus stdout/stderr.
	RunCommand(ctx context.Context, args []string) (ok bool, stdout string, stderr string, err error)
}

// ConfigView is a read-only cached snapshot of the routing engine's
// running configuration as ordered lines, refreshed on demand.
type ConfigView struct {
	engine Engine
	lines  []string
	valid  bool
}

// NewConfigView wraps an Engine with a refreshable line cache.
func NewConfigView(engine Engine) *ConfigView {
	return &ConfigView{engine: engine}
}

// Refresh pulls the full running configuration and caches it as an
// ordered line sequence.
func (v *ConfigView) Refresh(ctx context.Context) error {
	lines, err := v.engine.Text(ctx)
	if err != nil {
		v.valid = false
		return fmt.Errorf("refresh running config: %w", err)
	}
	v.lines = lines
	v.valid = true
	return nil
}

// Lines returns the cached lines in order. Callers must Refresh first;
// Lines on an invalidated view returns the stale cache as-is, matching the
// "partial failure leaves the next event to reconverge" contract.
func (v *ConfigView) Lines() []string {
	return v.lines
}

// Push sends the command batch to the engine. On failure the cache is
// invalidated; callers must Refresh before relying on Lines again.
func (v *ConfigView) Push(ctx context.Context, commands []string) (bool, error) {
	if len(commands) == 0 {
		return true, nil
	}
	ok, err := v.engine.Push(ctx, commands)
	if err != nil || !ok {
		v.valid = false
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrEngineFailure, err)
		}
		return false, fmt.Errorf("%w: engine rejected command batch", ErrEngineFailure)
	}
	return true, nil
}

// SoftReload triggers an inbound soft reload for all peers.
func (v *ConfigView) SoftReload(ctx context.Context) error {
	ok, _, stderr, err := v.engine.RunCommand(ctx, []string{"clear", "bgp", "*", "soft", "in"})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineFailure, err)
	}
	if !ok {
		util.WithOperation("soft_reload").Warnf("soft reload reported failure: %s", stderr)
		return fmt.Errorf("%w: soft reload rejected", ErrEngineFailure)
	}
	return nil
}
