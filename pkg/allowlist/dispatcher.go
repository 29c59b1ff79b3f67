package allowlist

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/newtron-network/bgp-allowlistd/pkg/util"
)

var deploymentKeyRe = regexp.MustCompile(`^DEPLOYMENT_ID\|(\d+)(?:\|(\S+))?$`)

// TableHandler is the capability set every configuration-database table
// manager implements, regardless of which table it owns. EventDispatcher
// satisfies it; internal/bbrgate's manager does too, against a different
// table.
type TableHandler interface {
	HandleSet(ctx context.Context, key string, data map[string]string) bool
	HandleDel(ctx context.Context, key string) bool
}

// FeatureGate reports whether the allow-list feature is currently enabled.
// The dispatcher consults it on every event.
type FeatureGate interface {
	AllowListEnabled() bool
}

// EventDispatcher consumes SET/DEL intent events from the configuration
// database, validates their shape, and forwards well-formed ones to a
// PolicyReconciler. It implements the table-handler shape shared by every
// manager in the daemon: HandleSet/HandleDel.
type EventDispatcher struct {
	reconciler *PolicyReconciler
	gate       FeatureGate
}

// NewEventDispatcher constructs a dispatcher wired to the given
// reconciler and feature gate.
func NewEventDispatcher(reconciler *PolicyReconciler, gate FeatureGate) *EventDispatcher {
	return &EventDispatcher{reconciler: reconciler, gate: gate}
}

// HandleSet processes a "SET key data" event. It always returns true
// (handled): validation failures and disabled-feature events are logged
// and dropped rather than retried.
func (d *EventDispatcher) HandleSet(ctx context.Context, key string, data map[string]string) bool {
	if !d.gate.AllowListEnabled() {
		util.WithField("key", key).Debug("allow-list feature disabled, ignoring SET")
		return true
	}

	id, community, err := parseDeploymentKey(key)
	if err != nil {
		util.WithField("key", key).WithField("error", err).Warn("invalid allow-list SET key")
		return true
	}

	v4raw, v6raw := data["prefixes_v4"], data["prefixes_v6"]
	if strings.TrimSpace(v4raw) == "" && strings.TrimSpace(v6raw) == "" {
		util.WithField("key", key).Warn("allow-list SET with no v4 or v6 prefixes")
		return true
	}

	v4, err := splitAndValidate(v4raw, IsIPv4Prefix)
	if err != nil {
		util.WithField("key", key).WithField("error", err).Warn("invalid v4 prefix in allow-list SET")
		return true
	}
	v6, err := splitAndValidate(v6raw, IsIPv6Prefix)
	if err != nil {
		util.WithField("key", key).WithField("error", err).Warn("invalid v6 prefix in allow-list SET")
		return true
	}

	if err := d.reconciler.Apply(ctx, id, community, v4, v6); err != nil {
		util.WithField("key", key).WithField("error", err).Error("failed to apply allow-list entry")
	}
	return true
}

// HandleDel processes a "DEL key" event.
func (d *EventDispatcher) HandleDel(ctx context.Context, key string) bool {
	if !d.gate.AllowListEnabled() {
		util.WithField("key", key).Debug("allow-list feature disabled, ignoring DEL")
		return true
	}

	id, community, err := parseDeploymentKey(key)
	if err != nil {
		util.WithField("key", key).WithField("error", err).Warn("invalid allow-list DEL key")
		return true
	}

	if err := d.reconciler.Retract(ctx, id, community); err != nil {
		util.WithField("key", key).WithField("error", err).Error("failed to retract allow-list entry")
	}
	return true
}

// parseDeploymentKey validates and decomposes a "DEPLOYMENT_ID|<id>[|<community>]"
// key. A missing community segment means EMPTY.
func parseDeploymentKey(key string) (int, CommunityValue, error) {
	m := deploymentKeyRe.FindStringSubmatch(key)
	if m == nil {
		return 0, "", ErrInvalidEvent
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", ErrInvalidEvent
	}
	community := CommunityValue(m[2])
	if community == "" {
		community = EmptyCommunity
	}
	return id, community, nil
}

// splitAndValidate splits a comma-separated prefix list and validates
// every element against validate. An empty input yields a nil slice, not
// an error.
func splitAndValidate(raw string, validate func(string) bool) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !validate(p) {
			return nil, ErrInvalidEvent
		}
		out = append(out, p)
	}
	return out, nil
}
