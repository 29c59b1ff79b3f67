// Package bbrgate is a minimal second configuration-database manager,
// toggling BBR (Bandwidth Based Reduction) allowas-in on all peer groups
// behind a constants-gated feature flag. It shares the same
// set/del-handler shape as the allow-list dispatcher but owns no
// parser/sequence-allocator machinery of its own.
package bbrgate

import (
	"context"
	"fmt"

	"github.com/newtron-network/bgp-allowlistd/pkg/allowlist"
	"github.com/newtron-network/bgp-allowlistd/pkg/util"
)

// PeerGroupSource supplies the peer groups BBR should be toggled on; in a
// full daemon this would be filled by whatever feature parses device
// minigraph/peer-group configuration, an unrelated concern this package
// does not own.
type PeerGroupSource interface {
	PeerGroups() []string
}

// Gate toggles global BBR allowas-in behind constants.bgp.bbr.enabled.
type Gate struct {
	view       *allowlist.ConfigView
	peerGroups PeerGroupSource
	bgpASN     string
	enabled    bool
}

// NewGate constructs a Gate. bgpASN is the local router's ASN, used to
// address "router bgp <asn>" the same way the allow-list reconciler
// addresses route-maps and prefix-lists by name.
func NewGate(view *allowlist.ConfigView, peerGroups PeerGroupSource, bgpASN string, enabled bool) *Gate {
	return &Gate{view: view, peerGroups: peerGroups, bgpASN: bgpASN, enabled: enabled}
}

// HandleSet implements allowlist.TableHandler. The only valid key is
// "all"; the only valid status values are "enabled" and "disabled" — the
// validator here uses a logical AND to actually enforce that, unlike the
// disjunction in the source this was ported from, which was always true.
func (g *Gate) HandleSet(ctx context.Context, key string, data map[string]string) bool {
	if !g.enabled {
		util.Debug("BBR feature disabled in constants, ignoring SET")
		return true
	}
	if key != "all" {
		util.WithField("key", key).Warn("invalid key for BBR table, expected 'all'")
		return true
	}
	status, ok := data["status"]
	if !ok || (status != "enabled" && status != "disabled") {
		util.WithField("data", data).Warn("invalid status value for BBR table")
		return true
	}

	groups := g.peerGroups.PeerGroups()
	if len(groups) == 0 {
		util.Debug("no peer groups known yet, deferring BBR toggle")
		return true
	}

	if err := g.push(ctx, status == "enabled", groups); err != nil {
		util.WithField("error", err).Error("failed to push BBR toggle")
	}
	return true
}

// HandleDel implements allowlist.TableHandler. The BBR table is not
// expected to be removed; deletion is logged and otherwise ignored.
func (g *Gate) HandleDel(ctx context.Context, key string) bool {
	util.WithField("key", key).Warn("BBR table should not be removed")
	return true
}

func (g *Gate) push(ctx context.Context, enable bool, peerGroups []string) error {
	if err := g.view.Refresh(ctx); err != nil {
		return err
	}

	prefix := ""
	if !enable {
		prefix = "no "
	}

	cmds := []string{fmt.Sprintf("router bgp %s", g.bgpASN)}
	for _, af := range []string{"ipv4", "ipv6"} {
		cmds = append(cmds, fmt.Sprintf(" address-family %s", af))
		for _, pg := range peerGroups {
			cmds = append(cmds, fmt.Sprintf(" %sneighbor %s allowas-in 1", prefix, pg))
		}
	}

	ok, err := g.view.Push(ctx, cmds)
	if err != nil || !ok {
		return fmt.Errorf("push BBR command batch: %w", err)
	}
	return nil
}
