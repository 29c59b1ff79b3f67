package allowlist

import (
	"context"
	"fmt"

	"github.com/newtron-network/bgp-allowlistd/pkg/util"
)

// Recorder observes reconciliation outcomes; a no-op implementation is
// used when metrics are not wired in, so the core package never imports
// a metrics library directly.
type Recorder interface {
	ApplyAttempted()
	RetractAttempted()
	Noop()
	EngineError()
	SequenceExhausted()
	EntriesTracked(n int)
}

type nopRecorder struct{}

func (nopRecorder) ApplyAttempted()    {}
func (nopRecorder) RetractAttempted()  {}
func (nopRecorder) Noop()              {}
func (nopRecorder) EngineError()       {}
func (nopRecorder) SequenceExhausted() {}
func (nopRecorder) EntriesTracked(int) {}

// PolicyReconciler computes and applies the command diff needed to bring
// the engine's running configuration in line with declared intent.
type PolicyReconciler struct {
	view      *ConfigView
	constants ConstantPrefixes
	recorder  Recorder
	tracked   map[string]bool
}

// NewPolicyReconciler constructs a reconciler against the given engine
// view and process-wide constant prefix lists. A nil recorder is replaced
// with a no-op implementation.
func NewPolicyReconciler(view *ConfigView, constants ConstantPrefixes, recorder Recorder) *PolicyReconciler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &PolicyReconciler{view: view, constants: constants, recorder: recorder, tracked: map[string]bool{}}
}

// Apply reconciles the engine configuration toward the declared prefix
// sets for (deploymentID, community). Always recovers internally: errors
// are logged and returned, but the caller (EventDispatcher) treats the
// event as handled regardless.
func (r *PolicyReconciler) Apply(ctx context.Context, deploymentID int, community CommunityValue, v4, v6 []string) error {
	r.recorder.ApplyAttempted()
	names := SynthesizeNames(deploymentID, community)
	log := util.WithDeployment(deploymentID).WithField("community", string(community))

	if err := r.view.Refresh(ctx); err != nil {
		r.recorder.EngineError()
		log.WithField("error", err).Error("failed to refresh running configuration")
		return err
	}

	var batch []string
	batch = append(batch, r.buildPrefixListUpdate(FamilyV4, names.PrefixListV4, v4)...)
	batch = append(batch, r.buildPrefixListUpdate(FamilyV6, names.PrefixListV6, v6)...)
	batch = append(batch, r.buildCommunityUpdate(names.CommunityName, community)...)

	rmV4, err := r.buildRouteMapUpdate(FamilyV4, names.RouteMapV4, names.PrefixListV4, names.CommunityName)
	if err != nil {
		r.recorder.SequenceExhausted()
		log.WithField("error", err).Error("sequence space exhausted for v4 route-map")
		return err
	}
	batch = append(batch, rmV4...)

	rmV6, err := r.buildRouteMapUpdate(FamilyV6, names.RouteMapV6, names.PrefixListV6, names.CommunityName)
	if err != nil {
		r.recorder.SequenceExhausted()
		log.WithField("error", err).Error("sequence space exhausted for v6 route-map")
		return err
	}
	batch = append(batch, rmV6...)

	if len(batch) == 0 {
		r.recorder.Noop()
		log.Debug("allow-list entry already converged, nothing to push")
		r.tracked[fmt.Sprintf("%d|%s", deploymentID, names.CommunityName)] = true
		r.recorder.EntriesTracked(len(r.tracked))
		return nil
	}

	ok, err := r.view.Push(ctx, batch)
	if err != nil || !ok {
		r.recorder.EngineError()
		log.WithField("error", err).Error("failed to push allow-list command batch")
		return err
	}

	if err := r.view.SoftReload(ctx); err != nil {
		r.recorder.EngineError()
		log.WithField("error", err).Warn("push succeeded but soft reload failed")
		return err
	}

	r.tracked[fmt.Sprintf("%d|%s", deploymentID, names.CommunityName)] = true
	r.recorder.EntriesTracked(len(r.tracked))
	log.WithField("commands", len(batch)).Info("reconciled allow-list entry")
	return nil
}

// Retract removes all engine state for (deploymentID, community): route-map
// entries first, then prefix-lists, then the community-list, so references
// are torn down before the objects they point to.
func (r *PolicyReconciler) Retract(ctx context.Context, deploymentID int, community CommunityValue) error {
	r.recorder.RetractAttempted()
	names := SynthesizeNames(deploymentID, community)
	log := util.WithDeployment(deploymentID).WithField("community", string(community))

	if err := r.view.Refresh(ctx); err != nil {
		r.recorder.EngineError()
		log.WithField("error", err).Error("failed to refresh running configuration before retract")
		return err
	}

	var batch []string
	batch = append(batch, r.buildRouteMapRemoval(FamilyV4, names.RouteMapV4, names.PrefixListV4, names.CommunityName)...)
	batch = append(batch, r.buildRouteMapRemoval(FamilyV6, names.RouteMapV6, names.PrefixListV6, names.CommunityName)...)
	batch = append(batch, r.buildPrefixListRemoval(FamilyV4, names.PrefixListV4)...)
	batch = append(batch, r.buildPrefixListRemoval(FamilyV6, names.PrefixListV6)...)
	batch = append(batch, r.buildCommunityRemoval(names.CommunityName)...)

	delete(r.tracked, fmt.Sprintf("%d|%s", deploymentID, names.CommunityName))
	r.recorder.EntriesTracked(len(r.tracked))

	if len(batch) == 0 {
		r.recorder.Noop()
		return nil
	}

	ok, err := r.view.Push(ctx, batch)
	if err != nil || !ok {
		r.recorder.EngineError()
		log.WithField("error", err).Error("failed to push allow-list removal batch")
		return err
	}

	if err := r.view.SoftReload(ctx); err != nil {
		r.recorder.EngineError()
		log.WithField("error", err).Warn("retract push succeeded but soft reload failed")
		return err
	}

	log.WithField("commands", len(batch)).Info("retracted allow-list entry")
	return nil
}

func (r *PolicyReconciler) buildPrefixListUpdate(family Family, name string, prefixes []string) []string {
	constants := r.constants.V4
	if family == FamilyV6 {
		constants = r.constants.V6
	}
	state := prefixListState(r.view.Lines(), family, name, prefixes, constants)
	if state.Correct {
		return nil
	}

	var cmds []string
	if state.Exists {
		cmds = append(cmds, fmt.Sprintf("no %s prefix-list %s", family.vtyFamily(), name))
	}
	if len(prefixes) == 0 && len(constants) == 0 {
		return cmds
	}

	seq := seqStep
	for _, line := range constants {
		cmds = append(cmds, fmt.Sprintf("%s prefix-list %s seq %d %s", family.vtyFamily(), name, seq, line))
		seq += seqStep
	}
	for _, p := range prefixes {
		cmds = append(cmds, fmt.Sprintf("%s prefix-list %s seq %d permit %s ge %d", family.vtyFamily(), name, seq, p, prefixLen(p)+1))
		seq += seqStep
	}
	return cmds
}

func (r *PolicyReconciler) buildPrefixListRemoval(family Family, name string) []string {
	for _, line := range r.view.Lines() {
		if hasPrefixListEntries(line, family, name) {
			return []string{fmt.Sprintf("no %s prefix-list %s", family.vtyFamily(), name)}
		}
	}
	return nil
}

func hasPrefixListEntries(line string, family Family, name string) bool {
	prefix := fmt.Sprintf("%s prefix-list %s seq ", family.vtyFamily(), name)
	return len(line) >= len(prefix) && line[:len(prefix)] == prefix
}

func (r *PolicyReconciler) buildCommunityUpdate(name string, community CommunityValue) []string {
	if community.IsEmpty() {
		return nil
	}
	state := communityState(r.view.Lines(), name)
	if state.Exists && state.Value == string(community) {
		return nil
	}
	var cmds []string
	if state.Exists {
		cmds = append(cmds, fmt.Sprintf("no bgp community-list standard %s", name))
	}
	cmds = append(cmds, fmt.Sprintf("bgp community-list standard %s permit %s", name, community))
	return cmds
}

func (r *PolicyReconciler) buildCommunityRemoval(name string) []string {
	if name == EmptyCommunity {
		return nil
	}
	state := communityState(r.view.Lines(), name)
	if !state.Exists {
		return nil
	}
	return []string{fmt.Sprintf("no bgp community-list standard %s", name)}
}

func (r *PolicyReconciler) buildRouteMapUpdate(family Family, rmName, plName, communityName string) ([]string, error) {
	entries := routeMapEntries(r.view.Lines(), family, rmName)
	for _, e := range entries {
		if e.PrefixListRef == plName && e.CommunityRef == communityName {
			return nil, nil
		}
	}

	used := make(map[int]bool, len(entries))
	for seq := range entries {
		used[seq] = true
	}
	hasCommunity := communityName != EmptyCommunity
	seq, err := NextSequence(used, hasCommunity)
	if err != nil {
		return nil, err
	}

	cmds := []string{
		fmt.Sprintf("route-map %s permit %d", rmName, seq),
		fmt.Sprintf(" match %s address prefix-list %s", family.vtyFamily(), plName),
	}
	if hasCommunity {
		cmds = append(cmds, fmt.Sprintf(" match community %s", communityName))
	}
	return cmds, nil
}

func (r *PolicyReconciler) buildRouteMapRemoval(family Family, rmName, plName, communityName string) []string {
	entries := routeMapEntries(r.view.Lines(), family, rmName)
	for _, e := range entries {
		if e.PrefixListRef == plName && e.CommunityRef == communityName {
			return []string{fmt.Sprintf("no route-map %s permit %d", rmName, e.Seq)}
		}
	}
	return nil
}
