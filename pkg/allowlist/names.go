package allowlist

import "fmt"

// SynthesizeNames derives the five stable object names for an identity.
// Pure function: same (id, community) always produces the same Names.
func SynthesizeNames(deploymentID int, community CommunityValue) Names {
	c := community.normalized()
	n := Names{
		PrefixListV4: fmt.Sprintf("PL_ALLOW_LIST_DEPLOYMENT_ID_%d_COMMUNITY_%s_V4", deploymentID, c),
		PrefixListV6: fmt.Sprintf("PL_ALLOW_LIST_DEPLOYMENT_ID_%d_COMMUNITY_%s_V6", deploymentID, c),
		RouteMapV4:   fmt.Sprintf("ALLOW_LIST_DEPLOYMENT_ID_%d_V4", deploymentID),
		RouteMapV6:   fmt.Sprintf("ALLOW_LIST_DEPLOYMENT_ID_%d_V6", deploymentID),
	}
	if community.IsEmpty() {
		n.CommunityName = EmptyCommunity
	} else {
		n.CommunityName = fmt.Sprintf("COMMUNITY_ALLOW_LIST_DEPLOYMENT_ID_%d_COMMUNITY_%s", deploymentID, c)
	}
	return n
}
