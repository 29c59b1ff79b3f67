// Package allowlist reconciles declared BGP allow-list intent against the
// running configuration of a BGP routing engine: prefix-lists,
// community-lists and route-maps keyed off deployment/community identity.
package allowlist

import "fmt"

// Family distinguishes IPv4 from IPv6 throughout the package.
type Family int

const (
	FamilyV4 Family = iota
	FamilyV6
)

func (f Family) String() string {
	if f == FamilyV6 {
		return "ipv6"
	}
	return "ip"
}

// vtyFamily returns the family token vtysh expects in "ip prefix-list" /
// "ipv6 prefix-list" and "match ip[v6] address" lines.
func (f Family) vtyFamily() string {
	if f == FamilyV6 {
		return "ipv6"
	}
	return "ip"
}

// EmptyCommunity is the sentinel used when an entry matches purely by
// prefix, carrying no BGP community constraint.
const EmptyCommunity = "empty"

// CommunityValue is either EmptyCommunity or a colon-separated BGP
// community string such as "65000:1000".
type CommunityValue string

// IsEmpty reports whether this is the EMPTY sentinel.
func (c CommunityValue) IsEmpty() bool {
	return string(c) == "" || string(c) == EmptyCommunity
}

// normalized returns the community in its name-synthesis form: EMPTY
// collapses to the literal "empty" token used in synthesized names.
func (c CommunityValue) normalized() string {
	if c.IsEmpty() {
		return EmptyCommunity
	}
	return string(c)
}

// Entry is the declarative intent for one (deployment_id, community)
// identity: the v4/v6 prefix sets it should admit.
type Entry struct {
	DeploymentID int
	Community    CommunityValue
	V4Prefixes   []string
	V6Prefixes   []string
}

// Key returns a string uniquely identifying this entry's identity,
// suitable as a map key for caching.
func (e Entry) Key() string {
	return fmt.Sprintf("%d|%s", e.DeploymentID, e.Community.normalized())
}

// Names holds the five strings synthesized from an entry's identity. See
// SynthesizeNames.
type Names struct {
	PrefixListV4  string
	PrefixListV6  string
	RouteMapV4    string
	RouteMapV6    string
	CommunityName string // EmptyCommunity when Community is EMPTY
}

// ConstantPrefixes are process-wide read-only prefix-list rule lines,
// prepended to every generated prefix-list so denied aggregates always
// precede allowed entries.
type ConstantPrefixes struct {
	V4 []string
	V6 []string
}

// RouteMapEntry is one parsed route-map permit clause.
type RouteMapEntry struct {
	Seq          int
	PrefixListRef string
	CommunityRef string // EmptyCommunity when no "match community" clause
}

// ReservedSeq is the implicit engine default-deny terminator; never
// allocated or touched by the reconciler.
const ReservedSeq = 65535
