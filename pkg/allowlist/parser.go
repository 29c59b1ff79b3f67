package allowlist

import (
	"fmt"
	"strconv"
	"strings"
)

// PrefixListState reports whether a prefix-list named "name" exists in the
// cached configuration, and whether its contents already match the
// expected constant-then-allow layout.
type PrefixListState struct {
	Exists  bool
	Correct bool
}

// prefixListState walks the cached lines looking for
// "{family} prefix-list {name} seq " entries. correct requires every
// expected constant to appear, in order, before any expected allow entry,
// and every expected allow entry to also appear — the check is symmetric:
// both sets must be fully covered, not just the one that happens to be
// checked first.
func prefixListState(lines []string, family Family, name string, expectedAllow, expectedConstants []string) PrefixListState {
	prefix := fmt.Sprintf("%s prefix-list %s seq ", family.vtyFamily(), name)
	var entries []string
	exists := false
	for _, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		exists = true
		entries = append(entries, strings.TrimPrefix(line, prefix))
	}
	if !exists {
		return PrefixListState{Exists: false, Correct: false}
	}

	expectedLines := make([]string, 0, len(expectedConstants)+len(expectedAllow))
	expectedLines = append(expectedLines, expectedConstants...)
	for _, p := range expectedAllow {
		expectedLines = append(expectedLines, fmt.Sprintf("permit %s ge %d", p, prefixLen(p)+1))
	}

	constantsSeen := 0
	allowSeen := map[string]bool{}
	constantsDone := false
	for _, entry := range entries {
		body := stripSeqNumber(entry)
		if !constantsDone && constantsSeen < len(expectedConstants) && body == expectedConstants[constantsSeen] {
			constantsSeen++
			continue
		}
		constantsDone = true
		allowSeen[body] = true
	}
	if constantsSeen != len(expectedConstants) {
		return PrefixListState{Exists: true, Correct: false}
	}
	for _, a := range expectedLines[len(expectedConstants):] {
		if !allowSeen[a] {
			return PrefixListState{Exists: true, Correct: false}
		}
	}
	return PrefixListState{Exists: true, Correct: len(allowSeen) == len(expectedAllow)}
}

// stripSeqNumber removes a leading "<digits> " token, the seq number, from
// a prefix-list entry body.
func stripSeqNumber(s string) string {
	i := strings.IndexByte(s, ' ')
	if i < 0 {
		return s
	}
	if _, err := strconv.Atoi(s[:i]); err != nil {
		return s
	}
	return s[i+1:]
}

// CommunityState reports whether a community-list named "name" exists,
// and its currently configured value.
type CommunityState struct {
	Exists bool
	Value  string
}

func communityState(lines []string, name string) CommunityState {
	prefix := fmt.Sprintf("bgp community-list standard %s permit ", name)
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			return CommunityState{Exists: true, Value: strings.TrimPrefix(line, prefix)}
		}
	}
	return CommunityState{}
}

// routeMapEntries extracts the parsed route-map sections for rmName,
// selecting the prefix-list match line for the given family. A section
// with no matching prefix-list line is incomplete and discarded. Sequence
// number ReservedSeq is skipped.
func routeMapEntries(lines []string, family Family, rmName string) map[int]RouteMapEntry {
	header := fmt.Sprintf("route-map %s permit ", rmName)
	plMatch := fmt.Sprintf("match %s address prefix-list ", family.vtyFamily())
	const communityMatch = "match community "

	result := map[int]RouteMapEntry{}
	var curSeq int
	inSection := false
	var curPL, curCommunity string
	haveLine := false

	flush := func() {
		if inSection && haveLine && curSeq != ReservedSeq {
			community := curCommunity
			if community == "" {
				community = EmptyCommunity
			}
			result[curSeq] = RouteMapEntry{Seq: curSeq, PrefixListRef: curPL, CommunityRef: community}
		}
		inSection = false
		haveLine = false
		curPL = ""
		curCommunity = ""
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(line, header) {
			flush()
			seqStr := strings.TrimPrefix(line, header)
			seq, err := strconv.Atoi(strings.TrimSpace(seqStr))
			if err != nil {
				inSection = false
				continue
			}
			curSeq = seq
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if strings.HasPrefix(trimmed, plMatch) {
			curPL = strings.TrimPrefix(trimmed, plMatch)
			haveLine = true
			continue
		}
		if strings.HasPrefix(trimmed, communityMatch) {
			curCommunity = strings.TrimPrefix(trimmed, communityMatch)
			continue
		}
		// Any other line (including the opposite family's match line)
		// ends this section.
		flush()
	}
	flush()
	return result
}
