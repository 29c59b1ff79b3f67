package allowlist

import "fmt"

const (
	communitySeqStart = 10
	communitySeqEnd   = 29990
	plainSeqStart     = 30000
	plainSeqEnd       = 65520
	seqStep           = 10
)

// NextSequence allocates the next free route-map sequence number under the
// band partitioning policy: community-qualified entries occupy
// [10, 29990], unqualified entries occupy [30000, 65520]. Partitioning
// guarantees community-qualified entries are evaluated before unqualified
// ones without an explicit sort step.
func NextSequence(used map[int]bool, hasCommunity bool) (int, error) {
	start, end := plainSeqStart, plainSeqEnd
	if hasCommunity {
		start, end = communitySeqStart, communitySeqEnd
	}
	for seq := start; seq <= end; seq += seqStep {
		if !used[seq] {
			return seq, nil
		}
	}
	return 0, fmt.Errorf("%w: no free sequence in [%d, %d]", ErrSequenceSpaceExhausted, start, end)
}
