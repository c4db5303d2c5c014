package matching

import (
	"matchmaking/internal/domain/participant"
)

const DefaultMinScore = 10

type Options struct {
	// MaxMeetingsPerStartup caps meetings per startup, seed included. Zero
	// means unlimited.
	MaxMeetingsPerStartup int
	// MemberNameFilter, when non-empty, restricts targets to these members.
	MemberNameFilter []string
	// MinScore is the eligibility threshold; zero selects DefaultMinScore.
	MinScore int
}

func (o Options) minScore() int {
	if o.MinScore <= 0 {
		return DefaultMinScore
	}
	return o.MinScore
}

type Pair struct {
	Startup participant.Startup
	Target  participant.Target
	Result  Result
}

// EligiblePairs reduces startups × targets to the pairs allowed to meet at
// all, scoring each one on the way.
func EligiblePairs(startups []participant.Startup, targets []participant.Target, seed *Usage, opts Options, sc *Scorer) []Pair {
	if seed == nil {
		seed = NewUsage()
	}
	if sc == nil {
		sc = NewScorer(DefaultWeights())
	}

	var members map[string]struct{}
	if len(opts.MemberNameFilter) > 0 {
		members = normalizedSet(opts.MemberNameFilter)
	}

	out := make([]Pair, 0)
	for _, s := range startups {
		if !s.Attendance.IsPresent() {
			continue
		}
		if opts.MaxMeetingsPerStartup > 0 && seed.Meetings(s.ID) >= opts.MaxMeetingsPerStartup {
			continue
		}
		for _, t := range targets {
			if !t.AttendanceStatus().IsPresent() {
				continue
			}
			if t.Capacity()-seed.Committed(t.ID) <= 0 {
				continue
			}
			if members != nil {
				if _, ok := members[participant.NormalizeTag(t.MemberName)]; !ok {
					continue
				}
			}
			if seed.HasPair(s.ID, t.ID) {
				continue
			}
			res := sc.Score(s, t)
			if res.Score < opts.minScore() {
				continue
			}
			out = append(out, Pair{Startup: s, Target: t, Result: res})
		}
	}
	return out
}
