package matching

import (
	"fmt"
	"strings"

	"matchmaking/internal/domain/participant"
)

// Weights are the per-factor contributions of the compatibility score.
type Weights struct {
	Geo             int     `yaml:"geo"`
	Industry        int     `yaml:"industry"`
	StageMatch      int     `yaml:"stage_match"`
	StagePartial    int     `yaml:"stage_partial"`
	StageUndeclared int     `yaml:"stage_undeclared"`
	TicketMatch     int     `yaml:"ticket_match"`
	TicketNear      int     `yaml:"ticket_near"`
	TicketNearRatio float64 `yaml:"ticket_near_ratio"`
	TicketNonInvest int     `yaml:"ticket_non_investor"`
}

func DefaultWeights() Weights {
	return Weights{
		Geo:             35,
		Industry:        35,
		StageMatch:      20,
		StagePartial:    5,
		StageUndeclared: 10,
		TicketMatch:     10,
		TicketNear:      5,
		TicketNearRatio: 0.5,
		TicketNonInvest: 10,
	}
}

type Result struct {
	Score     int
	Breakdown []string
}

type Scorer struct {
	w Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Score uses the default weights.
func Score(s participant.Startup, t participant.Target) Result {
	return NewScorer(DefaultWeights()).Score(s, t)
}

func (sc *Scorer) Score(s participant.Startup, t participant.Target) Result {
	w := sc.w
	breakdown := make([]string, 0, 4)
	total := 0

	geo, geoHits := overlap(s.GeoMarkets, t.GeoFocusSet())
	geoPts := 0
	if geo {
		geoPts = clampInt(w.Geo, 0, 100)
		breakdown = append(breakdown, fmt.Sprintf("Geo match: +%d (%s)", geoPts, strings.Join(geoHits, ", ")))
	} else {
		breakdown = append(breakdown, "Geo match: +0")
	}
	total += geoPts

	indPts := 0
	if contains(t.IndustryPreferenceSet(), s.Industry) {
		indPts = clampInt(w.Industry, 0, 100)
		breakdown = append(breakdown, fmt.Sprintf("Industry match: +%d (%s)", indPts, strings.TrimSpace(s.Industry)))
	} else {
		breakdown = append(breakdown, "Industry match: +0")
	}
	total += indPts

	stagePts, stageLine := sc.stageFit(s, t)
	total += stagePts
	breakdown = append(breakdown, stageLine)

	ticketPts, ticketLine := sc.ticketFit(s, t)
	total += ticketPts
	breakdown = append(breakdown, ticketLine)

	return Result{Score: clampInt(total, 0, 100), Breakdown: breakdown}
}

func (sc *Scorer) stageFit(s participant.Startup, t participant.Target) (int, string) {
	decl, ok := t.Profile.(participant.StageDeclarer)
	if !ok {
		if declaresStages(t.Kind) {
			// investor or corporate without a profile: nothing declared.
			return 0, "Stage fit: +0"
		}
		pts := clampInt(sc.w.StageUndeclared, 0, 100)
		return pts, fmt.Sprintf("Stage fit: +%d (no stage preference)", pts)
	}
	stages := decl.DeclaredStages()
	if len(normalizedSet(stages)) == 0 || participant.NormalizeTag(s.FundingStage) == "" {
		return 0, "Stage fit: +0"
	}
	if contains(stages, s.FundingStage) {
		pts := clampInt(sc.w.StageMatch, 0, 100)
		return pts, fmt.Sprintf("Stage fit: +%d (%s)", pts, strings.TrimSpace(s.FundingStage))
	}
	pts := clampInt(sc.w.StagePartial, 0, 100)
	return pts, fmt.Sprintf("Stage fit: +%d (partial)", pts)
}

func (sc *Scorer) ticketFit(s participant.Startup, t participant.Target) (int, string) {
	if t.Kind != participant.KindInvestor {
		pts := clampInt(sc.w.TicketNonInvest, 0, 100)
		return pts, fmt.Sprintf("Ticket size fit: +%d (not applicable)", pts)
	}
	inv, ok := t.Profile.(participant.InvestorProfile)
	if !ok || inv.MaxTicketSize <= 0 || s.FundingTarget <= 0 {
		return 0, "Ticket size fit: +0"
	}
	amount := float64(s.FundingTarget)
	lo := float64(inv.MinTicketSize)
	hi := float64(inv.MaxTicketSize)
	if amount >= lo && amount <= hi {
		pts := clampInt(sc.w.TicketMatch, 0, 100)
		return pts, fmt.Sprintf("Ticket size fit: +%d (%d-%d)", pts, inv.MinTicketSize, inv.MaxTicketSize)
	}

	r := sc.w.TicketNearRatio
	if r < 0 {
		r = 0
	}
	nearLow := amount < lo && amount >= lo*(1-r)
	nearHigh := amount > hi && amount <= hi*(1+r)
	if nearLow || nearHigh {
		pts := clampInt(sc.w.TicketNear, 0, 100)
		return pts, fmt.Sprintf("Ticket size fit: +%d (near range)", pts)
	}
	return 0, "Ticket size fit: +0"
}

func declaresStages(k participant.TargetKind) bool {
	return k == participant.KindInvestor || k == participant.KindCorporate
}

// overlap reports whether a and b intersect and returns the shared entries in
// the order they appear in a.
func overlap(a, b []string) (bool, []string) {
	set := normalizedSet(b)
	if len(set) == 0 {
		return false, nil
	}
	var hits []string
	seen := map[string]struct{}{}
	for _, v := range a {
		n := participant.NormalizeTag(v)
		if n == "" {
			continue
		}
		if _, ok := set[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		hits = append(hits, strings.TrimSpace(v))
	}
	return len(hits) > 0, hits
}

func contains(set []string, v string) bool {
	n := participant.NormalizeTag(v)
	if n == "" {
		return false
	}
	_, ok := normalizedSet(set)[n]
	return ok
}

func normalizedSet(vals []string) map[string]struct{} {
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		n := participant.NormalizeTag(v)
		if n == "" {
			continue
		}
		out[n] = struct{}{}
	}
	return out
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
