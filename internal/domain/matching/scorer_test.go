package matching

import (
	"reflect"
	"testing"

	"matchmaking/internal/domain/participant"
)

func TestScore_FullMatchInvestor(t *testing.T) {
	res := Score(aiStartup(1), aiInvestor(1, 3))
	if res.Score != 100 {
		t.Fatalf("expected score 100, got %d (%v)", res.Score, res.Breakdown)
	}
	want := []string{
		"Geo match: +35 (Europe)",
		"Industry match: +35 (AI/ML)",
		"Stage fit: +20 (Seed)",
		"Ticket size fit: +10 (100000-1000000)",
	}
	if !reflect.DeepEqual(res.Breakdown, want) {
		t.Fatalf("unexpected breakdown:\n got %q\nwant %q", res.Breakdown, want)
	}
}

func TestScore_IndustryMismatch(t *testing.T) {
	inv := aiInvestor(1, 3)
	inv.IndustryPreferences = []string{"Fintech"}

	res := Score(aiStartup(1), inv)
	if res.Score != 65 {
		t.Fatalf("expected score 65, got %d (%v)", res.Score, res.Breakdown)
	}
	if res.Breakdown[1] != "Industry match: +0" {
		t.Fatalf("expected industry line +0, got %q", res.Breakdown[1])
	}
}

func TestScore_StagePartialCredit(t *testing.T) {
	s := aiStartup(1)
	s.FundingStage = "Series B"

	res := Score(s, aiInvestor(1, 3))
	if res.Score != 85 {
		t.Fatalf("expected 35+35+5+10=85, got %d (%v)", res.Score, res.Breakdown)
	}
	if res.Breakdown[2] != "Stage fit: +5 (partial)" {
		t.Fatalf("unexpected stage line %q", res.Breakdown[2])
	}
}

func TestScore_TicketNearRange(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		want   int
	}{
		{name: "inside", amount: 1_000_000, want: 10},
		{name: "below within half", amount: 60_000, want: 5},
		{name: "below beyond half", amount: 40_000, want: 0},
		{name: "above within half", amount: 1_400_000, want: 5},
		{name: "above beyond half", amount: 1_600_000, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := aiStartup(1)
			s.FundingTarget = tc.amount
			res := Score(s, aiInvestor(1, 3))
			if got := res.Score - 90; got != tc.want {
				t.Fatalf("ticket points: expected %d, got %d (%v)", tc.want, got, res.Breakdown)
			}
		})
	}
}

func TestScore_MentorGetsFlatBonuses(t *testing.T) {
	res := Score(aiStartup(1), mentor(1, 2))
	if res.Score != 90 {
		t.Fatalf("expected 35+35+10+10=90, got %d (%v)", res.Score, res.Breakdown)
	}
	if res.Breakdown[2] != "Stage fit: +10 (no stage preference)" {
		t.Fatalf("unexpected stage line %q", res.Breakdown[2])
	}
	if res.Breakdown[3] != "Ticket size fit: +10 (not applicable)" {
		t.Fatalf("unexpected ticket line %q", res.Breakdown[3])
	}
}

func TestScore_CorporateStages(t *testing.T) {
	corp := participant.Target{
		ID:                  targetID(9),
		Kind:                participant.KindCorporate,
		GeoFocus:            []string{"Asia"},
		IndustryPreferences: []string{"ai/ml "},
		TotalSlots:          1,
		Profile:             participant.CorporateProfile{Stages: []string{"seed"}},
	}
	res := Score(aiStartup(1), corp)
	if res.Score != 65 {
		t.Fatalf("expected 0+35+20+10=65, got %d (%v)", res.Score, res.Breakdown)
	}
}

func TestScore_EmptyPreferencesNeverWildcard(t *testing.T) {
	inv := aiInvestor(1, 3)
	inv.GeoFocus = nil
	inv.IndustryPreferences = nil
	inv.Profile = participant.InvestorProfile{}

	res := Score(aiStartup(1), inv)
	if res.Score != 0 {
		t.Fatalf("expected 0 for empty preference sets, got %d (%v)", res.Score, res.Breakdown)
	}

	s := aiStartup(1)
	s.GeoMarkets = nil
	s.Industry = ""
	res = Score(s, mentor(1, 1))
	if res.Score != 20 {
		t.Fatalf("expected only the flat mentor bonuses (20), got %d (%v)", res.Score, res.Breakdown)
	}
}

func TestScore_CustomWeightsClampToHundred(t *testing.T) {
	w := DefaultWeights()
	w.Geo = 80
	w.Industry = 80

	res := NewScorer(w).Score(aiStartup(1), aiInvestor(1, 1))
	if res.Score != 100 {
		t.Fatalf("expected clamp to 100, got %d", res.Score)
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := aiStartup(1)
	s.GeoMarkets = []string{"Europe", "North America", "europe"}
	a := Score(s, aiInvestor(1, 1))
	b := Score(s, aiInvestor(1, 1))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("score not deterministic: %v vs %v", a, b)
	}
	if a.Breakdown[0] != "Geo match: +35 (Europe, North America)" {
		t.Fatalf("unexpected geo line %q", a.Breakdown[0])
	}
}
