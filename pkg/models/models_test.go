package models

import "testing"

func TestPriorityForLevel(t *testing.T) {
	cases := []struct {
		level int
		want  Priority
	}{
		{1, PriorityCritical},
		{2, PriorityHigh},
		{3, PriorityMedium},
		{4, PriorityMedium},
		{5, PriorityLow},
		{0, PriorityMedium},
		{-1, PriorityMedium},
		{99, PriorityMedium},
	}
	for _, tc := range cases {
		if got := PriorityForLevel(tc.level); got != tc.want {
			t.Errorf("PriorityForLevel(%d) = %s, want %s", tc.level, got, tc.want)
		}
	}
}

func TestSeverityRank(t *testing.T) {
	if SeverityLow.Rank() >= SeverityMedium.Rank() ||
		SeverityMedium.Rank() >= SeverityHigh.Rank() ||
		SeverityHigh.Rank() >= SeverityCritical.Rank() {
		t.Fatal("severity ranks not strictly ordered")
	}
	if Severity("UNHEARD_OF").Rank() != -1 {
		t.Fatal("unknown severity must rank below LOW")
	}
}
