package alerts

import "testing"

func TestPlanLimit(t *testing.T) {
	cases := map[string]int{
		"starter": 1,
		"pro":     5,
		"team":    -1,
		"unknown": 0,
	}
	for plan, want := range cases {
		if got := PlanLimit(plan); got != want {
			t.Errorf("PlanLimit(%q) = %d, want %d", plan, got, want)
		}
	}
}
