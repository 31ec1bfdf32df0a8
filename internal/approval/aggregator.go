package approval

type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

type Tally struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

func Summarize(approvals []*Approval) Tally {
	var t Tally
	for _, a := range approvals {
		t.Total++
		switch a.Status {
		case StatusApproved:
			t.Approved++
		case StatusRejected:
			t.Rejected++
		default:
			t.Pending++
		}
	}
	return t
}

// Percentage is the approved share, rounded down.
func (t Tally) Percentage() int {
	if t.Total == 0 {
		return 0
	}
	return t.Approved * 100 / t.Total
}

// MeetsThreshold compares in integers: approved/total >= required/100.
func (t Tally) MeetsThreshold(required int) bool {
	return t.Total > 0 && t.Approved*100 >= required*t.Total
}

// Decide applies the rule: one rejection vetoes, otherwise the threshold approves.
func Decide(t Tally, required int) Outcome {
	switch {
	case t.Rejected > 0:
		return OutcomeRejected
	case t.MeetsThreshold(required):
		return OutcomeApproved
	default:
		return OutcomePending
	}
}

// CanActNow reports whether target has no pending sibling ahead of it in order_index.
func CanActNow(siblings []*Approval, target *Approval) bool {
	for _, s := range siblings {
		if s.ID != target.ID && s.IsPending() && s.OrderIndex < target.OrderIndex {
			return false
		}
	}
	return true
}

// NextInLine returns the pending approvals that became actionable, lowest order_index first.
func NextInLine(siblings []*Approval) []*Approval {
	var next []*Approval
	lowest := -1
	for _, s := range siblings {
		if !s.IsPending() {
			continue
		}
		switch {
		case lowest == -1 || s.OrderIndex < lowest:
			lowest = s.OrderIndex
			next = []*Approval{s}
		case s.OrderIndex == lowest:
			next = append(next, s)
		}
	}
	return next
}

func forRule(approvals []*Approval, ruleID int64) []*Approval {
	out := make([]*Approval, 0, len(approvals))
	for _, a := range approvals {
		if a.RuleID == ruleID {
			out = append(out, a)
		}
	}
	return out
}
