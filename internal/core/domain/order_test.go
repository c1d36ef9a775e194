package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusPending, false},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestOrderStatus_Predicates(t *testing.T) {
	for _, st := range AllStatuses {
		terminal := st == StatusDelivered || st == StatusCancelled
		if st.IsTerminal() != terminal {
			t.Errorf("%s: IsTerminal = %v", st, st.IsTerminal())
		}
		if st.IsCancellable() == terminal {
			t.Errorf("%s: IsCancellable = %v", st, st.IsCancellable())
		}
		if terminal && len(st.NextStatuses()) != 0 {
			t.Errorf("%s: terminal status has next statuses %v", st, st.NextStatuses())
		}
		modifiable := st == StatusPending || st == StatusConfirmed
		if st.IsModifiable() != modifiable {
			t.Errorf("%s: IsModifiable = %v", st, st.IsModifiable())
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if st, ok := ParseOrderStatus("SHIPPED"); !ok || st != StatusShipped {
		t.Fatalf("expected SHIPPED, got %q %v", st, ok)
	}
	if _, ok := ParseOrderStatus("shipped"); ok {
		t.Fatalf("status names are case-sensitive")
	}
}

func TestValidateAmount(t *testing.T) {
	cases := map[string]bool{
		"0.01":        true,
		"49.99":       true,
		"99999999.99": true,
		"0":           false,
		"-1":          false,
		"1.999":       false,
		"100000000":   false,
	}
	for raw, ok := range cases {
		fe := ValidateAmount("total_amount", decimal.RequireFromString(raw))
		if (fe == nil) != ok {
			t.Errorf("%s: got %v, want ok=%v", raw, fe, ok)
		}
	}
}

func TestValidateLength_CountsRunes(t *testing.T) {
	if fe := ValidateLength("notes", strings.Repeat("ñ", 10), 10); fe != nil {
		t.Fatalf("10 runes must fit a limit of 10: %v", fe)
	}
	fe := ValidateLength("notes", strings.Repeat("a", 11), 10)
	if fe == nil || fe.Field != "notes" || fe.Message != "must not exceed 10 characters" {
		t.Fatalf("unexpected field error: %+v", fe)
	}
}
