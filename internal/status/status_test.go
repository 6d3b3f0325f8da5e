package status

import (
	"errors"
	"testing"
)

func TestParse_Canonical(t *testing.T) {
	for _, raw := range []string{"pending", "in_progress", "delivered", "payment", "completed", "cancelled"} {
		s, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", raw, err)
		}
		if string(s) != raw {
			t.Errorf("Parse(%q) = %q, want identity", raw, s)
		}
	}
}

func TestParse_Aliases(t *testing.T) {
	cases := map[string]Status{
		"confirmed": InProgress,
		"ready":     Delivered,
	}
	for raw, want := range cases {
		s, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", raw, err)
		}
		if s != want {
			t.Errorf("Parse(%q) = %q, want %q", raw, s, want)
		}
	}
}

func TestParse_Unknown(t *testing.T) {
	if _, err := Parse("shipped"); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestValidate_ForwardPath(t *testing.T) {
	path := []Status{Pending, InProgress, Delivered, Payment, Completed}
	for i := 0; i < len(path)-1; i++ {
		res, err := Validate(path[i], path[i+1])
		if err != nil {
			t.Fatalf("Validate(%s, %s) returned error: %v", path[i], path[i+1], err)
		}
		if res != Advance {
			t.Errorf("Validate(%s, %s) = %v, want Advance", path[i], path[i+1], res)
		}
	}
}

func TestValidate_SameStatusIsNoop(t *testing.T) {
	res, err := Validate(Delivered, Delivered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != Noop {
		t.Errorf("Validate(delivered, delivered) = %v, want Noop", res)
	}
}

func TestValidate_NeverMovesBackward(t *testing.T) {
	// Once delivered, an order can never read as pending or in_progress.
	for _, target := range []Status{Pending, InProgress} {
		if _, err := Validate(Delivered, target); !errors.Is(err, ErrAlreadyPassed) {
			t.Errorf("Validate(delivered, %s): expected ErrAlreadyPassed, got %v", target, err)
		}
	}
}

func TestValidate_PaymentRequiresDelivered(t *testing.T) {
	for _, from := range []Status{Pending, InProgress} {
		if _, err := Validate(from, Payment); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Validate(%s, payment): expected ErrInvalidTransition, got %v", from, err)
		}
	}
}

func TestValidate_CancelledFromPrePayment(t *testing.T) {
	for _, from := range []Status{Pending, InProgress, Delivered} {
		res, err := Validate(from, Cancelled)
		if err != nil {
			t.Fatalf("Validate(%s, cancelled) returned error: %v", from, err)
		}
		if res != Advance {
			t.Errorf("Validate(%s, cancelled) = %v, want Advance", from, res)
		}
	}
	if _, err := Validate(Payment, Cancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Validate(payment, cancelled): expected ErrInvalidTransition, got %v", err)
	}
	if _, err := Validate(Completed, Cancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Validate(completed, cancelled): expected ErrInvalidTransition, got %v", err)
	}
}

func TestValidate_TerminalStates(t *testing.T) {
	if !Completed.Terminal() {
		t.Error("completed should be terminal")
	}
	if !Cancelled.Terminal() {
		t.Error("cancelled should be terminal")
	}
	if Payment.Terminal() {
		t.Error("payment should not be terminal")
	}
}

func TestBillingReady(t *testing.T) {
	if !Delivered.BillingReady() || !Payment.BillingReady() {
		t.Error("delivered and payment should be billing-ready")
	}
	for _, s := range []Status{Pending, InProgress, Completed, Cancelled} {
		if s.BillingReady() {
			t.Errorf("%s should not be billing-ready", s)
		}
	}
}

func TestCanInvoke(t *testing.T) {
	cases := []struct {
		role Role
		from Status
		to   Status
		want bool
	}{
		{RoleStaff, Pending, InProgress, true},
		{RoleCustomer, Pending, InProgress, false},
		{RoleCustomer, InProgress, Delivered, true},
		{RoleStaff, InProgress, Delivered, true},
		{RoleCustomer, Delivered, Payment, true},
		{RoleStaff, Delivered, Payment, false},
		{RoleCustomer, Payment, Completed, true},
		{RoleStaff, Payment, Completed, true},
		{RoleStaff, Delivered, Cancelled, true},
		{RoleCustomer, Pending, Cancelled, true},
		{RoleCustomer, Delivered, Cancelled, false},
		{RoleAdmin, Pending, InProgress, true},
		{RoleAdmin, Delivered, Cancelled, true},
	}
	for _, tc := range cases {
		if got := CanInvoke(tc.role, tc.from, tc.to); got != tc.want {
			t.Errorf("CanInvoke(%s, %s, %s) = %v, want %v", tc.role, tc.from, tc.to, got, tc.want)
		}
	}
}
