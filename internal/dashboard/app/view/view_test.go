package view

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"restobill/internal/broadcast"
	"restobill/internal/dashboard/app/core"
	"restobill/internal/session"
	"restobill/internal/status"
	"restobill/pkg/logger"
	"restobill/pkg/models"
)

type fakeSource struct {
	mu     sync.Mutex
	orders map[int64]models.Order
	bin    []models.RecycleBinEntry
}

func newFakeSource() *fakeSource {
	return &fakeSource{orders: make(map[int64]models.Order)}
}

func (f *fakeSource) put(order models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order
}

func (f *fakeSource) remove(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, id)
}

func (f *fakeSource) Order(ctx context.Context, id int64) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return models.Order{}, core.ErrNotFound
	}
	return order, nil
}

func (f *fakeSource) Orders(ctx context.Context, hotelID string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []models.Order
	for _, order := range f.orders {
		if order.HotelID == hotelID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (f *fakeSource) Bills(ctx context.Context, hotelID string) ([]models.Bill, error) {
	return nil, nil
}

func (f *fakeSource) RecycleBin(ctx context.Context, hotelID string) ([]models.RecycleBinEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.RecycleBinEntry(nil), f.bin...), nil
}

func testOrder(id int64, hotelID, orderStatus string) models.Order {
	return models.Order{
		ID:           id,
		HotelID:      hotelID,
		OrderNumber:  "ORD_20250301_001",
		CustomerName: "Priya",
		DiningType:   models.DiningTypeDineIn,
		Status:       orderStatus,
		TotalAmount:  55,
	}
}

// waitFor polls the condition until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func startView(t *testing.T, v *View) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("view did not shut down")
		}
	})
}

func TestPollHealsDroppedEvent(t *testing.T) {
	source := newFakeSource()
	sess := session.Login(status.RoleStaff, "hotel-1").WithStaff("staff-9")
	events := make(chan broadcast.Event) // nothing is ever published

	v := New(sess, source, events, 20*time.Millisecond, logger.New("view-test"))
	startView(t, v)

	// The mutation happens without any event reaching the view.
	source.put(testOrder(1, "hotel-1", "pending"))

	waitFor(t, func() bool { return len(v.Orders()) == 1 },
		"poll did not pick up the order created without an event")
}

func TestEventTriggersRefetch(t *testing.T) {
	source := newFakeSource()
	sess := session.Login(status.RoleStaff, "hotel-1").WithStaff("staff-9")
	events := make(chan broadcast.Event, 1)

	// Poll far in the future so only the event can explain the update.
	v := New(sess, source, events, time.Hour, logger.New("view-test"))
	startView(t, v)

	orderID := int64(1)
	source.put(testOrder(orderID, "hotel-1", "in_progress"))
	events <- broadcast.Event{Kind: broadcast.NewOrder, HotelID: "hotel-1", OrderID: &orderID}

	waitFor(t, func() bool {
		orders := v.Orders()
		return len(orders) == 1 && orders[0].Status == "in_progress"
	}, "event did not trigger a re-fetch")
}

func TestDuplicateEventsConverge(t *testing.T) {
	source := newFakeSource()
	sess := session.Login(status.RoleStaff, "hotel-1").WithStaff("staff-9")
	events := make(chan broadcast.Event, 2)

	v := New(sess, source, events, time.Hour, logger.New("view-test"))
	startView(t, v)

	orderID := int64(7)
	source.put(testOrder(orderID, "hotel-1", "delivered"))
	event := broadcast.Event{Kind: broadcast.OrderStatusChanged, HotelID: "hotel-1", OrderID: &orderID}
	events <- event
	events <- event // redelivery

	waitFor(t, func() bool {
		orders := v.Orders()
		return len(orders) == 1 && orders[0].Status == "delivered"
	}, "duplicate events must converge on one cached order")
}

func TestNotFoundEventDropsOrder(t *testing.T) {
	source := newFakeSource()
	sess := session.Login(status.RoleStaff, "hotel-1").WithStaff("staff-9")
	events := make(chan broadcast.Event, 1)

	orderID := int64(3)
	source.put(testOrder(orderID, "hotel-1", "pending"))

	v := New(sess, source, events, time.Hour, logger.New("view-test"))
	startView(t, v)
	waitFor(t, func() bool { return len(v.Orders()) == 1 }, "initial refresh missed the order")

	source.remove(orderID)
	events <- broadcast.Event{Kind: broadcast.OrderStatusChanged, HotelID: "hotel-1", OrderID: &orderID}

	waitFor(t, func() bool { return len(v.Orders()) == 0 },
		"order gone upstream must leave the cache")
}

func TestCustomerSeesOnlyOwnSession(t *testing.T) {
	source := newFakeSource()
	sess := session.Login(status.RoleCustomer, "hotel-1").WithTable(4)

	mine := testOrder(1, "hotel-1", "pending")
	mine.SessionID = &sess.Token
	other := "some-other-session"
	foreign := testOrder(2, "hotel-1", "pending")
	foreign.SessionID = &other
	anonymous := testOrder(3, "hotel-1", "pending")
	source.put(mine)
	source.put(foreign)
	source.put(anonymous)

	v := New(sess, source, nil, time.Hour, logger.New("view-test"))
	if err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	orders := v.Orders()
	if len(orders) != 1 || orders[0].ID != 1 {
		t.Errorf("customer view = %v, want only order 1", orders)
	}
}

func TestAllowedTransitions(t *testing.T) {
	source := newFakeSource()

	cases := []struct {
		role    status.Role
		current string
		want    []status.Status
	}{
		{status.RoleCustomer, "pending", []status.Status{status.Cancelled}},
		{status.RoleStaff, "pending", []status.Status{status.InProgress, status.Cancelled}},
		{status.RoleCustomer, "delivered", []status.Status{status.Payment}},
		{status.RoleStaff, "delivered", []status.Status{status.Cancelled}},
		{status.RoleAdmin, "pending", []status.Status{status.InProgress, status.Cancelled}},
		{status.RoleStaff, "completed", nil},
	}

	for _, tc := range cases {
		sess := session.Login(tc.role, "hotel-1")
		v := New(sess, source, nil, time.Hour, logger.New("view-test"))

		got := v.AllowedTransitions(testOrder(1, "hotel-1", tc.current))
		if len(got) != len(tc.want) {
			t.Errorf("%s on %s: got %v, want %v", tc.role, tc.current, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s on %s: got %v, want %v", tc.role, tc.current, got, tc.want)
				break
			}
		}
	}
}

func TestLogoutStopsView(t *testing.T) {
	source := newFakeSource()
	sess := session.Login(status.RoleStaff, "hotel-1").WithStaff("staff-9")
	events := make(chan broadcast.Event)

	v := New(sess, source, events, 10*time.Millisecond, logger.New("view-test"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()

	sess.Logout()

	select {
	case err := <-done:
		if !errors.Is(err, session.ErrClosed) {
			t.Errorf("view stop reason = %v, want session closed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("view kept running after logout")
	}
}

func TestRenderOrders(t *testing.T) {
	source := newFakeSource()
	sess := session.Login(status.RoleAdmin, "hotel-1").WithStaff("admin-1")
	table := 4
	order := testOrder(1, "hotel-1", "payment")
	order.TableNumber = &table
	source.put(order)

	v := New(sess, source, nil, time.Hour, logger.New("view-test"))
	if err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	var buf bytes.Buffer
	if err := v.RenderOrders(&buf); err != nil {
		t.Fatalf("RenderOrders: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ORD_20250301_001", "Priya", "payment", "55.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRecycleBin(t *testing.T) {
	source := newFakeSource()
	source.bin = []models.RecycleBinEntry{{
		RestoreID: "restore-1",
		Bill:      models.Bill{ID: "bill-1", CustomerName: "Priya", Total: 57.75},
		DeletedAt: time.Now().UTC(),
	}}
	sess := session.Login(status.RoleAdmin, "hotel-1").WithStaff("admin-1")

	v := New(sess, source, nil, time.Hour, logger.New("view-test"))

	var buf bytes.Buffer
	if err := v.RenderRecycleBin(context.Background(), &buf); err != nil {
		t.Fatalf("RenderRecycleBin: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"restore-1", "bill-1", "57.75"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered recycle bin missing %q:\n%s", want, out)
		}
	}
}
