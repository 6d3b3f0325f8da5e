package recyclebin

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"restobill/pkg/logger"
	"restobill/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), logger.New("recyclebin-test"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func testBill(id string) models.Bill {
	return models.Bill{
		ID:           id,
		HotelID:      "hotel-1",
		CustomerName: "Asel",
		Items: []models.OrderItem{
			{Name: "Tea", Quantity: 2, Price: 20},
		},
		Total:       40,
		PaymentType: "cash",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestAdd_SetsRetentionWindow(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	entry, err := store.Add("hotel-1", testBill("b1"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if entry.RestoreID != "b1" {
		t.Errorf("restore id = %q, want b1", entry.RestoreID)
	}
	if !entry.DeletedAt.Equal(base) {
		t.Errorf("deleted_at = %v, want %v", entry.DeletedAt, base)
	}
	if want := base.Add(7 * 24 * time.Hour); !entry.AutoDeleteAt.Equal(want) {
		t.Errorf("auto_delete_at = %v, want %v", entry.AutoDeleteAt, want)
	}
}

func TestList_ExpiryBoundary(t *testing.T) {
	store := newTestStore(t)
	deletedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return deletedAt }

	if _, err := store.Add("hotel-1", testBill("b1")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Six days in: still visible.
	store.now = func() time.Time { return deletedAt.Add(6 * 24 * time.Hour) }
	entries, err := store.List("hotel-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("at T+6d expected 1 entry, got %d", len(entries))
	}

	// One second past the window: gone.
	store.now = func() time.Time { return deletedAt.Add(7*24*time.Hour + time.Second) }
	entries, err = store.List("hotel-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("at T+7d+1s expected 0 entries, got %d", len(entries))
	}
}

func TestList_PurgesLazily(t *testing.T) {
	store := newTestStore(t)
	deletedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return deletedAt }
	if _, err := store.Add("hotel-1", testBill("b1")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	store.now = func() time.Time { return deletedAt.Add(8 * 24 * time.Hour) }
	if _, err := store.List("hotel-1"); err != nil {
		t.Fatalf("List: %v", err)
	}

	// The expired entry must be physically gone from storage, not just
	// filtered from the response.
	raw, err := store.load("hotel-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("expected expired entry purged from storage, found %d", len(raw))
	}
}

func TestAdd_CapKeepsMostRecent(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 150; i++ {
		tick := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return tick }
		if _, err := store.Add("hotel-1", testBill(fmt.Sprintf("b%03d", i))); err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
	}

	store.now = func() time.Time { return base.Add(150 * time.Minute) }
	entries, err := store.List("hotel-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 100 {
		t.Fatalf("expected 100 entries after 150 deletions, got %d", len(entries))
	}
	if entries[0].RestoreID != "b149" {
		t.Errorf("newest entry = %q, want b149", entries[0].RestoreID)
	}
	if entries[99].RestoreID != "b050" {
		t.Errorf("oldest kept entry = %q, want b050", entries[99].RestoreID)
	}
}

func TestStores_ArePerHotel(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Add("hotel-1", testBill("b1")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	entries, err := store.List("hotel-2")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("hotel-2 bin should be empty, got %d entries", len(entries))
	}
}

func TestExportCSV(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Add("hotel-1", testBill("b1")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var buf bytes.Buffer
	if err := store.ExportCSV("hotel-1", &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 record, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "bill_id,") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "b1") || !strings.Contains(lines[1], "40.00") {
		t.Errorf("unexpected record: %q", lines[1])
	}
}
