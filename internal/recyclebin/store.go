// Package recyclebin keeps time-boxed snapshots of deleted bills. The
// store is an advisory local cache, not the source of truth: the live
// bill is already gone by the time its snapshot lands here, and there is
// no restore path, only a read-only window and a spreadsheet export.
package recyclebin

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"restobill/pkg/logger"
	"restobill/pkg/models"
)

const (
	// maxEntries caps each hotel's bin at the most recent snapshots.
	maxEntries = 100
	// retention is how long a snapshot survives after deletion.
	retention = 7 * 24 * time.Hour
)

type Store struct {
	dir string
	log logger.Logger
	now func() time.Time

	mu sync.Mutex
}

func NewStore(dir string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recycle bin dir: %w", err)
	}
	return &Store{
		dir: dir,
		log: log,
		now: time.Now,
	}, nil
}

// Add snapshots a bill into the hotel's bin. The newest entry sits first;
// once the cap is reached the oldest entries are dropped.
func (s *Store) Add(hotelID string, bill models.Bill) (models.RecycleBinEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(hotelID)
	if err != nil {
		return models.RecycleBinEntry{}, err
	}

	deletedAt := s.now().UTC()
	entry := models.RecycleBinEntry{
		RestoreID:    bill.ID,
		Bill:         bill,
		DeletedAt:    deletedAt,
		AutoDeleteAt: deletedAt.Add(retention),
	}

	entries = append([]models.RecycleBinEntry{entry}, entries...)
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}

	if err := s.save(hotelID, entries); err != nil {
		return models.RecycleBinEntry{}, err
	}

	s.log.Action("bill_recycled").With("hotel_id", hotelID, "bill_id", bill.ID).Info("Bill snapshot moved to recycle bin")
	return entry, nil
}

// List returns the hotel's non-expired entries. Expired entries are
// purged lazily: every read filters them out and writes the filtered set
// back, so no background sweep is needed.
func (s *Store) List(hotelID string) ([]models.RecycleBinEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(hotelID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	kept := entries[:0]
	for _, entry := range entries {
		if now.After(entry.AutoDeleteAt) {
			continue
		}
		kept = append(kept, entry)
	}

	if len(kept) != len(entries) {
		if err := s.save(hotelID, kept); err != nil {
			return nil, err
		}
	}

	out := make([]models.RecycleBinEntry, len(kept))
	copy(out, kept)
	return out, nil
}

// ExportCSV writes the hotel's current entries as a spreadsheet.
func (s *Store) ExportCSV(hotelID string, w io.Writer) error {
	entries, err := s.List(hotelID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"bill_id", "customer_name", "payment_type", "total", "tax_amount", "deleted_at", "auto_delete_at"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, entry := range entries {
		record := []string{
			entry.Bill.ID,
			entry.Bill.CustomerName,
			entry.Bill.PaymentType,
			strconv.FormatFloat(entry.Bill.Total, 'f', 2, 64),
			strconv.FormatFloat(entry.Bill.TaxAmount, 'f', 2, 64),
			entry.DeletedAt.Format(time.RFC3339),
			entry.AutoDeleteAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Store) path(hotelID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("hotel_%s_recycle_bin.json", hotelID))
}

func (s *Store) load(hotelID string) ([]models.RecycleBinEntry, error) {
	data, err := os.ReadFile(s.path(hotelID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read recycle bin: %w", err)
	}
	var entries []models.RecycleBinEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode recycle bin: %w", err)
	}
	return entries, nil
}

func (s *Store) save(hotelID string, entries []models.RecycleBinEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode recycle bin: %w", err)
	}
	if err := os.WriteFile(s.path(hotelID), data, 0o644); err != nil {
		return fmt.Errorf("write recycle bin: %w", err)
	}
	return nil
}
