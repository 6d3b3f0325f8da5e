// Package session models the authenticated context of one connected
// client as an explicit object with a login/logout lifecycle, instead of
// role and hotel id living in ambient global state.
package session

import (
	"errors"
	"time"

	"restobill/internal/status"

	"github.com/google/uuid"
)

var ErrClosed = errors.New("session is closed")

type Session struct {
	Token       string
	Role        status.Role
	HotelID     string
	StaffID     string
	TableNumber *int
	CreatedAt   time.Time

	closed bool
}

// Login opens a session for one role at one hotel. The token doubles as
// the customer's table session id, correlating repeated visits from the
// same table without re-entering identity.
func Login(role status.Role, hotelID string) *Session {
	return &Session{
		Token:     uuid.NewString(),
		Role:      role,
		HotelID:   hotelID,
		CreatedAt: time.Now().UTC(),
	}
}

// WithStaff attaches the acting staff member's id (staff/admin sessions).
func (s *Session) WithStaff(staffID string) *Session {
	s.StaffID = staffID
	return s
}

// WithTable attaches the customer's table number (customer sessions).
func (s *Session) WithTable(table int) *Session {
	s.TableNumber = &table
	return s
}

func (s *Session) Active() bool {
	return s != nil && !s.closed
}

// Logout tears the session down. Any later use fails with ErrClosed.
func (s *Session) Logout() {
	s.closed = true
}

// Check returns an error if the session can no longer authorize actions.
func (s *Session) Check() error {
	if !s.Active() {
		return ErrClosed
	}
	return nil
}
