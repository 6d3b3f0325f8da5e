// Package view keeps one role's live picture of a hotel room. Events from
// the room are hints that trigger a targeted re-fetch; a fixed-interval
// poll refreshes the whole list regardless, so a dropped event can delay
// the picture but never corrupt it.
package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"

	"restobill/internal/broadcast"
	"restobill/internal/dashboard/app/core"
	"restobill/internal/session"
	"restobill/internal/status"
	"restobill/pkg/logger"
	"restobill/pkg/models"
)

type View struct {
	sess   *session.Session
	source core.ISource
	events <-chan broadcast.Event
	poll   time.Duration
	mylog  logger.Logger

	mu     sync.RWMutex
	orders map[int64]models.Order
}

func New(sess *session.Session, source core.ISource, events <-chan broadcast.Event, poll time.Duration, mylog logger.Logger) *View {
	if poll <= 0 {
		poll = core.PollInterval
	}
	return &View{
		sess:   sess,
		source: source,
		events: events,
		poll:   poll,
		mylog:  mylog,
		orders: make(map[int64]models.Order),
	}
}

// Run drives the view until ctx is cancelled or the session is logged
// out. The event loop and the poll loop run side by side; either one
// failing hard stops both.
func (v *View) Run(ctx context.Context) error {
	if err := v.sess.Check(); err != nil {
		return err
	}
	if err := v.Refresh(ctx); err != nil {
		v.mylog.Action("initial_refresh_failed").Error("Could not load initial order list", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.eventLoop(gctx) })
	g.Go(func() error { return v.pollLoop(gctx) })
	return g.Wait()
}

// eventLoop consumes the room's event stream. A closed stream ends the
// loop quietly; the poll loop keeps the view correct without it.
func (v *View) eventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-v.events:
			if !ok {
				v.mylog.Action("event_stream_closed").Warn("Hotel room stream closed, relying on polling")
				return nil
			}
			v.handleEvent(ctx, event)
		}
	}
}

func (v *View) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(v.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := v.sess.Check(); err != nil {
				return err
			}
			if err := v.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				v.mylog.Action("poll_refresh_failed").Warn(err.Error())
			}
		}
	}
}

// handleEvent re-fetches the touched order rather than trusting the
// event payload. Applying the same event twice therefore converges on the
// same state.
func (v *View) handleEvent(ctx context.Context, event broadcast.Event) {
	mylog := v.mylog.Action("room_event").With("event", string(event.Kind))

	if event.OrderID == nil {
		if err := v.Refresh(ctx); err != nil {
			mylog.Warn(err.Error())
		}
		return
	}

	order, err := v.source.Order(ctx, *event.OrderID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			v.drop(*event.OrderID)
			return
		}
		// Fall back to the poll fixing it up.
		mylog.Warn(err.Error())
		return
	}
	v.upsert(order)
	mylog.With("order_id", order.ID, "status", order.Status).Debug("View updated from room event")
}

// Refresh replaces the cached order list with the authoritative one.
func (v *View) Refresh(ctx context.Context) error {
	orders, err := v.source.Orders(ctx, v.sess.HotelID)
	if err != nil {
		return fmt.Errorf("refresh orders: %w", err)
	}

	fresh := make(map[int64]models.Order, len(orders))
	for _, order := range orders {
		if v.visible(order) {
			fresh[order.ID] = order
		}
	}

	v.mu.Lock()
	v.orders = fresh
	v.mu.Unlock()
	return nil
}

// Orders returns the cached orders, oldest first.
func (v *View) Orders() []models.Order {
	v.mu.RLock()
	defer v.mu.RUnlock()

	orders := make([]models.Order, 0, len(v.orders))
	for _, order := range v.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders
}

// AllowedTransitions lists the status changes this view's role may
// request for the order, in its current status.
func (v *View) AllowedTransitions(order models.Order) []status.Status {
	current := status.Status(order.Status)

	var allowed []status.Status
	for _, next := range status.Next(current) {
		if status.CanInvoke(v.sess.Role, current, next) {
			allowed = append(allowed, next)
		}
	}
	return allowed
}

func (v *View) upsert(order models.Order) {
	if !v.visible(order) {
		return
	}
	v.mu.Lock()
	v.orders[order.ID] = order
	v.mu.Unlock()
}

func (v *View) drop(id int64) {
	v.mu.Lock()
	delete(v.orders, id)
	v.mu.Unlock()
}

// visible applies the role filter. Customers see only the orders of their
// own table session; staff and admin see the whole hotel.
func (v *View) visible(order models.Order) bool {
	if order.HotelID != v.sess.HotelID {
		return false
	}
	if v.sess.Role != status.RoleCustomer {
		return true
	}
	return order.SessionID != nil && *order.SessionID == v.sess.Token
}

// RenderOrders writes the cached orders as a console table. Admin only.
func (v *View) RenderOrders(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header("Order", "Customer", "Type", "Table", "Status", "Total")

	for _, order := range v.Orders() {
		tableNo := "-"
		if order.TableNumber != nil {
			tableNo = strconv.Itoa(*order.TableNumber)
		}
		if err := table.Append([]string{
			order.OrderNumber,
			order.CustomerName,
			order.DiningType,
			tableNo,
			order.Status,
			fmt.Sprintf("%.2f", order.TotalAmount),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

// RenderRecycleBin fetches and renders the hotel's recycle bin. Admin
// only; the fetch applies the bin's retention window server side.
func (v *View) RenderRecycleBin(ctx context.Context, w io.Writer) error {
	entries, err := v.source.RecycleBin(ctx, v.sess.HotelID)
	if err != nil {
		return fmt.Errorf("fetch recycle bin: %w", err)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Restore ID", "Bill", "Customer", "Total", "Deleted", "Expires")

	for _, entry := range entries {
		if err := table.Append([]string{
			entry.RestoreID,
			entry.Bill.ID,
			entry.Bill.CustomerName,
			fmt.Sprintf("%.2f", entry.Bill.Total),
			entry.DeletedAt.Format(time.RFC3339),
			entry.AutoDeleteAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
