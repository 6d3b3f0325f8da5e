package services

import (
	"context"
	"fmt"
	"math"

	"restobill/internal/billing/app/core"
	"restobill/internal/billing/domain/dto"
	"restobill/internal/broadcast"
	"restobill/internal/recyclebin"
	"restobill/internal/status"
	"restobill/pkg/logger"
	"restobill/pkg/models"

	"github.com/google/uuid"
)

type BillingService struct {
	billRepo      core.IBillRepo
	recycleBin    *recyclebin.Store
	publisher     core.IPublisher
	printer       core.IPrinter
	taxPercentage float64
	mylog         logger.Logger
}

func NewBillingService(
	billRepo core.IBillRepo,
	recycleBin *recyclebin.Store,
	publisher core.IPublisher,
	printer core.IPrinter,
	taxPercentage float64,
	mylog logger.Logger,
) *BillingService {
	return &BillingService{
		billRepo:      billRepo,
		recycleBin:    recycleBin,
		publisher:     publisher,
		printer:       printer,
		taxPercentage: taxPercentage,
		mylog:         mylog,
	}
}

// Reconcile converts a billing-ready order into an immutable bill and
// advances the order to completed. The total is computed from the order's
// current item lines, never from a cached figure. One bill per order: a
// second attempt fails with ErrBillExists.
func (bs *BillingService) Reconcile(ctx context.Context, req dto.CreateBillRequest) (models.Bill, error) {
	mylog := bs.mylog.Action("reconcile_bill").With("order_id", req.OrderID)

	paymentType, err := parsePaymentType(req.PaymentType)
	if err != nil {
		return models.Bill{}, err
	}

	order, err := bs.billRepo.GetOrderForBilling(ctx, req.OrderID)
	if err != nil {
		return models.Bill{}, err
	}
	if !status.Status(order.Status).BillingReady() {
		mylog.With("status", order.Status).Warn("Order is not billing-ready")
		return models.Bill{}, fmt.Errorf("%w: status is %s", core.ErrOrderNotBillable, order.Status)
	}

	items := make([]models.OrderItem, len(order.Items))
	copy(items, order.Items)

	total := order.ItemsTotal()
	taxAmount := round2(total * bs.taxPercentage / 100)

	bill := models.Bill{
		ID:            uuid.NewString(),
		OrderID:       &order.ID,
		HotelID:       order.HotelID,
		CustomerName:  order.CustomerName,
		PhoneNumber:   order.PhoneNumber,
		Items:         items,
		Total:         total,
		TaxPercentage: bs.taxPercentage,
		TaxAmount:     taxAmount,
		PaymentType:   paymentType,
		StaffID:       req.StaffID,
	}

	created, err := bs.billRepo.CreateForOrder(ctx, bill)
	if err != nil {
		mylog.Error("Failed to create bill", err)
		return models.Bill{}, err
	}

	completedStr := string(status.Completed)
	bs.emit(ctx, broadcast.Event{
		Kind:    broadcast.BillCreated,
		HotelID: created.HotelID,
		OrderID: created.OrderID,
		BillID:  &created.ID,
		StaffID: created.StaffID,
	})
	bs.emit(ctx, broadcast.Event{
		Kind:    broadcast.OrderStatusChanged,
		HotelID: created.HotelID,
		OrderID: created.OrderID,
		Status:  &completedStr,
		StaffID: created.StaffID,
	})

	// Billing success is independent of printing success.
	if err := bs.printer.PrintReceipt(ctx, created); err != nil {
		mylog.Action("receipt_print_failed").Warn(err.Error())
	}

	mylog.With("bill_id", created.ID, "total", created.Total).Info("Bill reconciled")
	return created, nil
}

// Delete moves the bill's snapshot into the recycle bin first, then
// issues the authoritative delete. The ordering is load-bearing: once the
// live bill is gone only the time-boxed snapshot survives.
func (bs *BillingService) Delete(ctx context.Context, billID string) error {
	mylog := bs.mylog.Action("delete_bill").With("bill_id", billID)

	bill, err := bs.billRepo.GetByID(ctx, billID)
	if err != nil {
		return err
	}

	if _, err := bs.recycleBin.Add(bill.HotelID, bill); err != nil {
		mylog.Error("Failed to write recycle bin snapshot", err)
		return fmt.Errorf("recycle bin snapshot: %w", err)
	}

	if err := bs.billRepo.Delete(ctx, billID); err != nil {
		mylog.Error("Failed to delete bill", err)
		return err
	}

	mylog.Info("Bill deleted, snapshot retained in recycle bin")
	return nil
}

func (bs *BillingService) Get(ctx context.Context, billID string) (models.Bill, error) {
	return bs.billRepo.GetByID(ctx, billID)
}

func (bs *BillingService) List(ctx context.Context, hotelID string) ([]models.Bill, error) {
	return bs.billRepo.ListByHotel(ctx, hotelID)
}

func (bs *BillingService) RecycleBin() *recyclebin.Store {
	return bs.recycleBin
}

func (bs *BillingService) emit(ctx context.Context, event broadcast.Event) {
	if err := bs.publisher.Publish(ctx, event); err != nil {
		bs.mylog.Action("event_publish_failed").With("event", string(event.Kind)).Warn(err.Error())
	}
}

func parsePaymentType(paymentType string) (string, error) {
	switch paymentType {
	case models.PaymentCash, models.PaymentUPI, models.PaymentCard, models.PaymentOnline:
		return paymentType, nil
	}
	return "", fmt.Errorf("unknown payment type: %q", paymentType)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
