package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"restobill/internal/broadcast"
	"restobill/internal/order/app/core"
	"restobill/internal/order/domain/dto"
	"restobill/internal/status"
	"restobill/pkg/logger"
	"restobill/pkg/models"
)

type OrderService struct {
	orderRepo core.IOrderRepo
	publisher core.IPublisher
	mylog     logger.Logger
}

func NewOrderService(orderRepo core.IOrderRepo, publisher core.IPublisher, mylog logger.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		publisher: publisher,
		mylog:     mylog,
	}
}

func (os *OrderService) Create(ctx context.Context, req dto.CreateOrderRequest) (models.Order, error) {
	mylog := os.mylog.Action("create_order")

	if err := os.ValidateOrder(req); err != nil {
		mylog.Error("Order request failed validation", err)
		return models.Order{}, err
	}

	order := models.Order{
		HotelID:      req.HotelID,
		CustomerName: req.CustomerName,
		PhoneNumber:  req.PhoneNumber,
		DiningType:   req.DiningType,
		TableNumber:  req.TableNumber,
		CarDetails:   req.CarDetails,
		SessionID:    req.SessionID,
		Status:       string(status.Pending),
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	order.TotalAmount = order.ItemsTotal()

	newOrder, err := os.orderRepo.Create(ctx, order)
	if err != nil {
		if errors.Is(err, core.ErrDBConn) {
			mylog.Error("Failed to connect to db", err)
			return models.Order{}, fmt.Errorf("cannot connect to db: %w", err)
		}
		mylog.Error("Failed to save order record in db", err)
		return models.Order{}, fmt.Errorf("cannot save order in db: %w", err)
	}

	os.emit(ctx, broadcast.Event{
		Kind:    broadcast.NewOrder,
		HotelID: newOrder.HotelID,
		OrderID: &newOrder.ID,
	})

	mylog.With("order_number", newOrder.OrderNumber).Info("Order created successfully")
	return newOrder, nil
}

func (os *OrderService) Get(ctx context.Context, id int64) (models.Order, error) {
	return os.orderRepo.GetByID(ctx, id)
}

func (os *OrderService) List(ctx context.Context, hotelID string, filter dto.ListFilter) ([]models.Order, error) {
	if hotelID == "" {
		return nil, fmt.Errorf("hotel id: %w", core.ErrFieldIsEmpty)
	}
	return os.orderRepo.ListByHotel(ctx, hotelID, filter)
}

// ChangeStatus validates and applies one lifecycle transition. Requesting
// the status the order already has is accepted as a no-op with no side
// effects; requesting a passed or unreachable status is rejected whole.
func (os *OrderService) ChangeStatus(ctx context.Context, id int64, req dto.StatusUpdateRequest) (models.Order, error) {
	mylog := os.mylog.Action("change_status").With("order_id", id)

	target, err := status.Parse(req.Status)
	if err != nil {
		return models.Order{}, err
	}
	role, err := status.ParseRole(req.Role)
	if err != nil {
		return models.Order{}, err
	}

	order, err := os.orderRepo.GetByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	current := status.Status(order.Status)

	result, err := status.Validate(current, target)
	if err != nil {
		mylog.Error("Rejected status transition", err)
		return models.Order{}, err
	}
	if result == status.Noop {
		mylog.With("status", string(target)).Debug("Status already set, no-op")
		return order, nil
	}

	if !status.CanInvoke(role, current, target) {
		return models.Order{}, fmt.Errorf("%w: %s may not move %s -> %s",
			status.ErrRoleNotAllowed, role, current, target)
	}

	change := dto.StatusChange{
		StaffID:   req.StaffID,
		ChangedBy: string(role),
	}
	if target == status.Payment {
		method, err := parsePaymentMethod(req.PaymentMethod)
		if err != nil {
			return models.Order{}, err
		}
		change.PaymentMethod = &method
	}
	if target == status.Completed && role != status.RoleCustomer {
		// Staff close out orders through the bill reconciler, which
		// creates the bill and completes the order in one transaction.
		return models.Order{}, core.ErrBillRequired
	}

	updated, err := os.orderRepo.UpdateStatus(ctx, id, target, change)
	if err != nil {
		mylog.Error("Failed to update order status", err)
		return models.Order{}, err
	}

	statusStr := string(target)
	os.emit(ctx, broadcast.Event{
		Kind:    broadcast.OrderStatusChanged,
		HotelID: updated.HotelID,
		OrderID: &updated.ID,
		Status:  &statusStr,
		StaffID: req.StaffID,
	})
	if target == status.Payment {
		os.emit(ctx, broadcast.Event{
			Kind:    broadcast.OrderFinalized,
			HotelID: updated.HotelID,
			OrderID: &updated.ID,
			Status:  &statusStr,
		})
	}

	mylog.With("from", string(current), "to", statusStr).Info("Order status updated")
	return updated, nil
}

// UpdateItems applies the add-more-items merge: each request line carries
// the desired quantity for that dish, zero removes the line, unmentioned
// lines stay. The total is recomputed from the merged lines in the same
// write.
func (os *OrderService) UpdateItems(ctx context.Context, id int64, req dto.UpdateItemsRequest) (models.Order, error) {
	mylog := os.mylog.Action("update_items").With("order_id", id)

	order, err := os.orderRepo.GetByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}

	current := status.Status(order.Status)
	if current != status.Pending && current != status.InProgress {
		return models.Order{}, fmt.Errorf("%w: order is %s", core.ErrItemsLocked, current)
	}

	merged, err := mergeItems(order.Items, req.Items)
	if err != nil {
		return models.Order{}, err
	}
	if len(merged) == 0 {
		return models.Order{}, core.ErrNoItemsLeft
	}

	updated, err := os.orderRepo.ReplaceItems(ctx, id, merged)
	if err != nil {
		mylog.Error("Failed to replace order items", err)
		return models.Order{}, err
	}

	os.emit(ctx, broadcast.Event{
		Kind:    broadcast.OrderUpdated,
		HotelID: updated.HotelID,
		OrderID: &updated.ID,
	})

	mylog.With("total", updated.TotalAmount).Info("Order items updated")
	return updated, nil
}

// RequestHelp fans out a staff-assistance request for the order's table.
// It mutates nothing.
func (os *OrderService) RequestHelp(ctx context.Context, id int64) error {
	order, err := os.orderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	os.emit(ctx, broadcast.Event{
		Kind:    broadcast.StaffHelpRequested,
		HotelID: order.HotelID,
		OrderID: &order.ID,
	})
	os.mylog.Action("help_requested").With("order_id", id).Info("Customer asked for staff help")
	return nil
}

// emit publishes fire-and-forget; a failed publish is a warning because
// subscribers poll as a backstop.
func (os *OrderService) emit(ctx context.Context, event broadcast.Event) {
	if err := os.publisher.Publish(ctx, event); err != nil {
		os.mylog.Action("event_publish_failed").With("event", string(event.Kind)).Warn(err.Error())
	}
}

func mergeItems(existing []models.OrderItem, patch []dto.OrderItemRequest) ([]models.OrderItem, error) {
	merged := make([]models.OrderItem, len(existing))
	copy(merged, existing)

	for _, line := range patch {
		if line.Name == "" {
			return nil, fmt.Errorf("item name: %w", core.ErrFieldIsEmpty)
		}
		if line.Quantity < 0 {
			return nil, fmt.Errorf("%w: %q has quantity %d", core.ErrInvalidQuantity, line.Name, line.Quantity)
		}

		idx := -1
		for i, item := range merged {
			if item.Name == line.Name && item.Price == line.Price {
				idx = i
				break
			}
		}

		switch {
		case idx >= 0 && line.Quantity == 0:
			merged = append(merged[:idx], merged[idx+1:]...)
		case idx >= 0:
			merged[idx].Quantity = line.Quantity
		case line.Quantity > 0:
			merged = append(merged, models.OrderItem{
				ProductID: line.ProductID,
				Name:      line.Name,
				Quantity:  line.Quantity,
				Price:     line.Price,
			})
		}
	}
	return merged, nil
}

func parsePaymentMethod(method *string) (string, error) {
	if method == nil || *method == "" {
		return "", fmt.Errorf("payment method: %w", core.ErrFieldIsEmpty)
	}
	switch *method {
	case models.PaymentCash, models.PaymentUPI, models.PaymentCard, models.PaymentOnline:
		return *method, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidPayment, *method)
}

// ValidateOrder validates an order request against predefined rules.
func (os *OrderService) ValidateOrder(req dto.CreateOrderRequest) error {
	if req.HotelID == "" {
		return fmt.Errorf("invalid hotel id: %w", core.ErrFieldIsEmpty)
	}
	if err := os.validateCustomerName(req.CustomerName); err != nil {
		return fmt.Errorf("invalid customer name: %w", err)
	}
	if err := os.validateDiningType(req); err != nil {
		return fmt.Errorf("invalid dining type: %w", err)
	}
	if err := os.validateOrderItems(req.Items); err != nil {
		return fmt.Errorf("invalid order items: %w", err)
	}
	return nil
}

func (os *OrderService) validateCustomerName(customerName string) error {
	if customerName == "" {
		return core.ErrFieldIsEmpty
	}
	nameLen := len(customerName)
	if nameLen < core.MinCustomerNameLen || nameLen > core.MaxCustomerNameLen {
		return fmt.Errorf("must be in range [%d, %d]", core.MinCustomerNameLen, core.MaxCustomerNameLen)
	}
	for _, r := range customerName {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || strings.ContainsRune(" -'.", r) {
			continue
		}
		return fmt.Errorf("contains forbidden character %q", r)
	}
	return nil
}

func (os *OrderService) validateDiningType(req dto.CreateOrderRequest) error {
	switch req.DiningType {
	case models.DiningTypeDineIn:
		if req.TableNumber == nil {
			return fmt.Errorf("table number: %w", core.ErrFieldIsEmpty)
		}
		if *req.TableNumber < core.MinTableNumber || *req.TableNumber > core.MaxTableNumber {
			return fmt.Errorf("table number: %d, must be in range [%d, %d]",
				*req.TableNumber, core.MinTableNumber, core.MaxTableNumber)
		}
	case models.DiningTypeTakeaway:
		// car details are optional, a table number makes no sense
		if req.TableNumber != nil {
			return fmt.Errorf("takeaway order must not carry a table number")
		}
	case "":
		return core.ErrFieldIsEmpty
	default:
		return fmt.Errorf("undefined type: %s", req.DiningType)
	}
	return nil
}

func (os *OrderService) validateOrderItems(items []dto.OrderItemRequest) error {
	itemsLen := len(items)
	if itemsLen == 0 {
		return core.ErrFieldIsEmpty
	}
	if itemsLen < core.MinItems || itemsLen > core.MaxItems {
		return fmt.Errorf("amount of items: %d, must be in range [%d, %d]", itemsLen, core.MinItems, core.MaxItems)
	}

	for i, item := range items {
		nameLen := len(item.Name)
		if nameLen < core.MinItemNameLen || nameLen > core.MaxItemNameLen {
			return fmt.Errorf("item %d: name len: %d, must be in range [%d, %d]", i+1, nameLen, core.MinItemNameLen, core.MaxItemNameLen)
		}
		if item.Quantity < core.MinItemQuantity || item.Quantity > core.MaxItemQuantity {
			return fmt.Errorf("item %d: quantity: %d, must be in range [%d, %d]", i+1, item.Quantity, core.MinItemQuantity, core.MaxItemQuantity)
		}
		if item.Price < core.MinItemPrice || item.Price > core.MaxItemPrice {
			return fmt.Errorf("item %d: price: %f, must be in range [%f, %f]", i+1, item.Price, core.MinItemPrice, core.MaxItemPrice)
		}
	}
	return nil
}
