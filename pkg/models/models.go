package models

import (
	"time"
)

// Dining types accepted on order placement.
const (
	DiningTypeDineIn   = "dine_in"
	DiningTypeTakeaway = "takeaway"
)

// Payment types accepted when an order moves into payment.
const (
	PaymentCash   = "cash"
	PaymentUPI    = "upi"
	PaymentCard   = "card"
	PaymentOnline = "online"
)

type Order struct {
	ID            int64       `json:"id"`
	HotelID       string      `json:"hotel_id"`
	OrderNumber   string      `json:"order_number"`
	CustomerName  string      `json:"customer_name"`
	PhoneNumber   *string     `json:"phone_number,omitempty"`
	DiningType    string      `json:"dining_type"`
	TableNumber   *int        `json:"table_number,omitempty"`
	CarDetails    *string     `json:"car_details,omitempty"`
	Items         []OrderItem `json:"items"`
	Status        string      `json:"status"`
	PaymentMethod *string     `json:"payment_method,omitempty"`
	StaffID       *string     `json:"staff_id,omitempty"`
	SessionID     *string     `json:"session_id,omitempty"`
	TotalAmount   float64     `json:"total_amount"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID *string `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// ItemsTotal recomputes the order total from its item lines. The stored
// total must never disagree with this sum.
func (o *Order) ItemsTotal() float64 {
	total := 0.0
	for _, item := range o.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Bill is the immutable financial snapshot reconciled from one order.
// Its item and amount fields are never mutated after creation.
type Bill struct {
	ID            string      `json:"id"`
	OrderID       *int64      `json:"order_id,omitempty"`
	HotelID       string      `json:"hotel_id"`
	CustomerName  string      `json:"customer_name"`
	PhoneNumber   *string     `json:"phone_number,omitempty"`
	Items         []OrderItem `json:"items"`
	Total         float64     `json:"total"`
	TaxPercentage float64     `json:"tax_percentage"`
	TaxAmount     float64     `json:"tax_amount"`
	PaymentType   string      `json:"payment_type"`
	StaffID       *string     `json:"staff_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// RecycleBinEntry is a time-boxed snapshot of a deleted bill. Entries are
// advisory: the live bill is already gone when the entry is written.
type RecycleBinEntry struct {
	RestoreID    string    `json:"restore_id"`
	Bill         Bill      `json:"bill"`
	DeletedAt    time.Time `json:"deleted_at"`
	AutoDeleteAt time.Time `json:"auto_delete_at"`
}

type OrderStatusLog struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Note      *string   `json:"note,omitempty"`
}
