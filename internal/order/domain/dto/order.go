package dto

import "time"

type OrderItemRequest struct {
	ProductID *string `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type CreateOrderRequest struct {
	HotelID      string             `json:"hotel_id"`
	CustomerName string             `json:"customer_name"`
	PhoneNumber  *string            `json:"phone_number,omitempty"`
	DiningType   string             `json:"dining_type"`
	TableNumber  *int               `json:"table_number,omitempty"`
	CarDetails   *string            `json:"car_details,omitempty"`
	SessionID    *string            `json:"session_id,omitempty"`
	Items        []OrderItemRequest `json:"items"`
}

// UpdateItemsRequest carries the desired state of the touched lines for
// the add-more-items flow. A line with quantity 0 is removed; lines not
// mentioned are left alone.
type UpdateItemsRequest struct {
	Items []OrderItemRequest `json:"items"`
}

type StatusUpdateRequest struct {
	Status        string  `json:"status"`
	Role          string  `json:"role"`
	StaffID       *string `json:"staff_id,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`
}

// StatusChange is what the repository applies once the transition has
// been validated.
type StatusChange struct {
	StaffID       *string
	PaymentMethod *string
	ChangedBy     string
}

type ListFilter struct {
	StaffID   *string
	SessionID *string
	From      *time.Time
	To        *time.Time
}
