package dto

type CreateBillRequest struct {
	OrderID     int64   `json:"order_id"`
	PaymentType string  `json:"payment_type"`
	StaffID     *string `json:"staff_id,omitempty"`
}
