package core

import "errors"

var (
	ErrHelp = errors.New("")

	ErrDBConn = errors.New("db connection failure")

	ErrFieldIsEmpty    = errors.New("field is empty")
	ErrOrderNotFound   = errors.New("order not found")
	ErrItemsLocked     = errors.New("items can no longer be changed")
	ErrNoItemsLeft     = errors.New("order must keep at least one item line")
	ErrBillRequired    = errors.New("staff completion requires a reconciled bill")
	ErrInvalidPayment  = errors.New("unknown payment method")
	ErrInvalidQuantity = errors.New("item quantity must not be negative")
)
