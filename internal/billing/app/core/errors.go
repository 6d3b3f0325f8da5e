package core

import "errors"

var (
	ErrHelp = errors.New("")

	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNotBillable = errors.New("order is not in a billing-ready state")
	ErrBillExists       = errors.New("a bill already exists for this order")
	ErrBillNotFound     = errors.New("bill not found")
)
