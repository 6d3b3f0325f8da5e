package core

const (
	WaitTime = 10 // seconds given to graceful shutdown

	MinCustomerNameLen = 2
	MaxCustomerNameLen = 100

	MinTableNumber = 1
	MaxTableNumber = 500

	MinItems = 1
	MaxItems = 50

	MinItemNameLen  = 1
	MaxItemNameLen  = 100
	MinItemQuantity = 1
	MaxItemQuantity = 100
	MinItemPrice    = 0.01
	MaxItemPrice    = 100000.0
)

type OrderParams struct {
	Port int
}
