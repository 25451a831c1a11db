package sample

import "fmt"

func HandleCheckout(orderID string) error {
	return ProcessPayment(orderID)
}

func ProcessPayment(orderID string) error {
	return ValidatePayment(orderID)
}

func ValidatePayment(orderID string) error {
	fmt.Printf("validating payment for order: %s\n", orderID)
	return nil
}
