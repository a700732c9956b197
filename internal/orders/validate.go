package orders

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMinAddressLength = 10
	MaxAddressLength        = 500
	MaxLineQuantity         = 999
)

type PlaceOrderInput struct {
	ShippingAddr string `json:"shipping_addr"`
}

// ValidatePlaceOrder checks the checkout request before any storage access and returns
// the normalized input.
func ValidatePlaceOrder(in PlaceOrderInput, minAddrLen int) (PlaceOrderInput, error) {
	if minAddrLen <= 0 {
		minAddrLen = DefaultMinAddressLength
	}
	addr := strings.TrimSpace(in.ShippingAddr)
	n := utf8.RuneCountInString(addr)
	switch {
	case n == 0:
		return in, &ValidationError{Field: "shipping_addr", Message: "shipping address is required"}
	case n < minAddrLen:
		return in, &ValidationError{Field: "shipping_addr",
			Message: fmt.Sprintf("shipping address must be at least %d characters", minAddrLen)}
	case n > MaxAddressLength:
		return in, &ValidationError{Field: "shipping_addr",
			Message: fmt.Sprintf("shipping address must be at most %d characters", MaxAddressLength)}
	}
	return PlaceOrderInput{ShippingAddr: addr}, nil
}

// ValidateQuantity cart line quantities are 1..MaxLineQuantity
func ValidateQuantity(qty int) error {
	if qty < 1 {
		return &ValidationError{Field: "quantity", Message: "quantity must be at least 1"}
	}
	if qty > MaxLineQuantity {
		return &ValidationError{Field: "quantity", Message: fmt.Sprintf("quantity must be at most %d", MaxLineQuantity)}
	}
	return nil
}
