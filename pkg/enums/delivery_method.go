package enums

import "fmt"

// DeliveryMethod distinguishes courier delivery from store pickup.
type DeliveryMethod string

const (
	DeliveryMethodDelivery   DeliveryMethod = "delivery"
	DeliveryMethodSelfPickup DeliveryMethod = "self_pickup"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodDelivery,
	DeliveryMethodSelfPickup,
}

// String implements fmt.Stringer.
func (m DeliveryMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known DeliveryMethod.
func (m DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// BranchStatus returns the order status that matches the method's fulfilment branch.
func (m DeliveryMethod) BranchStatus() OrderStatus {
	if m == DeliveryMethodSelfPickup {
		return OrderStatusSelfPickup
	}
	return OrderStatusDelivery
}

// ParseDeliveryMethod converts raw input into a DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
