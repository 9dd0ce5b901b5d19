package orders

import (
	"github.com/madinabek/flowershop-backend/pkg/enums"
)

// forwardNext is the closed set of forward lifecycle edges. Cancellation and
// rollback are handled separately; anything not listed here is invalid.
var forwardNext = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusNew:        {enums.OrderStatusPaid},
	enums.OrderStatusPaid:       {enums.OrderStatusAssembled},
	enums.OrderStatusAssembled:  {enums.OrderStatusDelivery, enums.OrderStatusSelfPickup},
	enums.OrderStatusDelivery:   {enums.OrderStatusCompleted},
	enums.OrderStatusSelfPickup: {enums.OrderStatusCompleted},
}

// canTransition reports whether from→to is a listed forward edge.
func canTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range forwardNext[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// rollbackTarget returns the single legal backward step from the current
// status. The fulfilment branch collapses back to assembled regardless of
// method; completed steps back onto the branch the order actually took.
func rollbackTarget(current enums.OrderStatus, method enums.DeliveryMethod) (enums.OrderStatus, bool) {
	switch current {
	case enums.OrderStatusPaid:
		return enums.OrderStatusNew, true
	case enums.OrderStatusAssembled:
		return enums.OrderStatusPaid, true
	case enums.OrderStatusDelivery, enums.OrderStatusSelfPickup:
		return enums.OrderStatusAssembled, true
	case enums.OrderStatusCompleted:
		return method.BranchStatus(), true
	default:
		return "", false
	}
}
