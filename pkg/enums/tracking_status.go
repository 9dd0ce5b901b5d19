package enums

// TrackingStatus is the customer-facing vocabulary shown on the public
// tracking page. It is a projection of OrderStatus, never stored.
type TrackingStatus string

const (
	TrackingStatusCreated    TrackingStatus = "created"
	TrackingStatusPaid       TrackingStatus = "paid"
	TrackingStatusAssembled  TrackingStatus = "assembled"
	TrackingStatusInDelivery TrackingStatus = "in_delivery"
	TrackingStatusDelivered  TrackingStatus = "delivered"
	TrackingStatusCancelled  TrackingStatus = "cancelled"
)

// TrackingStatusFor maps an internal order status onto the public vocabulary.
func TrackingStatusFor(status OrderStatus) TrackingStatus {
	switch status {
	case OrderStatusPaid:
		return TrackingStatusPaid
	case OrderStatusAssembled:
		return TrackingStatusAssembled
	case OrderStatusDelivery, OrderStatusSelfPickup:
		return TrackingStatusInDelivery
	case OrderStatusCompleted:
		return TrackingStatusDelivered
	case OrderStatusCancelled:
		return TrackingStatusCancelled
	default:
		return TrackingStatusCreated
	}
}
