package pricing

import (
	"github.com/madinabek/flowershop-backend/pkg/config"
	"github.com/madinabek/flowershop-backend/pkg/db/models"
	"github.com/madinabek/flowershop-backend/pkg/enums"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Line is the minimal shape the calculator needs from a cart or order line.
type Line struct {
	Qty       int
	UnitPrice int
}

// Calculator derives money amounts for carts, orders and stock intake.
// All amounts are integer currency units; fractional math happens in decimal
// and is rounded half-up at the boundary.
type Calculator struct {
	deliveryFlatFee      int
	defaultMarkupPercent int
}

// NewCalculator builds a calculator from the pricing and delivery config sections.
func NewCalculator(pricing config.PricingConfig, delivery config.DeliveryConfig) (*Calculator, error) {
	if pricing.DefaultMarkupPercent < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default markup percent must not be negative")
	}
	if delivery.FlatFee < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery flat fee must not be negative")
	}
	return &Calculator{
		deliveryFlatFee:      delivery.FlatFee,
		defaultMarkupPercent: pricing.DefaultMarkupPercent,
	}, nil
}

// LineTotal multiplies quantity by the snapshotted unit price.
func (c *Calculator) LineTotal(qty, unitPrice int) int {
	if qty <= 0 || unitPrice < 0 {
		return 0
	}
	return qty * unitPrice
}

// CartTotal sums line totals over the given lines.
func (c *Calculator) CartTotal(lines []Line) int {
	total := 0
	for _, line := range lines {
		total += c.LineTotal(line.Qty, line.UnitPrice)
	}
	return total
}

// DeliveryFee returns the flat courier fee, or zero for self pickup.
func (c *Calculator) DeliveryFee(method enums.DeliveryMethod) int {
	if method == enums.DeliveryMethodDelivery {
		return c.deliveryFlatFee
	}
	return 0
}

// OrderTotal combines the flower sum with the delivery fee for the method.
func (c *Calculator) OrderTotal(flowerSum int, method enums.DeliveryMethod) int {
	return flowerSum + c.DeliveryFee(method)
}

// RetailPrice converts a purchase cost in a foreign currency into the local
// retail price: cost x fx rate x markup multiplier, rounded half-up to whole
// currency units. A nil markupPercent falls back to the configured default.
func (c *Calculator) RetailPrice(cost, fxRate decimal.Decimal, markupPercent *int) (int, error) {
	if cost.IsNegative() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "cost must not be negative")
	}
	if !fxRate.IsPositive() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "fx rate must be positive")
	}

	pct := c.defaultMarkupPercent
	if markupPercent != nil {
		if *markupPercent < 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "markup percent must not be negative")
		}
		pct = *markupPercent
	}

	multiplier := decimal.NewFromInt(100 + int64(pct)).Div(decimal.NewFromInt(100))
	retail := cost.Mul(fxRate).Mul(multiplier).Round(0)
	return int(retail.IntPart()), nil
}

// EffectiveUnitPrice picks the price a buyer actually pays for a stock item:
// the sale price when one is set and undercuts the regular price.
func (c *Calculator) EffectiveUnitPrice(item models.StockItem) int {
	if item.SalePrice != nil && *item.SalePrice < item.Price {
		return *item.SalePrice
	}
	return item.Price
}
