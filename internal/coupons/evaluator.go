package coupons

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Eligible checks the active flag and expiry. A nil expiry never expires.
func Eligible(c *models.Coupon, now time.Time) error {
	if !c.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "Coupon is inactive")
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Coupon has expired")
	}
	return nil
}

// Discount computes the reduction for subtotal. The result is never negative
// and never exceeds the subtotal.
func Discount(c *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.DiscountType {
	case enums.DiscountTypePercentage:
		amount = subtotal.Mul(c.DiscountValue).Div(hundred).Round(2)
		if c.MaxDiscountAmount != nil && amount.GreaterThan(*c.MaxDiscountAmount) {
			amount = *c.MaxDiscountAmount
		}
	default:
		amount = c.DiscountValue
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}

// Apply runs eligibility, the minimum order check and the discount.
func Apply(c *models.Coupon, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if err := Eligible(c, now); err != nil {
		return decimal.Zero, err
	}
	if subtotal.LessThan(c.MinOrderAmount) {
		return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "Minimum order amount is ₹%s", c.MinOrderAmount.String())
	}
	return Discount(c, subtotal), nil
}
