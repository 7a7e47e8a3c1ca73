package coupons

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestApplyWelcomeCouponIsCapped(t *testing.T) {
	maxDiscount := dec(100)
	coupon := &models.Coupon{
		Code:              "WELCOME10",
		DiscountType:      enums.DiscountTypePercentage,
		DiscountValue:     dec(10),
		MinOrderAmount:    dec(500),
		MaxDiscountAmount: &maxDiscount,
		IsActive:          true,
	}

	got, err := Apply(coupon, dec(1300), time.Now())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !got.Equal(dec(100)) {
		t.Fatalf("expected discount 100, got %s", got)
	}
}

func TestApplyMinimumOrder(t *testing.T) {
	coupon := &models.Coupon{DiscountType: enums.DiscountTypeFlat, DiscountValue: dec(50), MinOrderAmount: dec(500), IsActive: true}

	_, err := Apply(coupon, dec(499), time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "Minimum order amount is ₹500" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestEligibility(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	cases := []struct {
		name    string
		coupon  models.Coupon
		message string
	}{
		{"inactive", models.Coupon{IsActive: false}, "Coupon is inactive"},
		{"inactive and expired", models.Coupon{IsActive: false, ExpiresAt: &past}, "Coupon is inactive"},
		{"expired", models.Coupon{IsActive: true, ExpiresAt: &past}, "Coupon has expired"},
		{"expires exactly now", models.Coupon{IsActive: true, ExpiresAt: &now}, "Coupon has expired"},
		{"future expiry", models.Coupon{IsActive: true, ExpiresAt: &future}, ""},
		{"no expiry", models.Coupon{IsActive: true}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Eligible(&tc.coupon, now)
			if tc.message == "" {
				if err != nil {
					t.Fatalf("expected eligible, got %v", err)
				}
				return
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Message() != tc.message {
				t.Fatalf("expected %q, got %v", tc.message, err)
			}
		})
	}
}

func TestDiscountBounds(t *testing.T) {
	flat := &models.Coupon{DiscountType: enums.DiscountTypeFlat, DiscountValue: dec(200)}
	if got := Discount(flat, dec(150)); !got.Equal(dec(150)) {
		t.Fatalf("flat discount should cap at subtotal, got %s", got)
	}

	negative := &models.Coupon{DiscountType: enums.DiscountTypeFlat, DiscountValue: dec(-5)}
	if got := Discount(negative, dec(150)); !got.IsZero() {
		t.Fatalf("discount should floor at zero, got %s", got)
	}

	pct := &models.Coupon{DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.RequireFromString("12.5")}
	if got := Discount(pct, dec(999)); !got.Equal(decimal.RequireFromString("124.88")) {
		t.Fatalf("unexpected percentage discount %s", got)
	}

	full := &models.Coupon{DiscountType: enums.DiscountTypePercentage, DiscountValue: dec(100)}
	if got := Discount(full, dec(80)); !got.Equal(dec(80)) {
		t.Fatalf("100%% should equal subtotal, got %s", got)
	}
}
