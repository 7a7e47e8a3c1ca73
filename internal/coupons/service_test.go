package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func newTestService(t *testing.T) (*service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.NewSQLite(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc.(*service), repo
}

func TestCreateNormalizesCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	maxDiscount := dec(20)
	created, err := svc.Create(ctx, Input{
		Code:              "  flat50 ",
		DiscountType:      enums.DiscountTypeFlat,
		DiscountValue:     dec(50),
		MaxDiscountAmount: &maxDiscount,
		IsActive:          true,
	})
	require.NoError(t, err)
	assert.Equal(t, "FLAT50", created.Code)
	assert.Nil(t, created.MaxDiscountAmount)

	_, err = svc.Create(ctx, Input{Code: "Flat50", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec(10)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateRejectsInvalidValues(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []Input{
		{Code: "", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec(1)},
		{Code: "X", DiscountType: "bogus", DiscountValue: dec(1)},
		{Code: "X", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec(0)},
		{Code: "X", DiscountType: enums.DiscountTypePercentage, DiscountValue: dec(101)},
		{Code: "X", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec(1), MinOrderAmount: dec(-1)},
	}
	for _, input := range cases {
		_, err := svc.Create(ctx, input)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v", input)
	}
}

func TestToggleAndValidate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	maxDiscount := dec(100)
	created, err := svc.Create(ctx, Input{
		Code:              "WELCOME10",
		DiscountType:      enums.DiscountTypePercentage,
		DiscountValue:     dec(10),
		MinOrderAmount:    dec(500),
		MaxDiscountAmount: &maxDiscount,
		IsActive:          true,
	})
	require.NoError(t, err)

	res, err := svc.Validate(ctx, "welcome10", dec(1300))
	require.NoError(t, err)
	assert.True(t, res.Discount.Equal(dec(100)))
	assert.True(t, res.TotalAfterDiscount.Equal(dec(1200)))

	toggled, err := svc.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	_, err = svc.Validate(ctx, "WELCOME10", dec(1300))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "Coupon is inactive", typed.Message())

	_, err = svc.Validate(ctx, "NOPE", dec(1300))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{Code: "SAVE", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec(25), IsActive: true})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, Input{Code: "save5", DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.NewFromFloat(5.5)})
	require.NoError(t, err)
	assert.Equal(t, "SAVE5", updated.Code)
	assert.False(t, updated.IsActive)
	assert.Equal(t, enums.DiscountTypePercentage, updated.DiscountType)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound))
}

func TestDeactivateExpired(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	_, err := svc.Create(ctx, Input{Code: "OLD", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec(1), IsActive: true, ExpiresAt: &past})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Code: "NEW", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec(1), IsActive: true, ExpiresAt: &future})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Code: "FOREVER", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec(1), IsActive: true})
	require.NoError(t, err)

	n, err := repo.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	old, err := repo.FindByCode(ctx, "old")
	require.NoError(t, err)
	assert.False(t, old.IsActive)
}
