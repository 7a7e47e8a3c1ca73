package settings

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestDefaultsAndUpdate(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.NewSQLite(t)))
	require.NoError(t, err)
	ctx := context.Background()

	commerce, err := svc.Commerce(ctx)
	require.NoError(t, err)
	assert.True(t, commerce.ShippingFee.IsZero())
	assert.True(t, commerce.CODEnabled)
	assert.False(t, commerce.RazorpayEnabled)

	values, err := svc.Update(ctx, map[string]string{KeyShippingFee: "50", KeyCODEnabled: "false"})
	require.NoError(t, err)
	assert.Equal(t, "50", values[KeyShippingFee])
	assert.Equal(t, "", values[KeyHeroBannerURL])

	values, err = svc.Update(ctx, map[string]string{KeyShippingFee: "60"})
	require.NoError(t, err)
	assert.Equal(t, "60", values[KeyShippingFee])
	assert.Equal(t, "false", values[KeyCODEnabled])

	_, err = svc.Update(ctx, map[string]string{"theme": "dark"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Update(ctx, map[string]string{KeyShippingFee: "-1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Update(ctx, map[string]string{KeyRazorpayEnabled: "maybe"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestShippingFor(t *testing.T) {
	c := Commerce{ShippingFee: decimal.NewFromInt(50)}
	assert.True(t, c.ShippingFor(decimal.NewFromInt(5000)).Equal(decimal.NewFromInt(50)))

	c.FreeShippingThreshold = decimal.NewFromInt(999)
	assert.True(t, c.ShippingFor(decimal.NewFromInt(998)).Equal(decimal.NewFromInt(50)))
	assert.True(t, c.ShippingFor(decimal.NewFromInt(999)).IsZero())
}

func TestParseFallsBack(t *testing.T) {
	c := Parse(map[string]string{KeyShippingFee: "abc", KeyCODEnabled: "nope"})
	assert.True(t, c.ShippingFee.IsZero())
	assert.True(t, c.CODEnabled)
}
