package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Known setting keys.
const (
	KeyShippingFee           = "shipping_fee"
	KeyFreeShippingThreshold = "free_shipping_threshold"
	KeyCODEnabled            = "cod_enabled"
	KeyRazorpayEnabled       = "razorpay_enabled"
	KeyHeroBannerURL         = "hero_banner_url"
)

var defaults = map[string]string{
	KeyShippingFee:           "0",
	KeyFreeShippingThreshold: "0",
	KeyCODEnabled:            "true",
	KeyRazorpayEnabled:       "false",
	KeyHeroBannerURL:         "",
}

// Commerce is the typed view used by checkout and order creation.
type Commerce struct {
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	CODEnabled            bool
	RazorpayEnabled       bool
	HeroBannerURL         string
}

// ShippingFor waives the fee when a positive threshold is reached.
func (c Commerce) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if c.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(c.FreeShippingThreshold) {
		return decimal.Zero
	}
	return c.ShippingFee
}

// Service exposes the store settings.
type Service interface {
	All(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, values map[string]string) (map[string]string, error)
	Commerce(ctx context.Context) (*Commerce, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

// All returns the known keys, falling back to defaults for unset ones.
func (s *service) All(ctx context.Context) (map[string]string, error) {
	stored, err := s.repo.All(ctx)
	if err != nil {
		return nil, db.Translate(err, "load settings", "", "")
	}
	out := make(map[string]string, len(defaults))
	for key, fallback := range defaults {
		if value, ok := stored[key]; ok {
			out[key] = value
			continue
		}
		out[key] = fallback
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, values map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(values))
	for key, value := range values {
		value = strings.TrimSpace(value)
		if err := validate(key, value); err != nil {
			return nil, err
		}
		clean[key] = value
	}
	if err := s.repo.Upsert(ctx, clean); err != nil {
		return nil, db.Translate(err, "save settings", "", "")
	}
	return s.All(ctx)
}

func (s *service) Commerce(ctx context.Context) (*Commerce, error) {
	values, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(values), nil
}

// Parse builds the typed view. Unparseable values fall back to defaults.
func Parse(values map[string]string) *Commerce {
	return &Commerce{
		ShippingFee:           parseMoney(values[KeyShippingFee]),
		FreeShippingThreshold: parseMoney(values[KeyFreeShippingThreshold]),
		CODEnabled:            parseBool(values[KeyCODEnabled], true),
		RazorpayEnabled:       parseBool(values[KeyRazorpayEnabled], false),
		HeroBannerURL:         values[KeyHeroBannerURL],
	}
}

func validate(key, value string) error {
	switch key {
	case KeyShippingFee, KeyFreeShippingThreshold:
		amount, err := decimal.NewFromString(value)
		if err != nil || amount.IsNegative() {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a non-negative amount", key)
		}
	case KeyCODEnabled, KeyRazorpayEnabled:
		if _, err := strconv.ParseBool(value); err != nil {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be true or false", key)
		}
	case KeyHeroBannerURL:
	default:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown setting %q", key)
	}
	return nil
}

func parseMoney(value string) decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

func parseBool(value string, fallback bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}
