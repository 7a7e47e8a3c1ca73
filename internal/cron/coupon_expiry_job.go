package cron

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const couponExpiryJobName = "coupon-expiry"

type couponDeactivator interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// CouponExpiryJob switches off coupons whose expiry has passed so the admin
// list reflects what checkout already rejects.
type CouponExpiryJob struct {
	coupons couponDeactivator
	metrics *metrics.CommerceMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewCouponExpiryJob(coupons couponDeactivator, m *metrics.CommerceMetrics, logg *logger.Logger) (*CouponExpiryJob, error) {
	if coupons == nil {
		return nil, errors.New("coupon repository required")
	}
	return &CouponExpiryJob{coupons: coupons, metrics: m, logg: logg, now: time.Now}, nil
}

func (j *CouponExpiryJob) Name() string { return couponExpiryJobName }

func (j *CouponExpiryJob) Run(ctx context.Context) error {
	n, err := j.coupons.DeactivateExpired(ctx, j.now().UTC())
	if err != nil {
		return err
	}
	j.metrics.AddCouponsExpired(n)
	if j.logg != nil && n > 0 {
		j.logg.Info(j.logg.WithField(ctx, "deactivated", n), "cron.coupons_expired")
	}
	return nil
}
