package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Stats is the admin overview payload.
type Stats struct {
	Products        int64                       `json:"products"`
	ActiveProducts  int64                       `json:"active_products"`
	Orders          int64                       `json:"orders"`
	OrdersByStatus  map[enums.OrderStatus]int64 `json:"orders_by_status"`
	Revenue         decimal.Decimal             `json:"revenue"`
	PendingReviews  int64                       `json:"pending_reviews"`
	NewMessages     int64                       `json:"new_messages"`
	NewFAQQuestions int64                       `json:"new_faq_questions"`
	Customers       int64                       `json:"customers"`
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	return &service{repo: repo}, nil
}

// Stats runs the independent aggregates concurrently. Every order status is
// present in the breakdown, zero when no order has it.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	var byStatus map[enums.OrderStatus]int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Products, out.ActiveProducts, err = s.repo.CountProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		byStatus, err = s.repo.OrdersByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Revenue, err = s.repo.DeliveredRevenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.PendingReviews, err = s.repo.PendingReviews(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.NewMessages, out.NewFAQQuestions, err = s.repo.NewMessages(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Customers, err = s.repo.CountCustomers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, db.Translate(err, "load dashboard stats", "", "")
	}

	out.OrdersByStatus = make(map[enums.OrderStatus]int64, len(enums.OrderStatuses()))
	for _, status := range enums.OrderStatuses() {
		out.OrdersByStatus[status] = byStatus[status]
		out.Orders += byStatus[status]
	}
	return &out, nil
}
