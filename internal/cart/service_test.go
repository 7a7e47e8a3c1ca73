package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/redis/redistest"
)

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
}

func (s stubCatalog) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func newCartService(t *testing.T, products ...*models.Product) (Service, *redistest.Memory) {
	t.Helper()
	mem := redistest.NewMemory()
	sessions, err := NewSessionRepository(mem, &redis.Client{}, 0)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	catalog := stubCatalog{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		catalog.products[p.ID] = p
	}
	svc, err := NewService(sessions, catalog)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc, mem
}

func TestServiceResolvesPricesFromCatalog(t *testing.T) {
	variantID := uuid.New()
	a := &models.Product{ID: uuid.New(), Title: "A", BasePrice: decimal.NewFromInt(500), IsActive: true,
		Images: []models.ProductImage{{ImageURL: "https://cdn/a.jpg"}}}
	b := &models.Product{ID: uuid.New(), Title: "B", BasePrice: decimal.NewFromInt(250), IsActive: true,
		Variants: []models.ProductVariant{{ID: variantID, VariantName: "Blue", Price: decimal.NewFromInt(300)}}}
	svc, _ := newCartService(t, a, b)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "tok", ItemRef{ProductID: a.ID}); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := svc.AddItem(ctx, "tok", ItemRef{ProductID: a.ID}); err != nil {
		t.Fatalf("add a again: %v", err)
	}
	view, err := svc.AddItem(ctx, "tok", ItemRef{ProductID: b.ID, VariantID: &variantID})
	if err != nil {
		t.Fatalf("add b: %v", err)
	}
	if !view.Subtotal.Equal(decimal.NewFromInt(1300)) || view.ItemCount != 3 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Items[0].ImageURL == nil || *view.Items[0].ImageURL != "https://cdn/a.jpg" {
		t.Fatalf("expected primary image snapshot")
	}

	reloaded, err := svc.Get(ctx, "tok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reloaded.Subtotal.Equal(decimal.NewFromInt(1300)) {
		t.Fatalf("expected cart to persist, got %s", reloaded.Subtotal)
	}

	other, err := svc.Get(ctx, "other")
	if err != nil || other.ItemCount != 0 {
		t.Fatalf("expected isolated empty cart, got %+v err=%v", other, err)
	}
}

func TestServiceRejectsInvalidItems(t *testing.T) {
	inactive := &models.Product{ID: uuid.New(), IsActive: false}
	active := &models.Product{ID: uuid.New(), IsActive: true}
	svc, _ := newCartService(t, inactive, active)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "tok", ItemRef{ProductID: inactive.ID})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for inactive product, got %v", err)
	}

	foreign := uuid.New()
	_, err = svc.AddItem(ctx, "tok", ItemRef{ProductID: active.ID, VariantID: &foreign})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for foreign variant, got %v", err)
	}

	_, err = svc.AddItem(ctx, "tok", ItemRef{ProductID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = svc.Get(ctx, "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected missing session error, got %v", err)
	}
}

func TestServiceUpdateRemoveClear(t *testing.T) {
	p := &models.Product{ID: uuid.New(), BasePrice: decimal.NewFromInt(40), IsActive: true}
	svc, mem := newCartService(t, p)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "tok", ItemRef{ProductID: p.ID}); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := svc.UpdateQuantity(ctx, "tok", QuantityInput{ItemRef: ItemRef{ProductID: p.ID}, Quantity: 3})
	if err != nil || view.ItemCount != 3 || !view.Subtotal.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("unexpected update result %+v err=%v", view, err)
	}
	view, err = svc.RemoveItem(ctx, "tok", ItemRef{ProductID: p.ID})
	if err != nil || view.ItemCount != 0 {
		t.Fatalf("unexpected remove result %+v err=%v", view, err)
	}

	if err := svc.Clear(ctx, "tok"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mem.Has((&redis.Client{}).CartKey("tok")) {
		t.Fatalf("expected cart key removed")
	}

	mem.FailWith = errors.New("down")
	if _, err := svc.Get(ctx, "tok"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
