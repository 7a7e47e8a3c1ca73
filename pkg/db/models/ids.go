package models

import "github.com/google/uuid"

// assignID fills zero primary keys on the client so inserts behave the same
// on Postgres and SQLite.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, parents first.
func All() []any {
	return []any{
		&User{},
		&UserProfile{},
		&AdminUser{},
		&Category{},
		&Product{},
		&ProductVariant{},
		&ProductImage{},
		&Order{},
		&OrderItem{},
		&Coupon{},
		&Review{},
		&ContactMessage{},
		&FaqQuestion{},
		&WishlistItem{},
		&Setting{},
	}
}
