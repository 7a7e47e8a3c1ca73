package messages

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Kind selects the contact inbox or the FAQ inbox. Both share one workflow.
type Kind string

const (
	KindContact Kind = "contact"
	KindFAQ     Kind = "faq"
)

type kindSpec struct {
	table     string
	body      string
	phone     string
	reply     string
	repliedAt string
	model     func() any
}

var specs = map[Kind]kindSpec{
	KindContact: {
		table:     "contact_messages",
		body:      "message",
		phone:     "phone",
		reply:     "reply",
		repliedAt: "replied_at",
		model:     func() any { return &models.ContactMessage{} },
	},
	KindFAQ: {
		table:     "faq_questions",
		body:      "question",
		phone:     "NULL",
		reply:     "answer",
		repliedAt: "answered_at",
		model:     func() any { return &models.FaqQuestion{} },
	},
}

func (k Kind) valid() bool {
	_, ok := specs[k]
	return ok
}

// Row is the shape shared by contact messages and FAQ questions.
type Row struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Name      string
	Email     string
	Phone     *string
	Body      string
	Status    enums.MessageStatus
	Reply     *string
	RepliedAt *time.Time
	CreatedAt time.Time
}

// Repository reads and moderates both inboxes.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a contact message or FAQ question model.
func (r *Repository) Create(ctx context.Context, record any) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *Repository) selectRows(ctx context.Context, kind Kind) *gorm.DB {
	spec := specs[kind]
	return r.db.WithContext(ctx).
		Table(spec.table).
		Select("id, user_id, name, email, " + spec.phone + " AS phone, " + spec.body + " AS body, status, " +
			spec.reply + " AS reply, " + spec.repliedAt + " AS replied_at, created_at")
}

func (r *Repository) Find(ctx context.Context, kind Kind, id uuid.UUID) (*Row, error) {
	var rows []Row
	if err := r.selectRows(ctx, kind).Where("id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// List returns the inbox newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, kind Kind, status *enums.MessageStatus) ([]Row, error) {
	query := r.selectRows(ctx, kind)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []Row
	if err := query.Order("created_at DESC").Order("id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListForUser(ctx context.Context, kind Kind, userID uuid.UUID) ([]Row, error) {
	var rows []Row
	if err := r.selectRows(ctx, kind).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Transition moves rows currently in one of from to next. It reports whether
// a row changed, which keeps concurrent moderators from replying twice.
func (r *Repository) Transition(ctx context.Context, kind Kind, id uuid.UUID, from []enums.MessageStatus, next enums.MessageStatus, reply *string, at time.Time) (bool, error) {
	spec := specs[kind]
	values := map[string]any{"status": next, "updated_at": at}
	if reply != nil {
		values[spec.reply] = *reply
		values[spec.repliedAt] = at
	}
	res := r.db.WithContext(ctx).
		Table(spec.table).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) Delete(ctx context.Context, kind Kind, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(specs[kind].model())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
