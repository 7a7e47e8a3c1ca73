package messages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/email"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// MessageDTO is returned for both contact messages and FAQ questions.
type MessageDTO struct {
	ID        uuid.UUID           `json:"id"`
	Kind      Kind                `json:"kind"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Phone     *string             `json:"phone,omitempty"`
	Body      string              `json:"body"`
	Status    enums.MessageStatus `json:"status"`
	Reply     *string             `json:"reply,omitempty"`
	RepliedAt *time.Time          `json:"replied_at,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// ContactInput is a contact form submission.
type ContactInput struct {
	UserID  *uuid.UUID `json:"-"`
	Name    string     `json:"name" validate:"required"`
	Email   string     `json:"email" validate:"required,email"`
	Phone   *string    `json:"phone,omitempty"`
	Message string     `json:"message" validate:"required"`
}

// QuestionInput is a question asked on the FAQ page.
type QuestionInput struct {
	UserID   *uuid.UUID `json:"-"`
	Name     string     `json:"name" validate:"required"`
	Email    string     `json:"email" validate:"required,email"`
	Question string     `json:"question" validate:"required"`
}

type replyMailer interface {
	MessageReply(to, name, original, reply string) (email.Message, error)
}

// Service runs the new, read, replied workflow of both inboxes.
type Service interface {
	Submit(ctx context.Context, input ContactInput) (*MessageDTO, error)
	Ask(ctx context.Context, input QuestionInput) (*MessageDTO, error)
	List(ctx context.Context, kind Kind, status *enums.MessageStatus) ([]MessageDTO, error)
	Open(ctx context.Context, kind Kind, id uuid.UUID) (*MessageDTO, error)
	Reply(ctx context.Context, kind Kind, id uuid.UUID, reply string) (*MessageDTO, error)
	Delete(ctx context.Context, kind Kind, id uuid.UUID) error
	Mine(ctx context.Context, kind Kind, userID uuid.UUID) ([]MessageDTO, error)
}

// ServiceParams groups the messages service collaborators.
type ServiceParams struct {
	Repo     *Repository
	Renderer replyMailer
	Sender   email.Sender
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	renderer replyMailer
	sender   email.Sender
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("messages repository required")
	}
	if params.Renderer == nil {
		return nil, fmt.Errorf("email renderer required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	return &service{
		repo:     params.Repo,
		renderer: params.Renderer,
		sender:   params.Sender,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

func (s *service) Submit(ctx context.Context, input ContactInput) (*MessageDTO, error) {
	name, mail, body, err := clean(input.Name, input.Email, input.Message)
	if err != nil {
		return nil, err
	}
	var phone *string
	if input.Phone != nil {
		if trimmed := strings.TrimSpace(*input.Phone); trimmed != "" {
			phone = &trimmed
		}
	}
	record := &models.ContactMessage{
		UserID:  input.UserID,
		Name:    name,
		Email:   mail,
		Phone:   phone,
		Message: body,
		Status:  enums.MessageStatusNew,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, db.Translate(err, "save message", "", "")
	}
	return s.get(ctx, KindContact, record.ID)
}

func (s *service) Ask(ctx context.Context, input QuestionInput) (*MessageDTO, error) {
	name, mail, body, err := clean(input.Name, input.Email, input.Question)
	if err != nil {
		return nil, err
	}
	record := &models.FaqQuestion{
		UserID:   input.UserID,
		Name:     name,
		Email:    mail,
		Question: body,
		Status:   enums.MessageStatusNew,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, db.Translate(err, "save question", "", "")
	}
	return s.get(ctx, KindFAQ, record.ID)
}

func (s *service) List(ctx context.Context, kind Kind, status *enums.MessageStatus) ([]MessageDTO, error) {
	if !kind.valid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid inbox %q", kind)
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *status)
	}
	rows, err := s.repo.List(ctx, kind, status)
	if err != nil {
		return nil, db.Translate(err, "list messages", "", "")
	}
	return toDTOs(kind, rows), nil
}

// Open marks a new message as read. Other states are left unchanged.
func (s *service) Open(ctx context.Context, kind Kind, id uuid.UUID) (*MessageDTO, error) {
	row, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if row.Status.CanTransitionTo(enums.MessageStatusRead) {
		if _, err := s.repo.Transition(ctx, kind, id,
			[]enums.MessageStatus{enums.MessageStatusNew}, enums.MessageStatusRead, nil, s.now().UTC()); err != nil {
			return nil, db.Translate(err, "open message", "", "")
		}
	}
	return s.get(ctx, kind, id)
}

// Reply is a one-time transition from new or read. The email is best effort.
func (s *service) Reply(ctx context.Context, kind Kind, id uuid.UUID, reply string) (*MessageDTO, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reply is required")
	}
	row, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !row.Status.CanTransitionTo(enums.MessageStatusReplied) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "message has already been replied to")
	}
	changed, err := s.repo.Transition(ctx, kind, id,
		[]enums.MessageStatus{enums.MessageStatusNew, enums.MessageStatusRead},
		enums.MessageStatusReplied, &reply, s.now().UTC())
	if err != nil {
		return nil, db.Translate(err, "reply to message", "", "")
	}
	if !changed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "message has already been replied to")
	}

	s.sendReply(ctx, row, reply)
	return s.get(ctx, kind, id)
}

func (s *service) sendReply(ctx context.Context, row *Row, reply string) {
	msg, err := s.renderer.MessageReply(row.Email, row.Name, row.Body, reply)
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"message_id": row.ID.String(),
			"error":      err.Error(),
		}), "messages.reply_email_failed")
	}
}

func (s *service) Delete(ctx context.Context, kind Kind, id uuid.UUID) error {
	if !kind.valid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid inbox %q", kind)
	}
	return db.Translate(s.repo.Delete(ctx, kind, id), "delete message", "message not found", "")
}

// Mine lists the caller's own submissions together with any replies.
func (s *service) Mine(ctx context.Context, kind Kind, userID uuid.UUID) ([]MessageDTO, error) {
	if !kind.valid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid inbox %q", kind)
	}
	rows, err := s.repo.ListForUser(ctx, kind, userID)
	if err != nil {
		return nil, db.Translate(err, "list messages", "", "")
	}
	return toDTOs(kind, rows), nil
}

func (s *service) find(ctx context.Context, kind Kind, id uuid.UUID) (*Row, error) {
	if !kind.valid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid inbox %q", kind)
	}
	row, err := s.repo.Find(ctx, kind, id)
	if err != nil {
		return nil, db.Translate(err, "load message", "message not found", "")
	}
	return row, nil
}

func (s *service) get(ctx context.Context, kind Kind, id uuid.UUID) (*MessageDTO, error) {
	row, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	dto := fromRow(kind, row)
	return &dto, nil
}

func clean(name, mail, body string) (string, string, string, error) {
	name = strings.TrimSpace(name)
	mail = strings.ToLower(strings.TrimSpace(mail))
	body = strings.TrimSpace(body)
	if name == "" || mail == "" || body == "" {
		return "", "", "", pkgerrors.New(pkgerrors.CodeValidation, "name, email and message are required")
	}
	return name, mail, body, nil
}

func fromRow(kind Kind, row *Row) MessageDTO {
	return MessageDTO{
		ID:        row.ID,
		Kind:      kind,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone,
		Body:      row.Body,
		Status:    row.Status,
		Reply:     row.Reply,
		RepliedAt: row.RepliedAt,
		CreatedAt: row.CreatedAt,
	}
}

func toDTOs(kind Kind, rows []Row) []MessageDTO {
	out := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromRow(kind, &rows[i]))
	}
	return out
}
