package emailchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/email"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/otp"
)

// View is what the profile screen needs to render the current step.
type View struct {
	Step              Step       `json:"step"`
	NewEmail          string     `json:"new_email,omitempty"`
	ResendAvailableAt *time.Time `json:"resend_available_at,omitempty"`
}

type flowStore interface {
	Load(ctx context.Context, userID string) (*Flow, error)
	Save(ctx context.Context, userID string, flow *Flow) error
	Delete(ctx context.Context, userID string) error
}

type codeGenerator interface {
	Generate() (string, error)
}

type otpMailer interface {
	EmailChangeOTP(to, code string, expiry time.Duration) (email.Message, error)
}

// Service drives the verify_old, enter_new, verify_new sequence.
type Service interface {
	Start(ctx context.Context, userID uuid.UUID) (*View, error)
	VerifyOld(ctx context.Context, userID uuid.UUID, code string) (*View, error)
	SubmitNew(ctx context.Context, userID uuid.UUID, newEmail string) (*View, error)
	VerifyNew(ctx context.Context, userID uuid.UUID, code string) (*users.UserDTO, error)
	Cancel(ctx context.Context, userID uuid.UUID) error
}

type ServiceParams struct {
	Flows    flowStore
	Users    *users.Repository
	Tx       *db.Client
	Codes    codeGenerator
	Renderer otpMailer
	Sender   email.Sender
	Config   config.OTPConfig
	Logger   *logger.Logger
}

type service struct {
	flows    flowStore
	users    *users.Repository
	tx       *db.Client
	codes    codeGenerator
	renderer otpMailer
	sender   email.Sender
	cfg      config.OTPConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Flows == nil {
		return nil, fmt.Errorf("flow store required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Renderer == nil || params.Sender == nil {
		return nil, fmt.Errorf("email renderer and sender required")
	}
	codes := params.Codes
	if codes == nil {
		codes = otp.NewGenerator(params.Config.Length)
	}
	return &service{
		flows:    params.Flows,
		users:    params.Users,
		tx:       params.Tx,
		codes:    codes,
		renderer: params.Renderer,
		sender:   params.Sender,
		cfg:      params.Config,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

// Start sends a code to the current address. Calling it again restarts the flow.
func (s *service) Start(ctx context.Context, userID uuid.UUID) (*View, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, db.Translate(err, "load user", "user not found", "")
	}
	flow, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.checkCooldown(flow, now); err != nil {
		return nil, err
	}
	next := &Flow{Step: StepVerifyOld}
	if err := s.send(ctx, next, user.Email, now); err != nil {
		return nil, err
	}
	if err := s.save(ctx, userID, next); err != nil {
		return nil, err
	}
	return s.view(next), nil
}

func (s *service) VerifyOld(ctx context.Context, userID uuid.UUID, code string) (*View, error) {
	flow, err := s.require(ctx, userID, StepVerifyOld)
	if err != nil {
		return nil, err
	}
	if err := s.verify(ctx, userID, flow, code); err != nil {
		return nil, err
	}
	flow.Step = StepEnterNew
	if err := s.save(ctx, userID, flow); err != nil {
		return nil, err
	}
	return s.view(flow), nil
}

// SubmitNew is accepted on enter_new, and again on verify_new as a resend or correction.
func (s *service) SubmitNew(ctx context.Context, userID uuid.UUID, newEmail string) (*View, error) {
	flow, err := s.require(ctx, userID, StepEnterNew, StepVerifyNew)
	if err != nil {
		return nil, err
	}
	candidate := users.NormalizeEmail(newEmail)
	if candidate == "" || !strings.Contains(candidate, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, db.Translate(err, "load user", "user not found", "")
	}
	if strings.EqualFold(user.Email, candidate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new email must be different from the current one")
	}
	taken, err := s.users.EmailExists(ctx, candidate)
	if err != nil {
		return nil, db.Translate(err, "check email", "", "")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
	}
	now := s.now().UTC()
	if flow.Step == StepVerifyNew {
		if err := s.checkCooldown(flow, now); err != nil {
			return nil, err
		}
	}
	if err := s.send(ctx, flow, candidate, now); err != nil {
		return nil, err
	}
	flow.Step = StepVerifyNew
	flow.NewEmail = candidate
	if err := s.save(ctx, userID, flow); err != nil {
		return nil, err
	}
	return s.view(flow), nil
}

// VerifyNew commits the address change and ends the flow.
func (s *service) VerifyNew(ctx context.Context, userID uuid.UUID, code string) (*users.UserDTO, error) {
	flow, err := s.require(ctx, userID, StepVerifyNew)
	if err != nil {
		return nil, err
	}
	if err := s.verify(ctx, userID, flow, code); err != nil {
		return nil, err
	}
	// The matched code is spent before the update runs; a failed update
	// leaves the user on enter_new to request a fresh code.
	flow.Step = StepEnterNew
	if err := s.save(ctx, userID, flow); err != nil {
		return nil, err
	}

	var updated *users.UserDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		taken, err := repo.EmailExists(ctx, flow.NewEmail)
		if err != nil {
			return err
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		if err := repo.UpdateEmail(ctx, userID, flow.NewEmail); err != nil {
			return err
		}
		user, err := repo.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		profile, err := repo.FindProfile(ctx, userID)
		if err != nil && !db.IsNotFound(err) {
			return err
		}
		updated = users.FromModel(user, profile)
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, db.Translate(err, "update email", "user not found", "email is already registered")
	}

	if err := s.flows.Delete(ctx, userID.String()); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "emailchange.flow_clear_failed")
	}
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, userID uuid.UUID) error {
	if err := s.flows.Delete(ctx, userID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel email change")
	}
	return nil
}

// verify consumes one attempt. A match burns the code so it cannot be replayed.
func (s *service) verify(ctx context.Context, userID uuid.UUID, flow *Flow, code string) error {
	now := s.now().UTC()
	if !flow.codeLive(now) {
		return pkgerrors.New(pkgerrors.CodeValidation, "code has expired, request a new code")
	}
	code = otp.Normalize(code)
	if otp.Matches(code, flow.CodeHash) {
		flow.burn()
		return nil
	}
	flow.Attempts++
	exhausted := flow.Attempts >= s.maxAttempts()
	if exhausted {
		flow.burn()
	}
	if err := s.save(ctx, userID, flow); err != nil {
		return err
	}
	if exhausted {
		return pkgerrors.New(pkgerrors.CodeValidation, "too many attempts, request a new code")
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid code").
		WithDetails(map[string]int{"attempts_left": s.maxAttempts() - flow.Attempts})
}

func (s *service) send(ctx context.Context, flow *Flow, to string, now time.Time) error {
	code, err := s.codes.Generate()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	msg, err := s.renderer.EmailChangeOTP(to, code, s.cfg.TTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render code email")
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send verification code")
	}
	flow.issue(otp.Hash(code), now, s.cfg.TTL)
	return nil
}

func (s *service) checkCooldown(flow *Flow, now time.Time) error {
	if flow == nil || flow.SentAt.IsZero() {
		return nil
	}
	if at := flow.resendAt(s.cfg.ResendCooldown); now.Before(at) {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "please wait before requesting another code").
			WithDetails(map[string]time.Time{"resend_available_at": at})
	}
	return nil
}

func (s *service) require(ctx context.Context, userID uuid.UUID, steps ...Step) (*Flow, error) {
	flow, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if flow == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no email change in progress")
	}
	for _, step := range steps {
		if flow.Step == step {
			return flow, nil
		}
	}
	return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "email change is at step %s", flow.Step)
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*Flow, error) {
	flow, err := s.flows.Load(ctx, userID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load email change")
	}
	return flow, nil
}

func (s *service) save(ctx context.Context, userID uuid.UUID, flow *Flow) error {
	if err := s.flows.Save(ctx, userID.String(), flow); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save email change")
	}
	return nil
}

func (s *service) maxAttempts() int {
	if s.cfg.MaxAttempts <= 0 {
		return 5
	}
	return s.cfg.MaxAttempts
}

func (s *service) view(flow *Flow) *View {
	v := &View{Step: flow.Step, NewEmail: flow.NewEmail}
	if !flow.SentAt.IsZero() {
		at := flow.resendAt(s.cfg.ResendCooldown)
		v.ResendAvailableAt = &at
	}
	return v
}
