package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// DefaultRegistrationTokenTTL is how long a registration token stays
// redeemable after issuing.
var DefaultRegistrationTokenTTL = "72h"

type ConvertPendingUserMessage struct {
	Token      string `json:"token"`
	Password   string `json:"password"`
	OnResponse func(resp *ConvertPendingUserResponse)
}

func (e ConvertPendingUserMessage) Type() string { return "user.convert" }

type ConvertPendingUserResponse struct {
	User         *User
	SessionToken string
	Success      bool
}

// ConvertPendingUserHandler redeems a registration token: it sets the
// password, promotes the pending user to active, and burns the token. The
// token consumption is a conditional update, so concurrent redemptions of
// the same token let exactly one caller through.
type ConvertPendingUserHandler struct {
	repo     RepositoryManager
	tokens   TokenService
	tokenTTL string
	sink     ActivitySink
	logger   Logger
}

func NewConvertPendingUserHandler(repo RepositoryManager) *ConvertPendingUserHandler {
	return &ConvertPendingUserHandler{
		repo:     repo,
		tokenTTL: DefaultRegistrationTokenTTL,
		sink:     noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *ConvertPendingUserHandler) WithLogger(logger Logger) *ConvertPendingUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConvertPendingUserHandler) WithActivitySink(sink ActivitySink) *ConvertPendingUserHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

// WithTokenService makes successful conversions return a session token so
// the new user lands already logged in.
func (h *ConvertPendingUserHandler) WithTokenService(ts TokenService) *ConvertPendingUserHandler {
	h.tokens = ts
	return h
}

// WithTokenTTL overrides the registration token lifetime, e.g. "24h".
func (h *ConvertPendingUserHandler) WithTokenTTL(ttl string) *ConvertPendingUserHandler {
	if ttl != "" {
		h.tokenTTL = ttl
	}
	return h
}

func (h *ConvertPendingUserHandler) Execute(ctx context.Context, event ConvertPendingUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during pending user conversion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConvertPendingUserHandler) execute(ctx context.Context, event ConvertPendingUserMessage) error {
	resp := &ConvertPendingUserResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := validation.ValidateStruct(&event,
		validation.Field(&event.Token, validation.Required),
		validation.Field(&event.Password, validation.Required, validation.Length(10, 100)),
	); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid conversion request").
			WithCode(goerrors.CodeBadRequest)
	}

	tokenID, err := ParseRegistrationToken(event.Token)
	if err != nil {
		return err
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		token, err := h.repo.RegistrationTokens().GetByID(ctx, tokenID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrInvalidToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up registration token")
		}

		if token.Consumed() {
			return ErrInvalidToken
		}

		if token.CreatedAt != nil {
			expired, err := IsOutsideThresholdPeriod(*token.CreatedAt, h.tokenTTL)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to evaluate token lifetime")
			}
			if expired {
				return ErrInvalidToken
			}
		}

		if token.UserID == nil {
			return ErrInvalidToken
		}

		user, err := h.repo.Users().ActivatePendingTx(ctx, tx, *token.UserID, hash)
		if err != nil {
			return err
		}

		// burn the token last so a failed promotion leaves it redeemable
		if err := h.repo.RegistrationTokens().ConsumeTx(ctx, tx, token.ID); err != nil {
			return err
		}

		resp.User = user
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "pending user conversion failed")
	}

	if h.tokens != nil {
		session, err := h.sessionToken(ctx, resp.User)
		if err != nil {
			h.logger.Warn("conversion succeeded but session token issuing failed", "error", err)
		} else {
			resp.SessionToken = session
		}
	}

	h.recordConversion(ctx, resp.User)

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *ConvertPendingUserHandler) sessionToken(ctx context.Context, user *User) (string, error) {
	names, err := h.repo.PermissionGrants().ListNames(ctx, user.ID)
	if err != nil {
		return "", err
	}

	return h.tokens.Generate(authIdentity{
		id:          user.ID.String(),
		email:       user.Email,
		username:    user.Username,
		status:      user.Status,
		permissions: names,
	})
}

func (h *ConvertPendingUserHandler) recordConversion(ctx context.Context, user *User) {
	sink := normalizeActivitySink(h.sink)
	err := sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventUserConverted,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:     user.ID.String(),
		OccurredAt: time.Now(),
	})
	if err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
