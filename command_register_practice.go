package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// DefaultPhoneRegion is the region used to parse phone numbers given
// without an international prefix.
var DefaultPhoneRegion = "GB"

type RegisterPracticeMessage struct {
	PracticeName string `json:"practice_name"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	UseHashid    bool
	OnResponse   func(resp *RegisterPracticeResponse)
}

func (e RegisterPracticeMessage) Type() string { return "practice.register" }

type RegisterPracticeResponse struct {
	Practice *MedicalPractice
	User     *User
	Token    *RegistrationToken
	Success  bool
}

// RegisterPracticeHandler creates a practice, its pending master user, and
// the registration token in one transaction. The signup mail is dispatched
// after commit so a failed transaction never leaks a signup link.
type RegisterPracticeHandler struct {
	repo   RepositoryManager
	mailer MailDispatcher
	sink   ActivitySink
	logger Logger
}

func NewRegisterPracticeHandler(repo RepositoryManager, mailer MailDispatcher) *RegisterPracticeHandler {
	return &RegisterPracticeHandler{
		repo:   repo,
		mailer: normalizeMailDispatcher(mailer),
		sink:   noopActivitySink{},
		logger: defLogger{},
	}
}

func (h *RegisterPracticeHandler) WithLogger(logger Logger) *RegisterPracticeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterPracticeHandler) WithActivitySink(sink ActivitySink) *RegisterPracticeHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *RegisterPracticeHandler) Execute(ctx context.Context, event RegisterPracticeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during practice registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterPracticeHandler) execute(ctx context.Context, event RegisterPracticeMessage) error {
	resp := &RegisterPracticeResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := validatePracticeRegistration(event); err != nil {
		return err
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		username := getUsername(event.Username, event.Email)

		taken, err := h.repo.Users().UsernameTakenTx(ctx, tx, username)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username availability")
		}
		if taken {
			return ErrDuplicateIdentity
		}

		user := &User{
			Username:  username,
			FirstName: event.FirstName,
			LastName:  event.LastName,
			Email:     event.Email,
			Phone:     event.Phone,
			Status:    UserStatusPending,
		}
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create pending user")
		}

		practice := &MedicalPractice{
			Name:         event.PracticeName,
			AddressLine1: event.AddressLine1,
			AddressLine2: event.AddressLine2,
			City:         event.City,
			State:        event.State,
			Postcode:     event.Postcode,
			MasterUserID: &user.ID,
		}

		if practice, err = h.repo.MedicalPractices().CreateTx(ctx, tx, practice); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create practice")
		}

		user.PracticeID = &practice.ID
		if user, err = h.repo.Users().UpdateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not attach user to practice")
		}

		token := IssueRegistrationToken(user.ID, KindPracticeAdmin)
		if token, err = h.repo.RegistrationTokens().CreateTx(ctx, tx, token); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create registration token")
		}

		resp.Practice = practice
		resp.User = user
		resp.Token = token
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "practice registration transaction failed")
	}

	h.mailer.Enqueue(MailMessage{
		To:       resp.User.Email,
		Name:     resp.User.DisplayName(),
		Subject:  "Complete your registration",
		Template: MailTemplateSignup,
		Data: map[string]any{
			"practice_name": resp.Practice.Name,
			"token":         resp.Token.ID.String(),
		},
	})

	h.recordRegistration(ctx, resp)

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *RegisterPracticeHandler) recordRegistration(ctx context.Context, resp *RegisterPracticeResponse) {
	sink := normalizeActivitySink(h.sink)
	err := sink.Record(ctx, ActivityEvent{
		EventType: ActivityEventRegistrationIssued,
		Actor:     ActorRef{Type: "system"},
		UserID:    resp.User.ID.String(),
		Metadata: map[string]any{
			"practice_id": resp.Practice.ID.String(),
			"kind":        KindPracticeAdmin,
		},
		OccurredAt: time.Now(),
	})
	if err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}

func validatePracticeRegistration(event RegisterPracticeMessage) error {
	err := validation.ValidateStruct(&event,
		validation.Field(&event.PracticeName, validation.Required, validation.Length(1, 200)),
		validation.Field(&event.AddressLine1, validation.Required, validation.Length(1, 200)),
		validation.Field(&event.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&event.Postcode, validation.Required, validation.Length(1, 20)),
		validation.Field(&event.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&event.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&event.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&event.Phone, validation.By(optionalPhoneRule)),
	)
	if err == nil {
		return nil
	}

	meta := map[string]any{}
	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			meta[field] = ferr.Error()
		}
	}

	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid practice registration").
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(meta)
}

func optionalPhoneRule(value any) error {
	phone, _ := value.(string)
	if phone == "" {
		return nil
	}
	return validatePhone(phone)
}

// validatePhone accepts any number phonenumbers considers valid for the
// default region or any number given in full international format.
func validatePhone(phone string) error {
	parsed, err := phonenumbers.Parse(phone, DefaultPhoneRegion)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "could not parse phone number")
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return goerrors.New("phone number is not valid", goerrors.CategoryValidation)
	}
	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
