package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Permission names enforced by the API routes.
const (
	PermissionPracticesCreate = "practices.create"
	PermissionPracticesAll    = "practices.all"
)

type AuthControllerRoutes struct {
	Login     string
	Practices string
	Convert   string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	Guard        *RouteGuard
	Mailer       MailDispatcher
	Tokens       TokenService
	Sink         ActivitySink
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerGuard(guard *RouteGuard) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Guard = guard
		return c
	}
}

func WithControllerMailer(mailer MailDispatcher) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerTokens(tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Sink = normalizeActivitySink(sink)
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Sink:   noopActivitySink{},
		Routes: &AuthControllerRoutes{
			Login:     "/login",
			Practices: "/practices",
			Convert:   "/pending-users/convert",
		},
	}

	c.ErrorHandler = c.handleError

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Guard == nil {
		panic("Missing RouteGuard in auth controller...")
	}

	c.Mailer = normalizeMailDispatcher(c.Mailer)

	return c
}

// RegisterAuthRoutes wires the controller into the router. Practice
// registration requires an authenticated caller holding the create
// permission; login and conversion are reachable without a session.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Post(
		controller.Routes.Practices,
		controller.PracticeCreate,
		controller.Guard.RequirePermissions(RequirePermissions(PermissionPracticesCreate)),
	).SetName("practices.post")

	app.Post(controller.Routes.Convert, controller.PendingUserConvert).
		SetName("pending-users.convert.post")

	return controller
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err, "invalid login payload")
	}

	token, err := a.Auther.Login(ctx.Context(), payload.Identifier, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"token": token,
	})
}

// PracticeCreatePayload is the registration payload
type PracticeCreatePayload struct {
	PracticeName string `form:"practice_name" json:"practice_name"`
	AddressLine1 string `form:"address_line_1" json:"address_line_1"`
	AddressLine2 string `form:"address_line_2" json:"address_line_2"`
	City         string `form:"city" json:"city"`
	State        string `form:"state" json:"state"`
	Postcode     string `form:"postcode" json:"postcode"`
	FirstName    string `form:"first_name" json:"first_name"`
	LastName     string `form:"last_name" json:"last_name"`
	Email        string `form:"email" json:"email"`
	Phone        string `form:"phone_number" json:"phone_number"`
}

// Validate will validate the payload
func (r PracticeCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PracticeName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.AddressLine1, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Postcode, validation.Required, validation.Length(1, 20)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
	)
}

// PracticeCreate registers a practice with its pending master user. The
// response carries the created IDs only; the registration token travels
// exclusively through email.
func (a *AuthController) PracticeCreate(ctx router.Context) error {
	payload := new(PracticeCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("practice create parse payload", "error", err)
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err, "invalid practice payload")
	}

	if a.Debug {
		fmt.Println("======= PRACTICE CREATE ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("==============================")
	}

	var res *RegisterPracticeResponse

	req := RegisterPracticeMessage{
		PracticeName: payload.PracticeName,
		AddressLine1: payload.AddressLine1,
		AddressLine2: payload.AddressLine2,
		City:         payload.City,
		State:        payload.State,
		Postcode:     payload.Postcode,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Email:        payload.Email,
		Phone:        payload.Phone,
		OnResponse: func(resp *RegisterPracticeResponse) {
			res = resp
		},
	}

	handler := NewRegisterPracticeHandler(a.Repo, a.Mailer).
		WithLogger(a.Logger).
		WithActivitySink(a.Sink)

	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("practice create error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"practice_id": res.Practice.ID.String(),
		"user_id":     res.User.ID.String(),
	})
}

// ConvertPayload redeems a registration token
type ConvertPayload struct {
	Token    string `form:"token" json:"token"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r ConvertPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
	)
}

func (a *AuthController) PendingUserConvert(ctx router.Context) error {
	payload := new(ConvertPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("convert parse payload", "error", err)
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err, "invalid conversion payload")
	}

	var res *ConvertPendingUserResponse

	req := ConvertPendingUserMessage{
		Token:    payload.Token,
		Password: payload.Password,
		OnResponse: func(resp *ConvertPendingUserResponse) {
			res = resp
		},
	}

	handler := NewConvertPendingUserHandler(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Sink).
		WithTokenService(a.Tokens)

	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("convert pending user error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	body := map[string]any{
		"user_id": res.User.ID.String(),
	}
	if res.SessionToken != "" {
		body["token"] = res.SessionToken
	}

	return ctx.JSON(router.StatusOK, body)
}

func (a *AuthController) validationError(ctx router.Context, err error, msg string) error {
	richErr := asRichError(ErrUnableToParseData)
	if verrs, ok := err.(validation.Errors); ok {
		meta := map[string]any{}
		for field, ferr := range verrs {
			meta[field] = ferr.Error()
		}
		richErr = richErr.Clone().WithMetadata(meta)
	}
	richErr.Message = msg

	a.Logger.Error("payload validation failed", "error", err)

	return renderError(ctx, richErr)
}

func (a *AuthController) handleError(ctx router.Context, err error) error {
	return renderError(ctx, asRichError(err))
}
