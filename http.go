package auth

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/rxgate/go-auth/middleware/jwtware"
)

// RouteGuard authorizes HTTP requests before they reach a handler. It turns
// the bearer token carried by the request into an identity, enforces the
// route's permission requirement, and renders failures as JSON.
type RouteGuard struct {
	authorizer   Authorizer
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewRouteGuard(authorizer Authorizer, cfg Config) *RouteGuard {
	g := &RouteGuard{
		authorizer: authorizer,
		cfg:        cfg,
		Logger:     defLogger{},
	}

	g.ErrorHandler = g.defaultErrHandler

	return g
}

// RequirePermissions builds middleware enforcing the given requirement.
// Pass an empty requirement for routes that only need authentication.
func (g *RouteGuard) RequirePermissions(required RequiredPermissions) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			token := g.TokenFromContext(ctx)

			identity, err := g.authorizer.Check(ctx.Context(), token, required)
			if err != nil {
				return g.ErrorHandler(ctx, err)
			}

			ctx.Locals(g.cfg.GetContextKey(), identity)

			return hf(ctx)
		}
	}
}

// TokenFromContext pulls the bearer token from the request using the
// configured token lookup, e.g. "header:Authorization,cookie:session".
func (g *RouteGuard) TokenFromContext(ctx router.Context) string {
	lookup := g.cfg.GetTokenLookup()
	if lookup == "" {
		lookup = "header:" + router.HeaderAuthorization
	}

	scheme := g.cfg.GetAuthScheme()
	if scheme == "" {
		scheme = "Bearer"
	}

	for _, extractor := range jwtware.GetExtractors(lookup, scheme) {
		if raw, err := extractor(ctx); err == nil && raw != "" {
			return raw
		}
	}

	return ""
}

// IdentityFromContext returns the identity stored by RequirePermissions.
func IdentityFromContext(ctx router.Context, contextKey string) (Identity, bool) {
	raw := ctx.Locals(contextKey)
	if raw == nil {
		return nil, false
	}

	identity, ok := raw.(Identity)
	return identity, ok
}

func (g *RouteGuard) defaultErrHandler(c router.Context, err error) error {
	richErr := asRichError(err)

	g.Logger.Info(
		"request rejected",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
		"path", c.OriginalURL(),
	)

	return renderError(c, richErr)
}

// renderError writes the canonical JSON error envelope.
func renderError(c router.Context, richErr *errors.Error) error {
	body := map[string]any{
		"message": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}
	if len(richErr.Metadata) > 0 {
		body["metadata"] = richErr.Metadata
	}

	return c.JSON(httpStatusFor(richErr), map[string]any{
		"error": body,
	})
}

func asRichError(err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}

	return errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
		WithCode(errors.CodeInternal)
}

func httpStatusFor(richErr *errors.Error) int {
	if richErr.Code > 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return router.StatusBadRequest
	case errors.CategoryAuth:
		return router.StatusUnauthorized
	case errors.CategoryAuthz:
		return router.StatusForbidden
	case errors.CategoryNotFound:
		return router.StatusNotFound
	case errors.CategoryConflict:
		return router.StatusConflict
	default:
		return router.StatusInternalServerError
	}
}
