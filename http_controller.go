package accounts

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// DefaultSessionCookieName is the cookie carrying the opaque session token.
const DefaultSessionCookieName = "account_session"

// Controller exposes the credential and session operations over HTTP.
type Controller struct {
	Logger       Logger
	Verifier     *Verifier
	Registrar    *Registrar
	Sessions     *SessionManager
	Metrics      MetricsCollector
	CookieName   string
	CookieSecure bool
	ErrorHandler func(ctx *fiber.Ctx, err error) error
}

type ControllerOption func(*Controller) *Controller

func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerMetrics(m MetricsCollector) ControllerOption {
	return func(c *Controller) *Controller {
		if m != nil {
			c.Metrics = m
		}
		return c
	}
}

func WithCookieName(name string) ControllerOption {
	return func(c *Controller) *Controller {
		if name != "" {
			c.CookieName = name
		}
		return c
	}
}

func WithCookieSecure(secure bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.CookieSecure = secure
		return c
	}
}

func NewController(verifier *Verifier, registrar *Registrar, sessions *SessionManager, opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger:       defLogger{},
		Verifier:     verifier,
		Registrar:    registrar,
		Sessions:     sessions,
		Metrics:      NoopMetrics{},
		CookieName:   DefaultSessionCookieName,
		CookieSecure: true,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	c.ErrorHandler = c.renderError

	if c.Verifier == nil {
		panic("Missing Verifier in accounts controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionManager in accounts controller...")
	}

	return c
}

// RegisterRoutes mounts the credential and session endpoints. The optional
// middleware is applied to the credential endpoints only.
func (c *Controller) RegisterRoutes(app fiber.Router, credentialMiddleware ...fiber.Handler) {
	login := append(append([]fiber.Handler{}, credentialMiddleware...), c.LoginPost)
	signup := append(append([]fiber.Handler{}, credentialMiddleware...), c.SignupPost)

	app.Post("/auth/login", login...)
	app.Post("/auth/signup", signup...)
	app.Post("/auth/logout", c.LogoutPost)
	app.Get("/auth/me", c.MeGet)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// SignupRequest payload
type SignupRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 128),
		),
	)
}

func (c *Controller) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return c.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return c.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid login payload").
			WithCode(errors.CodeBadRequest))
	}

	identity, err := c.Verifier.Verify(ctx.UserContext(), payload.Email, payload.Password)
	if err != nil {
		c.Metrics.RecordLogin("failure")
		c.Logger.Info("login rejected", "email", payload.Email)
		return c.ErrorHandler(ctx, err)
	}

	session, err := c.Sessions.Create(ctx.UserContext(), identity.ID)
	if err != nil {
		c.Metrics.RecordLogin("failure")
		return c.ErrorHandler(ctx, err)
	}

	c.Metrics.RecordLogin("success")
	c.setSessionCookie(ctx, session)

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"identity":   identity,
		"session_id": session.ID,
		"expires_at": session.ExpiresAt,
	})
}

func (c *Controller) SignupPost(ctx *fiber.Ctx) error {
	if c.Registrar == nil {
		return c.ErrorHandler(ctx, errors.New("signups are disabled", errors.CategoryOperation).
			WithCode(http.StatusNotImplemented))
	}

	payload := new(SignupRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return c.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse signup payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return c.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid signup payload").
			WithCode(errors.CodeBadRequest))
	}

	identity, err := c.Registrar.Register(ctx.UserContext(), payload.Email, payload.Password)
	if err != nil {
		c.Metrics.RecordSignup("failure")
		return c.ErrorHandler(ctx, err)
	}

	session, err := c.Sessions.Create(ctx.UserContext(), identity.ID)
	if err != nil {
		c.Metrics.RecordSignup("failure")
		return c.ErrorHandler(ctx, err)
	}

	c.Metrics.RecordSignup("success")
	c.setSessionCookie(ctx, session)

	return ctx.Status(http.StatusCreated).JSON(fiber.Map{
		"identity":   identity,
		"session_id": session.ID,
		"expires_at": session.ExpiresAt,
	})
}

func (c *Controller) LogoutPost(ctx *fiber.Ctx) error {
	sessionID := c.sessionToken(ctx)

	if err := c.Sessions.Destroy(ctx.UserContext(), sessionID); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	c.clearSessionCookie(ctx)

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"logged_out": true,
	})
}

func (c *Controller) MeGet(ctx *fiber.Ctx) error {
	sessionID := c.sessionToken(ctx)

	identity, err := c.Sessions.Validate(ctx.UserContext(), sessionID)
	if err != nil {
		c.Metrics.RecordSessionValidation("invalid")
		return c.ErrorHandler(ctx, err)
	}

	c.Metrics.RecordSessionValidation("valid")

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"identity": identity,
	})
}

// sessionToken resolves the session token from the cookie, falling back to a
// bearer Authorization header for API clients.
func (c *Controller) sessionToken(ctx *fiber.Ctx) string {
	if token := ctx.Cookies(c.CookieName); token != "" {
		return token
	}

	const prefix = "Bearer "
	header := ctx.Get(fiber.HeaderAuthorization)
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}

	return ""
}

func (c *Controller) setSessionCookie(ctx *fiber.Ctx, session *Session) {
	ctx.Cookie(&fiber.Cookie{
		Name:     c.CookieName,
		Value:    session.ID,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   c.CookieSecure,
		SameSite: "Lax",
	})
}

func (c *Controller) clearSessionCookie(ctx *fiber.Ctx) {
	ctx.Cookie(&fiber.Cookie{
		Name:     c.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   c.CookieSecure,
		SameSite: "Lax",
	})
}

func (c *Controller) renderError(ctx *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		c.Logger.Error("request failed", "text_code", richErr.TextCode, "error", richErr.Message)
	}

	return ctx.Status(status).JSON(fiber.Map{
		"text_code": richErr.TextCode,
		"message":   richErr.Message,
	})
}
