package external

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-accounts"
)

// HTTPConfig configures the external auth HTTP controller.
type HTTPConfig struct {
	// PathPrefix for routes (default: "/auth/external")
	PathPrefix string

	// CookieName for the session token (default: accounts.DefaultSessionCookieName)
	CookieName string

	// CookieSecure sets the Secure flag on cookies
	CookieSecure bool

	// SuccessRedirect is the default redirect after successful auth
	SuccessRedirect string

	// ErrorRedirect is the redirect for auth errors
	ErrorRedirect string
}

// HTTPController handles the begin and callback routes for external auth.
type HTTPController struct {
	authenticator *Authenticator
	sessions      *accounts.SessionManager
	logger        accounts.Logger
	config        HTTPConfig
}

// NewHTTPController creates the external auth HTTP controller.
func NewHTTPController(auth *Authenticator, sessions *accounts.SessionManager, cfg HTTPConfig) *HTTPController {
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/auth/external"
	}
	if cfg.CookieName == "" {
		cfg.CookieName = accounts.DefaultSessionCookieName
	}
	if cfg.SuccessRedirect == "" {
		cfg.SuccessRedirect = "/"
	}
	if cfg.ErrorRedirect == "" {
		cfg.ErrorRedirect = "/login?error=auth_failed"
	}

	return &HTTPController{
		authenticator: auth,
		sessions:      sessions,
		logger:        accounts.NewDefaultLogger(),
		config:        cfg,
	}
}

// WithLogger sets the logger.
func (c *HTTPController) WithLogger(logger accounts.Logger) *HTTPController {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// RegisterRoutes mounts the external auth routes under the path prefix.
func (c *HTTPController) RegisterRoutes(app fiber.Router) {
	group := app.Group(c.config.PathPrefix)
	group.Get("/providers", c.ListProviders)
	group.Get("/:provider/callback", c.Callback)
	group.Get("/:provider", c.BeginAuth)
}

// ListProviders returns the configured provider names.
func (c *HTTPController) ListProviders(ctx *fiber.Ctx) error {
	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"providers": c.authenticator.ListProviders(),
	})
}

// BeginAuth starts the OAuth flow. The intent query parameter records why
// the user started it; unknown values fall back to login.
func (c *HTTPController) BeginAuth(ctx *fiber.Ctx) error {
	providerName := ctx.Params("provider")

	redirectURL := ctx.Query("redirect_url")
	if redirectURL == "" {
		redirectURL = c.config.SuccessRedirect
	}

	intent := Intent(ctx.Query("intent"))
	if !intent.Valid() {
		intent = IntentLogin
	}

	authURL, err := c.authenticator.BeginAuth(providerName, intent, redirectURL)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.Redirect(authURL, http.StatusTemporaryRedirect)
}

// Callback handles the OAuth provider callback.
func (c *HTTPController) Callback(ctx *fiber.Ctx) error {
	providerName := ctx.Params("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if errCode := ctx.Query("error"); errCode != "" {
		redirectURL := appendQueryParam(c.config.ErrorRedirect, "oauth_error", errCode)
		if desc := ctx.Query("error_description"); desc != "" {
			redirectURL = appendQueryParam(redirectURL, "desc", desc)
		}
		return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
	}

	if code == "" || state == "" {
		redirectURL := appendQueryParam(c.config.ErrorRedirect, "error", "missing_params")
		return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
	}

	result, _, err := c.authenticator.CompleteAuth(ctx.UserContext(), providerName, code, state)
	if err != nil {
		return c.handleError(ctx, err)
	}

	session, err := c.sessions.Create(ctx.UserContext(), result.Identity.ID)
	if err != nil {
		return c.handleError(ctx, err)
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     c.config.CookieName,
		Value:    session.ID,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   c.config.CookieSecure,
		SameSite: "Lax",
	})

	redirectURL := c.authenticator.StateRedirect(state)
	if redirectURL == "" {
		redirectURL = c.config.SuccessRedirect
	}
	if result.IsNewAccount {
		redirectURL = appendQueryParam(redirectURL, "new_account", "true")
	}

	return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
}

func (c *HTTPController) handleError(ctx *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "external authentication error").
			WithCode(errors.CodeInternal)
	}

	c.logger.Warn("external auth failed",
		"text_code", richErr.TextCode,
		"path", ctx.OriginalURL(),
	)

	redirectURL := appendQueryParam(c.config.ErrorRedirect, "error", errorParam(richErr))
	return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
}

func errorParam(err *errors.Error) string {
	if err.TextCode != "" {
		return strings.ToLower(err.TextCode)
	}
	return "auth_failed"
}

func appendQueryParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
