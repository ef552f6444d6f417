package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bus-ticket-reservation/internal/logger"
	"github.com/iliyamo/bus-ticket-reservation/internal/service"
	"github.com/iliyamo/bus-ticket-reservation/internal/utils"
)

const (
	msgCredentialsRequired  = "username and password are required"
	msgCredentialsIncorrect = "username or password is incorrect"
)

// AdminHandler serves the fleet reset routes and the admin token exchange.
// JWTSecret may be empty, in which case Token refuses to issue tokens.
type AdminHandler struct {
	Reset       *service.Reset
	Cache       CachePurger
	JWTSecret   string
	TokenTTLMin int
	Timeout     time.Duration
}

// NewAdminHandler constructs an AdminHandler.  reset must be non-nil.
func NewAdminHandler(reset *service.Reset, cache CachePurger, jwtSecret string, tokenTTLMin int, timeout time.Duration) *AdminHandler {
	if reset == nil {
		panic("nil reset service passed to NewAdminHandler")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AdminHandler{Reset: reset, Cache: cache, JWTSecret: jwtSecret, TokenTTLMin: tokenTTLMin, Timeout: timeout}
}

type credentialRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// bindCredential reads the credential body.  It writes the 400 response
// itself and returns ok=false when the body is unusable.
func bindCredential(c echo.Context) (service.Credential, bool, error) {
	var req credentialRequest
	if err := c.Bind(&req); err != nil || c.Validate(&req) != nil {
		return service.Credential{}, false, respond(c, http.StatusBadRequest, msgCredentialsRequired, nil)
	}
	return service.Credential{Username: req.Username, Password: req.Password}, true, nil
}

// ResetWithCredential handles POST /api/tickets/reset.  A wrong credential
// answers 400 and changes nothing.
func (h *AdminHandler) ResetWithCredential(c echo.Context) error {
	cred, ok, err := bindCredential(c)
	if !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	report, err := h.Reset.ResetAll(ctx, cred)
	return h.resetResponse(ctx, c, report, err)
}

// ResetWithToken handles POST /api/admin/tickets/reset.  JWTAuth and
// RequireRole have authenticated the caller already.
func (h *AdminHandler) ResetWithToken(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	report, err := h.Reset.ReopenAll(ctx)
	return h.resetResponse(ctx, c, report, err)
}

func (h *AdminHandler) resetResponse(ctx context.Context, c echo.Context, report service.ResetReport, err error) error {
	if errors.Is(err, service.ErrForbidden) {
		return respond(c, http.StatusBadRequest, msgCredentialsIncorrect, nil)
	}
	if report.Reopened > 0 && h.Cache != nil {
		if perr := h.Cache.Purge(context.WithoutCancel(ctx)); perr != nil {
			logger.Warn("cache purge failed", zap.Error(perr))
		}
	}
	data := echo.Map{"reopened": report.Reopened, "failed": report.Failed}
	if err != nil {
		logger.Error("reset failed", zap.Int("reopened", report.Reopened), zap.Int("failed", report.Failed), zap.Error(err))
		return respond(c, http.StatusInternalServerError, msgInternal, data)
	}
	return respond(c, http.StatusOK, "Reset to open tickets successfully", data)
}

// Token handles POST /api/admin/token.  It exchanges the admin credential
// for a short-lived bearer token accepted by the admin routes.
func (h *AdminHandler) Token(c echo.Context) error {
	if h.JWTSecret == "" {
		return respond(c, http.StatusNotFound, "admin tokens are disabled", nil)
	}
	cred, ok, err := bindCredential(c)
	if !ok {
		return err
	}
	if err := h.Reset.Authenticate(cred); err != nil {
		logger.Warn("admin token rejected", zap.String("remote_ip", c.RealIP()))
		return respond(c, http.StatusBadRequest, msgCredentialsIncorrect, nil)
	}
	tok, err := utils.NewAdminToken(h.JWTSecret, cred.Username, h.TokenTTLMin)
	if err != nil {
		return respondError(c, err, msgCredentialsIncorrect)
	}
	return respond(c, http.StatusOK, "Token issued successfully", echo.Map{
		"token":   tok.Token,
		"expires": tok.Exp,
	})
}
