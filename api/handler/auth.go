package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskhub/api/transport"
	"github.com/fastygo/taskhub/domain"
	authUC "github.com/fastygo/taskhub/usecase/auth"
)

const (
	msgRegistered = "User registered successfully. Check your email for OTP."
	msgLoggedIn   = "Login successful"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, common Common) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(common),
		uc:          uc,
	}
}

// @Summary Register a local account
// @Tags user
// @Router /api/v1/user/register/ [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	res, err := h.uc.Register(stdCtx, authUC.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusCreated, transport.NewAuthView(res.User, res.Tokens, h.urls(ctx), h.now()), msgRegistered)
}

// @Summary Log in with e-mail or username
// @Tags user
// @Router /api/v1/user/login/ [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.Login(stdCtx, req.EmailOrUsername, req.Password)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondAuth(ctx, res, false)
}

// @Summary Activate an account with its OTP
// @Tags user
// @Router /api/v1/user/activate/ [post]
func (h *AuthHandler) Activate(ctx *fasthttp.RequestCtx) {
	var req transport.ActivateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	err := h.uc.Activate(stdCtx, req.Email, req.OTP)
	switch {
	case errors.Is(err, domain.ErrInvalidOTP):
		h.respond(ctx, http.StatusBadRequest, map[string]string{"error": domain.ErrInvalidOTP.Message}, domain.ErrInvalidOTP.Message)
	case err != nil:
		h.respondError(ctx, stdCtx, err)
	default:
		h.respond(ctx, http.StatusOK, nil, "Account activated successfully")
	}
}

// @Summary Change the password of the caller
// @Tags user
// @Router /api/v1/user/change_password/ [post]
func (h *AuthHandler) ChangePassword(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}

	var req transport.ChangePasswordRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		vErr, _ := domain.AsValidationError(err)
		h.respond(ctx, http.StatusBadRequest, vErr.Fields(), "Password change failed")
		return
	}

	if err := h.uc.ChangePassword(stdCtx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, nil, "Password changed successfully")
}

// @Summary Mail a password reset code
// @Tags user
// @Router /api/v1/user/forget-password/ [post]
func (h *AuthHandler) ForgotPassword(ctx *fasthttp.RequestCtx) {
	h.emailFlow(ctx, h.uc.ForgotPassword, "Password reset email has been sent.")
}

// @Summary Mail a new activation code
// @Tags user
// @Router /api/v1/user/resend_code/ [post]
func (h *AuthHandler) ResendCode(ctx *fasthttp.RequestCtx) {
	h.emailFlow(ctx, h.uc.ResendCode, "code has been sent successfully")
}

// @Summary Reset the password with a mailed code
// @Tags user
// @Router /api/v1/user/reset_password/ [post]
func (h *AuthHandler) ResetPassword(ctx *fasthttp.RequestCtx) {
	var req transport.ResetPasswordRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	if err := h.uc.ResetPassword(stdCtx, req.Email, req.OTP, req.NewPassword); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, nil, "password changed successfully")
}

// @Summary Log in or register from a social provider payload
// @Tags user
// @Router /api/v1/user/social_login/ [post]
func (h *AuthHandler) SocialLogin(ctx *fasthttp.RequestCtx) {
	var req transport.SocialLoginRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		vErr, _ := domain.AsValidationError(err)
		h.respond(ctx, http.StatusBadRequest, vErr.Fields(), "Invalid data")
		return
	}

	res, err := h.uc.SocialLogin(stdCtx, authUC.SocialInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Source:    req.Source,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondAuth(ctx, res, res.Created)
}

// @Summary Exchange a refresh token for an access token
// @Tags user
// @Router /api/v1/user/refresh/ [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	var req transport.RefreshRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	access, err := h.uc.Refresh(stdCtx, req.Refresh)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, map[string]string{"access": access}, "")
}

// @Summary Revoke a refresh token
// @Tags user
// @Router /api/v1/user/logout/ [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}

	var req transport.RefreshRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	if err := h.uc.Logout(stdCtx, userID, req.Refresh); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusResetContent, nil, "logged out successfully")
}

func (h *AuthHandler) emailFlow(ctx *fasthttp.RequestCtx, run func(context.Context, string) error, success string) {
	var req transport.EmailRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	if err := run(stdCtx, req.Email); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, nil, success)
}

// respondAuth answers 403 for inactive accounts, still handing out the tokens.
func (h *AuthHandler) respondAuth(ctx *fasthttp.RequestCtx, res *authUC.Result, created bool) {
	view := transport.NewAuthView(res.User, res.Tokens, h.urls(ctx), h.now())
	switch {
	case created:
		h.respond(ctx, http.StatusCreated, view, msgRegistered)
	case !res.User.IsActive:
		h.respond(ctx, http.StatusForbidden, view, domain.ErrAccountInactive.Message)
	default:
		h.respond(ctx, http.StatusOK, view, msgLoggedIn)
	}
}
