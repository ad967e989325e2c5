package handlers

import (
	"context"
	"net/http"

	"github.com/serroba/shortlinks/internal/accounts"
	"go.uber.org/zap"
)

// AccountHandler exposes registration, tokens and the user profile.
type AccountHandler struct {
	accounts *accounts.Service
	logger   *zap.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(svc *accounts.Service, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: svc, logger: logger}
}

func (h *AccountHandler) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	user, err := h.accounts.Register(ctx, accounts.RegisterRequest{
		Username:        req.Body.Username,
		Password:        req.Body.Password,
		ConfirmPassword: req.Body.ConfirmPassword,
		FirstName:       req.Body.FirstName,
		LastName:        req.Body.LastName,
		Email:           req.Body.Email,
	})
	if err != nil {
		return nil, accountError(err)
	}

	h.logger.Info("user registered", zap.Int64("user_id", user.ID))

	resp := &RegisterResponse{Status: http.StatusCreated}
	resp.Body.Message = "Successfully Registered"
	resp.Body.User = newUserView(user)

	return resp, nil
}

// Token exchanges basic credentials for a bearer token.
func (h *AccountHandler) Token(ctx context.Context, _ *struct{}) (*TokenResponse, error) {
	p := PrincipalFromContext(ctx)
	if p.User == nil || p.ViaToken {
		return nil, Unauthorized("Invalid Credentials")
	}

	return h.issue(p.User, "Authentication successful")
}

// Refresh exchanges a valid bearer token for a new one.
func (h *AccountHandler) Refresh(ctx context.Context, _ *struct{}) (*TokenResponse, error) {
	p := PrincipalFromContext(ctx)
	if p.User == nil || !p.ViaToken {
		return nil, &ErrorBody{
			status:   http.StatusBadRequest,
			Category: "bad request",
			Message:  "Only token validation is acceptable",
		}
	}

	return h.issue(p.User, "Token refresh successful")
}

func (h *AccountHandler) issue(user *accounts.User, msg string) (*TokenResponse, error) {
	token, err := h.accounts.IssueToken(user)
	if err != nil {
		h.logger.Error("failed to sign token", zap.Int64("user_id", user.ID), zap.Error(err))

		return nil, accountError(err)
	}

	resp := &TokenResponse{}
	resp.Body.Message = msg
	resp.Body.Token = token

	return resp, nil
}

func (h *AccountHandler) TokenExpiration(ctx context.Context, req *TokenExpirationRequest) (*TokenExpirationResponse, error) {
	resp := &TokenExpirationResponse{}
	resp.Body.IsValid = h.accounts.TokenValid(ctx, req.Token)

	return resp, nil
}

func (h *AccountHandler) Profile(ctx context.Context, _ *struct{}) (*ProfileResponse, error) {
	p := PrincipalFromContext(ctx)
	if p.User == nil {
		return nil, forbidden()
	}

	return &ProfileResponse{Body: newUserView(p.User)}, nil
}
