// Package handler exposes the auth flows over HTTP (gin).
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookstore/backend/internal/autherr"
	identitydomain "bookstore/backend/internal/identity/domain"
	"bookstore/backend/internal/identity/service"
	otpdomain "bookstore/backend/internal/otp/domain"
	"bookstore/backend/internal/server/middleware"
	userdomain "bookstore/backend/internal/user/domain"
)

// AuthAPI is the orchestrator surface used by the handler. Implemented by *service.AuthService.
type AuthAPI interface {
	Register(ctx context.Context, email, password, fullName string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	ProviderLogin(ctx context.Context, provider, providerToken string) (*service.AuthResult, error)
	PhoneLogin(ctx context.Context, phone, code string) (*service.AuthResult, error)
	LinkProvider(ctx context.Context, userID, provider, providerToken string) (*identitydomain.Credential, error)
	LinkPhone(ctx context.Context, userID, phone, code string) (*identitydomain.Credential, error)
	UnlinkProvider(ctx context.Context, userID, provider string) error
	ListCredentials(ctx context.Context, userID string) ([]*identitydomain.Credential, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Me(ctx context.Context, userID string) (*userdomain.User, error)
}

// CodeIssuer issues phone codes. Implemented by *otp.Service.
type CodeIssuer interface {
	RequestCode(ctx context.Context, phone string) (*otpdomain.OneTimeCode, error)
}

// AuthHandler serves /auth routes.
type AuthHandler struct {
	auth  AuthAPI
	codes CodeIssuer
}

// NewAuthHandler returns a handler over auth and codes.
func NewAuthHandler(auth AuthAPI, codes CodeIssuer) *AuthHandler {
	return &AuthHandler{auth: auth, codes: codes}
}

type authResponse struct {
	UserID            string    `json:"user_id"`
	DisplayIdentifier string    `json:"display_identifier"`
	FullName          string    `json:"full_name,omitempty"`
	Role              string    `json:"role"`
	Token             string    `json:"token"`
	TokenType         string    `json:"token_type"`
	ExpiresAt         time.Time `json:"expires_at"`
}

func toAuthResponse(r *service.AuthResult) authResponse {
	return authResponse{
		UserID:            r.UserID,
		DisplayIdentifier: r.DisplayIdentifier,
		FullName:          r.FullName,
		Role:              string(r.Role),
		Token:             r.Token,
		TokenType:         "Bearer",
		ExpiresAt:         r.ExpiresAt,
	}
}

type credentialResponse struct {
	ID             string    `json:"id"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func toCredentialResponse(c *identitydomain.Credential) credentialResponse {
	return credentialResponse{
		ID:             c.ID,
		Provider:       string(c.Provider),
		ProviderUserID: c.ProviderUserID,
		CreatedAt:      c.CreatedAt,
	}
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

var errBadBody = autherr.Validation("invalid request body")

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errBadBody)
		return
	}
	res, err := h.auth.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAuthResponse(res))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errBadBody)
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAuthResponse(res))
}

// ProviderLogin handles POST /auth/providers/:provider/login.
func (h *AuthHandler) ProviderLogin(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errBadBody)
		return
	}
	res, err := h.auth.ProviderLogin(c.Request.Context(), c.Param("provider"), req.Token)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAuthResponse(res))
}

// RequestOTP handles POST /auth/otp/request. The code itself is never returned.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errBadBody)
		return
	}
	code, err := h.codes.RequestCode(c.Request.Context(), req.Phone)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"phone": code.Phone, "expires_at": code.ExpiredAt})
}

// VerifyOTP handles POST /auth/otp/verify: phone login.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errBadBody)
		return
	}
	res, err := h.auth.PhoneLogin(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAuthResponse(res))
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	u, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Phone:     u.Phone,
		FullName:  u.FullName,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	})
}

// ListCredentials handles GET /auth/credentials.
func (h *AuthHandler) ListCredentials(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	creds, err := h.auth.ListCredentials(c.Request.Context(), userID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	out := make([]credentialResponse, 0, len(creds))
	for _, cr := range creds {
		out = append(out, toCredentialResponse(cr))
	}
	c.JSON(http.StatusOK, gin.H{"credentials": out})
}

// LinkCredential handles POST /auth/credentials/:provider. Phone links take {phone, code};
// external providers take {token}.
func (h *AuthHandler) LinkCredential(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Token string `json:"token"`
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errBadBody)
		return
	}
	var (
		cred *identitydomain.Credential
		err  error
	)
	p, known := identitydomain.ParseProvider(c.Param("provider"))
	switch {
	case known && p == identitydomain.ProviderPhone:
		cred, err = h.auth.LinkPhone(c.Request.Context(), userID, req.Phone, req.Code)
	case known && p == identitydomain.ProviderLocal:
		err = autherr.ErrUnsupportedProvider
	default:
		cred, err = h.auth.LinkProvider(c.Request.Context(), userID, c.Param("provider"), req.Token)
	}
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCredentialResponse(cred))
}

// UnlinkCredential handles DELETE /auth/credentials/:provider.
func (h *AuthHandler) UnlinkCredential(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.auth.UnlinkProvider(c.Request.Context(), userID, c.Param("provider")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangePassword handles PUT /auth/password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errBadBody)
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c.Request.Context())
	if !ok {
		middleware.AbortWithError(c, autherr.ErrNoTokenPresent)
	}
	return userID, ok
}
