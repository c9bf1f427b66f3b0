package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/signet"
	"github.com/layer-3/signet/core"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	client       signet.Client
	logger       *slog.Logger
	secureCookie bool
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(client signet.Client, secureCookie bool, logger *slog.Logger) *AuthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{
		client:       client,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// LoginRequest is the credentials form posted by the sign-in page
type LoginRequest struct {
	Address   string `json:"address" binding:"required"`
	Message   string `json:"message" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	CSRFToken string `json:"csrfToken" binding:"required"`
	Name      string `json:"name"`
}

// SessionResponse is the JSON form of a session view
type SessionResponse struct {
	Address          string    `json:"address"`
	NetworkAddress   string    `json:"networkAddress"`
	Name             string    `json:"name,omitempty"`
	FreeBalance      string    `json:"freeBalance"`
	FormattedBalance string    `json:"formattedBalance"`
	Expires          time.Time `json:"expires"`
}

// CSRF issues a nonce for the client to embed in its challenge
func (h *AuthHandlers) CSRF(c *gin.Context) {
	nonce, err := h.client.Nonce(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to issue nonce", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create nonce"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"csrfToken": nonce})
}

// Login handles the login request
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	ctx := c.Request.Context()

	token, session, err := h.client.Login(ctx, core.AuthenticationRequest{
		ClaimedAddress: req.Address,
		RawMessage:     req.Message,
		Signature:      req.Signature,
		ExpectedNonce:  req.CSRFToken,
		DisplayName:    req.Name,
	})
	if err != nil {
		h.logger.DebugContext(ctx, "login rejected", "address", req.Address, "reason", core.Kind(err), "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": core.Opaque(err).Error()})
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", h.secureCookie, true)

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"expires": session.ExpiresAt,
	})
}

// Session returns the current session view
func (h *AuthHandlers) Session(c *gin.Context) {
	view, ok := SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session not found in context"})
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Address:          view.DisplayAddress,
		NetworkAddress:   view.NetworkAddress,
		Name:             view.DisplayName,
		FreeBalance:      view.Balance.String(),
		FormattedBalance: view.FormattedBalance,
		Expires:          view.ExpiresAt,
	})
}

// SignOut clears the session cookie. Issued tokens stay valid until expiry.
func (h *AuthHandlers) SignOut(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Me returns the addresses of the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	view, ok := SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":        view.DisplayAddress,
		"networkAddress": view.NetworkAddress,
	})
}
