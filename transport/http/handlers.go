package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/service"
)

// DefaultTokenContract is the contract used by /transfer when none is given
const DefaultTokenContract = "arisen.token"

// AuthHandlers contains HTTP handlers for the authenticator lifecycle
type AuthHandlers struct {
	auth *service.Authenticator
}

// NewAuthHandlers creates new authenticator handlers
func NewAuthHandlers(auth *service.Authenticator) *AuthHandlers {
	return &AuthHandlers{
		auth: auth,
	}
}

type sessionView struct {
	ID          string `json:"id"`
	ChainID     string `json:"chain_id"`
	AccountName string `json:"account_name"`
}

func sessionViews(sessions []*service.Session) []sessionView {
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{
			ID:          s.ID(),
			ChainID:     s.ChainID(),
			AccountName: s.AccountName(),
		})
	}
	return views
}

// Status reports the authenticator state
func (h *AuthHandlers) Status(c *gin.Context) {
	var errMsg string
	if err := h.auth.Err(); err != nil {
		errMsg = err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"name":                          h.auth.Profile().Name,
		"loading":                       h.auth.IsLoading(),
		"errored":                       h.auth.IsErrored(),
		"error":                         errMsg,
		"should_render":                 h.auth.ShouldRender(),
		"style":                         h.auth.Style(),
		"onboarding_link":               h.auth.OnboardingLink(),
		"requires_get_key_confirmation": h.auth.RequiresGetKeyConfirmation(),
		"sessions":                      sessionViews(h.auth.Users()),
	})
}

// Init runs detection and waits for the outcome
func (h *AuthHandlers) Init(c *gin.Context) {
	h.auth.Init(c.Request.Context())

	if err := h.auth.Err(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true})
}

// Reset restarts detection in the background
func (h *AuthHandlers) Reset(c *gin.Context) {
	h.auth.Reset(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{"loading": h.auth.IsLoading()})
}

// Login logs the account in on every configured chain
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		AccountName string `json:"account_name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sessions, err := h.auth.Login(c.Request.Context(), req.AccountName)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessionViews(sessions)})
}

// Logout tears down every session
func (h *AuthHandlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Sign signs a caller-built transaction on the session for chain_id
func (h *AuthHandlers) Sign(c *gin.Context) {
	var req struct {
		ChainID     string              `json:"chain_id" binding:"required"`
		Transaction core.Transaction    `json:"transaction"`
		Config      core.TransactConfig `json:"config"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if len(req.Transaction.Actions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Transaction has no actions"})
		return
	}

	h.sign(c, req.ChainID, req.Transaction, req.Config)
}

// Transfer builds a token transfer from the session account and signs it
func (h *AuthHandlers) Transfer(c *gin.Context) {
	var req struct {
		ChainID  string              `json:"chain_id" binding:"required"`
		To       string              `json:"to" binding:"required"`
		Quantity string              `json:"quantity" binding:"required"`
		Memo     string              `json:"memo"`
		Contract string              `json:"contract"`
		Config   core.TransactConfig `json:"config"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	quantity, err := core.ParseAsset(req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
		return
	}

	session, err := h.auth.Session(req.ChainID)
	if err != nil {
		writeError(c, err)
		return
	}

	contract := req.Contract
	if contract == "" {
		contract = DefaultTokenContract
	}

	action, err := core.NewTransferAction(contract, session.AccountName(), req.To, quantity, req.Memo)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transfer"})
		return
	}

	h.sign(c, req.ChainID, core.Transaction{Actions: []core.Action{action}}, req.Config)
}

func (h *AuthHandlers) sign(c *gin.Context, chainID string, tx core.Transaction, config core.TransactConfig) {
	session, err := h.auth.Session(chainID)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := session.SignTransaction(c.Request.Context(), tx, config)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeError maps an error to a status code by its kind
func writeError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	statusCode := http.StatusInternalServerError
	kind, _ := core.KindOf(err)

	switch kind {
	case core.KindInitialization:
		statusCode = http.StatusServiceUnavailable
	case core.KindLogin:
		statusCode = http.StatusUnauthorized
	case core.KindLogout:
		statusCode = http.StatusInternalServerError
	case core.KindSigning:
		statusCode = http.StatusBadGateway
	}

	c.JSON(statusCode, gin.H{"error": err.Error(), "kind": kind})
}
