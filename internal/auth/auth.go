// Package auth validates an inbound identity/capability context before any
// tool runs. It never issues or refreshes credentials.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avelencia/todo-chat/internal/apperrors"
	"github.com/avelencia/todo-chat/internal/models"
)

// Result is the composite outcome of identity, credential and permission
// checks. Any Valid=false means "do not invoke the tool".
type Result struct {
	Valid  bool
	UserID int64
	Err    error
}

// Gate performs the auth checks.
type Gate struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewGate(logger *zap.Logger) *Gate {
	return &Gate{
		logger: logger,
		now:    time.Now,
	}
}

// Authorize validates the caller's identity and credential for one
// action+resource pair.
func (g *Gate) Authorize(ac *models.AuthContext, action string, resourceID int64) Result {
	if ac == nil {
		return g.deny(action, "missing auth context")
	}
	if ac.UserID <= 0 {
		return g.deny(action, "missing or invalid user identifier")
	}

	if ac.Token != "" {
		if err := g.validateToken(ac.Token); err != nil {
			return Result{Valid: false, Err: err}
		}
	}

	if !g.permitted(ac.UserID, action, resourceID) {
		return g.deny(action, "not permitted")
	}

	return Result{Valid: true, UserID: ac.UserID}
}

// validateToken checks the bearer credential structurally (three dot-separated
// segments) and, when the payload decodes, its expiry claim. An undecodable
// payload degrades to "structurally valid, not further checked".
func (g *Gate) validateToken(token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return &apperrors.AuthError{Reason: "malformed credential"}
	}
	for _, part := range parts {
		if part == "" {
			return &apperrors.AuthError{Reason: "malformed credential"}
		}
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil
	}

	var claims struct {
		Exp float64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}
	if claims.Exp > 0 && int64(claims.Exp) < g.now().Unix() {
		return &apperrors.AuthError{Reason: "credential expired"}
	}
	return nil
}

func decodeSegment(seg string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(seg); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(seg)
}

// permitted is the resource-scoped policy seam. Ownership is enforced in the
// CRUD layer, so the stock policy allows every authenticated action; callers
// must still go through it so policies can tighten without changing them.
func (g *Gate) permitted(userID int64, action string, resourceID int64) bool {
	return true
}

func (g *Gate) deny(action, reason string) Result {
	g.logger.Warn("authorization denied",
		zap.String("action", action),
		zap.String("reason", reason))
	return Result{Valid: false, Err: &apperrors.AuthError{Reason: reason}}
}
