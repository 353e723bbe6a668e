package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidlawliet/whiteroom-mentor/internal/chat"
	"github.com/sidlawliet/whiteroom-mentor/internal/common"
	"github.com/sidlawliet/whiteroom-mentor/internal/observability"
)

// failChat maps controller errors onto the response envelope.
func failChat(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrInvalidDifficulty):
		common.Fail(c, http.StatusBadRequest, 10002, "invalid difficulty")
	case errors.Is(err, chat.ErrEmptyInput):
		common.Fail(c, http.StatusBadRequest, 10003, "message or image required")
	case errors.Is(err, chat.ErrSessionNotFound):
		common.Fail(c, http.StatusNotFound, 40401, "session not found")
	case errors.Is(err, chat.ErrMessageNotFound):
		common.Fail(c, http.StatusNotFound, 40402, "message not found")
	case errors.Is(err, chat.ErrSendInProgress):
		common.Fail(c, http.StatusConflict, 40901, "a reply is already pending for this session")
	case errors.Is(err, chat.ErrNoIdentity), errors.Is(err, chat.ErrIdentityChanged):
		common.Fail(c, http.StatusUnauthorized, 40104, "signed out")
	case errors.Is(err, chat.ErrRegistryUnavailable):
		observability.LoggerFromContext(c.Request.Context()).Warn("session registry unavailable", "error", err)
		common.Fail(c, http.StatusServiceUnavailable, 50301, "sessions temporarily unavailable")
	default:
		observability.LoggerFromContext(c.Request.Context()).Error("chat request failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
