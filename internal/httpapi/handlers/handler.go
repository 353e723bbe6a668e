package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidlawliet/whiteroom-mentor/internal/activity"
	"github.com/sidlawliet/whiteroom-mentor/internal/chat"
	"github.com/sidlawliet/whiteroom-mentor/internal/common"
	"github.com/sidlawliet/whiteroom-mentor/internal/config"
	"github.com/sidlawliet/whiteroom-mentor/internal/httpapi/middleware"
)

type Handler struct {
	Cfg      config.Config
	Hub      *chat.Hub
	Activity *activity.Repo // nil when the activity log is disabled
}

func NewHandler(cfg config.Config, hub *chat.Hub, act *activity.Repo) *Handler {
	return &Handler{Cfg: cfg, Hub: hub, Activity: act}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

// controller resolves the caller's controller, writing the failure response
// itself when it cannot.
func (h *Handler) controller(c *gin.Context) (*chat.Controller, bool) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return nil, false
	}
	ctl, err := h.Hub.For(c.Request.Context(), identity)
	if err != nil {
		failChat(c, err)
		return nil, false
	}
	return ctl, true
}

func (h *Handler) SignOut(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	h.Hub.SignOut(identity)
	common.OK(c, nil)
}
