package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sidlawliet/whiteroom-mentor/internal/chat"
	"github.com/sidlawliet/whiteroom-mentor/internal/common"
	"github.com/sidlawliet/whiteroom-mentor/internal/httpapi/middleware"
)

func (h *Handler) ListSessions(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	common.OK(c, ctl.Snapshot())
}

type startSessionReq struct {
	Difficulty string `json:"difficulty" binding:"required"`
}

func (h *Handler) StartSession(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}

	var req startSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	d, err := chat.ParseDifficulty(req.Difficulty)
	if err != nil {
		failChat(c, err)
		return
	}

	sess, err := ctl.Start(c.Request.Context(), d)
	if err != nil {
		failChat(c, err)
		return
	}
	common.OK(c, gin.H{
		"session": sess,
		"focus":   ctl.Focus(),
	})
}

func (h *Handler) GetSession(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	sess, found := ctl.Session(c.Param("session_id"))
	if !found {
		failChat(c, chat.ErrSessionNotFound)
		return
	}
	common.OK(c, gin.H{"session": sess})
}

type switchReq struct {
	SessionID string `json:"session_id" binding:"required"`
}

func (h *Handler) SwitchSession(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}

	var req switchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := ctl.SwitchTo(c.Request.Context(), req.SessionID); err != nil {
		failChat(c, err)
		return
	}

	// an unknown id lands on "no active session", which is not an error
	active, found := ctl.Active()
	if !found {
		common.OK(c, gin.H{"session": nil, "focus": ""})
		return
	}
	common.OK(c, gin.H{"session": active, "focus": ctl.Focus()})
}

func (h *Handler) NewChat(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctl.NewChat(c.Request.Context()); err != nil {
		failChat(c, err)
		return
	}
	common.OK(c, nil)
}

type sendMessageReq struct {
	Message string `json:"message"`
	Image   string `json:"image"` // data URI
}

func (h *Handler) SendMessage(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	sessionID := c.Param("session_id")
	turn, err := ctl.Send(c.Request.Context(), sessionID, req.Message, req.Image)
	if err != nil {
		failChat(c, err)
		return
	}

	resp := gin.H{
		"session_id": turn.SessionID,
		"user":       turn.User,
		"reply":      turn.Reply,
		"focus":      ctl.Focus(),
	}
	if turn.Err != nil {
		resp["error"] = gin.H{
			"kind":    turn.Err.Kind,
			"message": turn.Err.Error(),
		}
	}
	common.OK(c, resp)
}

func (h *Handler) RevealMessage(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctl.CompleteReveal(c.Request.Context(), c.Param("session_id"), c.Param("message_id")); err != nil {
		failChat(c, err)
		return
	}
	common.OK(c, nil)
}

func (h *Handler) ListActivity(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	if h.Activity == nil {
		common.Fail(c, http.StatusNotFound, 40403, "activity log disabled")
		return
	}

	ctx := c.Request.Context()
	if sid := c.Query("session_id"); sid != "" {
		events, err := h.Activity.ListBySession(ctx, identity, sid)
		if err != nil {
			failChat(c, err)
			return
		}
		common.OK(c, gin.H{"events": events})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	events, err := h.Activity.ListRecent(ctx, identity, limit)
	if err != nil {
		failChat(c, err)
		return
	}
	counts, err := h.Activity.CountByType(ctx, identity)
	if err != nil {
		failChat(c, err)
		return
	}
	common.OK(c, gin.H{"events": events, "counts": counts})
}
