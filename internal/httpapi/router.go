package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidlawliet/whiteroom-mentor/internal/common"
	"github.com/sidlawliet/whiteroom-mentor/internal/httpapi/handlers"
	"github.com/sidlawliet/whiteroom-mentor/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/ping", h.Ping)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(h.Cfg.JWTSecret))

	authGroup.GET("/sessions", h.ListSessions)
	authGroup.POST("/sessions", h.StartSession)
	authGroup.PUT("/sessions/active", h.SwitchSession)
	authGroup.DELETE("/sessions/active", h.NewChat)
	authGroup.GET("/sessions/:session_id", h.GetSession)
	authGroup.POST("/sessions/:session_id/messages", h.SendMessage)
	authGroup.POST("/sessions/:session_id/messages/:message_id/reveal", h.RevealMessage)
	authGroup.GET("/activity", h.ListActivity)
	authGroup.POST("/signout", h.SignOut)
	return r
}
