package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-reservation/hub"
	"github.com/yeremiapane/table-reservation/middlewares"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
)

const pongWait = 60 * time.Second

type FeedController struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewFeedController accepts upgrades from allowedOrigin only; "*" accepts any.
func NewFeedController(h *hub.Hub, allowedOrigin string) *FeedController {
	return &FeedController{
		Hub: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// BookingFeed -> websocket stream of booking events for admins
func (fc *FeedController) BookingFeed(c *gin.Context) {
	p, ok := middlewares.CurrentPrincipal(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if !p.IsAdmin() {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := fc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	fc.Hub.Register(ws, models.RoleAdmin)
	defer fc.Hub.Unregister(ws)

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Drain client messages until the connection drops.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}
