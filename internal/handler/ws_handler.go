package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/jeeprep/jee-prep-api/internal/handler/dto"
	"github.com/jeeprep/jee-prep-api/internal/handler/helper"
	"github.com/jeeprep/jee-prep-api/internal/websocket"
	"github.com/jeeprep/jee-prep-api/pkg/auth"
)

// MessageSessionState asks for the current view of one of the caller's tests.
const MessageSessionState = "session:state"

// TicketParser validates websocket tickets. Implemented by auth.JWTService.
type TicketParser interface {
	ParseWSTicket(ctx context.Context, ticket string) (*auth.JWTCustomClaims, error)
}

// WSHandler upgrades connections for the live session feed.
type WSHandler struct {
	wsHub     *websocket.Hub
	wsManager *websocket.Manager
	sessions  SessionService
	tickets   TicketParser
	upgrader  gorillaws.Upgrader
}

// NewWSHandler creates the handler. Browser connections are accepted only from
// allowedOrigins; requests without an Origin header (native clients) are
// always accepted.
func NewWSHandler(
	wsHub *websocket.Hub,
	wsManager *websocket.Manager,
	sessions SessionService,
	tickets TicketParser,
	allowedOrigins []string,
) *WSHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	h := &WSHandler{
		wsHub:     wsHub,
		wsManager: wsManager,
		sessions:  sessions,
		tickets:   tickets,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := origins[origin]; ok {
					return true
				}
				log.Printf("[WSHandler] Rejected origin: %s", origin)
				return false
			},
		},
	}
	h.registerMessageHandlers()
	return h
}

// HandleConnection GET /ws?ticket=
func (h *WSHandler) HandleConnection(c *gin.Context) {
	ticket := c.Query("ticket")
	if ticket == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication ticket parameter"})
		return
	}

	claims, err := h.tickets.ParseWSTicket(c.Request.Context(), ticket)
	if err != nil {
		log.Printf("[WSHandler] Invalid or expired ticket: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired ticket"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the error response
		log.Printf("[WSHandler] Upgrade failed for user #%d: %v", claims.UserID, err)
		return
	}

	client := websocket.NewClient(h.wsHub, conn, helper.UserIDString(claims.UserID))
	client.StartPumps(h.wsManager.HandleMessage)
	h.wsManager.SendToClient(client, websocket.MessageConnected, gin.H{"userId": claims.UserID})
}

func (h *WSHandler) registerMessageHandlers() {
	h.wsManager.RegisterHandler(MessageSessionState, func(data json.RawMessage, client *websocket.Client) error {
		var req struct {
			AttemptID string `json:"attemptId"`
		}
		if err := json.Unmarshal(data, &req); err != nil || req.AttemptID == "" {
			h.wsManager.SendErrorToClient(client, "invalid_format", "attemptId is required")
			return nil
		}

		userID, err := strconv.ParseUint(client.UserID, 10, 32)
		if err != nil {
			return err
		}

		view, err := h.sessions.Get(uint(userID), req.AttemptID)
		if err != nil {
			h.wsManager.SendErrorToClient(client, "session_not_found", err.Error())
			return nil
		}
		h.wsManager.SendToClient(client, MessageSessionState, dto.NewSessionResponse(view))
		return nil
	})
}
