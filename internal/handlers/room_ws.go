// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/cardtable/cardtable/internal/middleware"
	"github.com/cardtable/cardtable/internal/room"
)

// RoomMessage is the envelope for inbound messages on a room channel.
// Unknown object and seat ids are dropped without any signal back to the
// sender; the next snapshot is the only acknowledgement a client gets.
type RoomMessage struct {
	Type string `json:"type"`

	// Object commands.
	ObjectID int     `json:"objectId,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	IsFaceUp bool    `json:"isFaceUp,omitempty"`

	// Seat claims. The client echoes the slot's layout fields; only the id,
	// socket and display name matter server-side.
	Socket        string  `json:"socket,omitempty"`
	ID            string  `json:"id,omitempty"`
	Name          string  `json:"name,omitempty"`
	Available     bool    `json:"available,omitempty"`
	PlayerSpacing float64 `json:"playerSpacing,omitempty"`

	// Chat.
	Msg string `json:"msg,omitempty"`
}

// RoomWSHandler upgrades the connection onto a room's isolated channel at
// /room/ws/{roomCode}. It gates on room existence and capacity, assigns the
// guest identity, registers the participant and runs the read loop until the
// connection drops.
func RoomWSHandler(logger *logrus.Logger, m *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/room/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "missing room code in path (/room/ws/{roomCode})", http.StatusBadRequest)
			return
		}
		code := pathParts[0]

		sess := m.Lookup(code)
		if sess == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if sess.CurrentPlayers() >= sess.MaxPlayers {
			http.Error(w, "room is full", http.StatusConflict)
			return
		}

		socketID, err := EnsureGuestSocket(w, r)
		if err != nil {
			logger.Warnf("Guest identity failed for room %s: %v", code, err)
			http.Error(w, "failed to establish session", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"tabletop"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for room %s: %v", code, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "tabletop" {
			c.Close(websocket.StatusPolicyViolation, "client must speak the tabletop subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		nickname := r.URL.Query().Get("nickname")
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		p := &room.Participant{
			SocketID: socketID,
			Nickname: nickname,
			Cancel:   cancel,
			OutChan:  make(chan interface{}, 16),
		}

		// AddParticipant re-checks capacity under the session lock; two
		// racing joiners cannot both take the last slot.
		if err := sess.AddParticipant(p); err != nil {
			logger.WithField("room", code).Infof("Join rejected: %v", err)
			c.Close(websocket.StatusTryAgainLater, "room is full")
			return
		}
		m.NotifyPlayerCount(code, sess.CurrentPlayers())

		go writePump(ctx, c, p, logger)

		readPump(ctx, c, sess, p, logger)

		sess.RemoveParticipant(socketID)
		m.NotifyPlayerCount(code, sess.CurrentPlayers())
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
	}
}

// readPump reads and routes inbound messages until the connection closes or
// the context is cancelled. Malformed payloads are logged and skipped; the
// engine itself silently ignores unknown ids.
func readPump(ctx context.Context, c *websocket.Conn, sess *room.Session, p *room.Participant, logger *logrus.Logger) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for socket %s in room %s", p.SocketID, sess.Code)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for socket %s in room %s", p.SocketID, sess.Code)
			} else {
				logger.Warnf("Read error for socket %s in room %s: %v", p.SocketID, sess.Code, err)
			}
			return
		}

		if typ != websocket.MessageText {
			logger.Warnf("Non-text message type %d from socket %s in room %s, ignoring", typ, p.SocketID, sess.Code)
			continue
		}

		var msg RoomMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON from socket %s in room %s: %v", p.SocketID, sess.Code, err)
			continue
		}

		switch msg.Type {
		case "objectInput":
			sess.Engine.ApplyMove(msg.ObjectID, msg.X, msg.Y)
		case "objectDepth":
			sess.Engine.ApplyRaise(msg.ObjectID)
		case "objectFlip":
			sess.Engine.ApplyFlip(msg.ObjectID, msg.IsFaceUp)
		case "seatSelected":
			// Rejection is silent: the loser of a seat race learns from the
			// next seatAssignments broadcast, which fires on any change.
			sess.Seats.Claim(msg.ID, p.SocketID.String(), msg.Name)
		case "chat message":
			if msg.Msg != "" {
				sess.RelayChat(msg.Msg)
			}
		default:
			logger.Debugf("Unknown message type '%s' from socket %s in room %s", msg.Type, p.SocketID, sess.Code)
		}
	}
}

// writePump drains the participant's OutChan onto the wire and sends
// periodic pings. It exits when the channel closes or the context ends;
// readPump detects the closure and cleans up.
func writePump(ctx context.Context, c *websocket.Conn, p *room.Participant, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-p.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("Failed to marshal outgoing message for socket %s: %v", p.SocketID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to socket %s: %v", p.SocketID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Ping failed for socket %s: %v, assuming disconnect", p.SocketID, err)
				return
			}
		}
	}
}
