// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/cardtable/cardtable/internal/room"
)

// joinResponse tells a joining client where its room channel lives.
type joinResponse struct {
	RoomCode   string `json:"roomCode"`
	RoomName   string `json:"roomName"`
	Nickname   string `json:"nickname,omitempty"`
	MaxPlayers int    `json:"maxPlayers"`
	NumPlayers int    `json:"numPlayers"`
	WSPath     string `json:"wsPath"`
}

// LobbyHandler serves GET /?roomCode=&nickname=. A valid, non-full room code
// yields join info; anything else falls through to the discovery listing —
// a missing room is never an error page.
func LobbyHandler(logger *logrus.Logger, m *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		requested := r.URL.Query().Get("roomCode")
		nickname := r.URL.Query().Get("nickname")

		if requested != "" {
			sess := m.Lookup(requested)
			if sess != nil && sess.CurrentPlayers() < sess.MaxPlayers {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(joinResponse{
					RoomCode:   sess.Code,
					RoomName:   sess.Name,
					Nickname:   nickname,
					MaxPlayers: sess.MaxPlayers,
					NumPlayers: sess.CurrentPlayers(),
					WSPath:     "/room/ws/" + sess.Code,
				})
				return
			}
			logger.WithField("room", requested).Info("Requested room not joinable, serving directory")
		}

		// Discovery listing: refreshed from durable storage on every render.
		entries := m.ListActive(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"activeGameRooms": entries,
		})
	}
}

// HostGameHandler serves POST /host-a-game. It accepts an urlencoded form
// with nickname, maxPlayers, roomName and gameDesc, creates the room and
// redirects the host to its join URL.
func HostGameHandler(logger *logrus.Logger, m *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form payload", http.StatusBadRequest)
			return
		}

		nickname := r.PostFormValue("nickname")
		roomName := r.PostFormValue("roomName")
		gameDesc := r.PostFormValue("gameDesc")
		maxPlayers, err := strconv.Atoi(r.PostFormValue("maxPlayers"))
		if err != nil || maxPlayers <= 0 {
			http.Error(w, "maxPlayers must be a positive integer", http.StatusBadRequest)
			return
		}

		code, err := m.Create(maxPlayers, roomName, nickname, gameDesc)
		if err != nil {
			logger.Errorf("Room creation failed: %v", err)
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		query := url.Values{"roomCode": {code}}
		if nickname != "" {
			query.Set("nickname", nickname)
		}
		http.Redirect(w, r, "/?"+query.Encode(), http.StatusSeeOther)
	}
}
