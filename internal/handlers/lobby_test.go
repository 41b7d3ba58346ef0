// internal/handlers/lobby_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtable/cardtable/internal/models"
	"github.com/cardtable/cardtable/internal/room"
)

func newTestManager(t *testing.T) (*room.Manager, *logrus.Logger) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	m, err := room.NewManager(nil, nil, time.Hour, 10*time.Millisecond, logger)
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	return m, logger
}

// TestHostAGame checks that POST /host-a-game creates a room and redirects
// the host to its join URL.
func TestHostAGame(t *testing.T) {
	m, logger := newTestManager(t)

	form := url.Values{
		"nickname":   {"Ada"},
		"maxPlayers": {"4"},
		"roomName":   {"Ada's table"},
		"gameDesc":   {"freestyle"},
	}
	req := httptest.NewRequest("POST", "/host-a-game", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	HostGameHandler(logger, m).ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code, "body: %s", w.Body.String())

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	code := loc.Query().Get("roomCode")
	require.NotEmpty(t, code)
	assert.Equal(t, "Ada", loc.Query().Get("nickname"))

	sess := m.Lookup(code)
	require.NotNil(t, sess)
	assert.Equal(t, "Ada's table", sess.Name)
	assert.Equal(t, 4, sess.MaxPlayers)
}

func TestHostAGameRejectsBadForm(t *testing.T) {
	m, logger := newTestManager(t)

	form := url.Values{"nickname": {"Ada"}, "maxPlayers": {"zero"}}
	req := httptest.NewRequest("POST", "/host-a-game", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	HostGameHandler(logger, m).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest("GET", "/host-a-game", nil)
	w = httptest.NewRecorder()
	HostGameHandler(logger, m).ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// TestJoinExistingRoom checks that GET /?roomCode= returns join info for a
// live, non-full room.
func TestJoinExistingRoom(t *testing.T) {
	m, logger := newTestManager(t)

	code, err := m.Create(4, "Test", "Admin", "desc")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/?roomCode="+code+"&nickname=Ada", nil)
	w := httptest.NewRecorder()
	LobbyHandler(logger, m).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp joinResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, code, resp.RoomCode)
	assert.Equal(t, "Ada", resp.Nickname)
	assert.Equal(t, "/room/ws/"+code, resp.WSPath)
	assert.Equal(t, 4, resp.MaxPlayers)
}

// TestUnknownRoomFallsThroughToDirectory checks that a bad room code serves
// the discovery listing rather than an error page.
func TestUnknownRoomFallsThroughToDirectory(t *testing.T) {
	m, logger := newTestManager(t)

	code, err := m.Create(4, "Test", "Admin", "desc")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/?roomCode=nosuchroom", nil)
	w := httptest.NewRecorder()
	LobbyHandler(logger, m).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ActiveGameRooms []models.RoomDirectoryEntry `json:"activeGameRooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.ActiveGameRooms, 1)
	assert.Equal(t, code, resp.ActiveGameRooms[0].RoomCode)
	assert.Equal(t, 0, resp.ActiveGameRooms[0].NumPlayers)
	assert.Equal(t, 4, resp.ActiveGameRooms[0].MaxPlayers)
}

// TestDirectoryListing checks the plain discovery render with no room code.
func TestDirectoryListing(t *testing.T) {
	m, logger := newTestManager(t)

	_, err := m.Create(4, "One", "A", "")
	require.NoError(t, err)
	_, err = m.Create(6, "Two", "B", "")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	LobbyHandler(logger, m).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ActiveGameRooms []models.RoomDirectoryEntry `json:"activeGameRooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.ActiveGameRooms, 2)
}

// TestFullRoomFallsThroughToDirectory checks the capacity gate on join.
func TestFullRoomFallsThroughToDirectory(t *testing.T) {
	m, logger := newTestManager(t)

	code, err := m.Create(1, "Tiny", "A", "")
	require.NoError(t, err)
	sess := m.Lookup(code)
	require.NoError(t, sess.AddParticipant(&room.Participant{OutChan: make(chan interface{}, 16)}))

	req := httptest.NewRequest("GET", "/?roomCode="+code, nil)
	w := httptest.NewRecorder()
	LobbyHandler(logger, m).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "activeGameRooms")
	assert.NotContains(t, w.Body.String(), "wsPath")
}
