package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/voicerelay/internal/app"
	"github.com/driftline/voicerelay/internal/config"
	"github.com/driftline/voicerelay/internal/core"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := &config.Config{Mode: "release", StaticPath: t.TempDir(), DefaultRoom: "default_room"}
	engine := app.NewEngine(core.NewRoomRegistry(), core.NewSessionDirectory(), core.NewMailboxStore(), "default_room")
	return SetupRouter(cfg, engine)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func joinRoom(t *testing.T, r *gin.Engine, roomID string) JoinResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/join_room",
		gin.H{"room_id": roomID, "metadata": gin.H{"name": "tester"}})
	require.Equal(t, http.StatusOK, w.Code)
	var resp JoinResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp
}

func TestJoinRoomReturnsSessionAndRoom(t *testing.T) {
	r := newTestRouter(t)
	resp := joinRoom(t, r, "room1")
	assert.True(t, resp.Success)
	assert.Equal(t, "room1", resp.RoomID)
}

func TestJoinRoomDefaultsRoomID(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/join_room", gin.H{"metadata": gin.H{}})
	require.Equal(t, http.StatusOK, w.Code)
	var resp JoinResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "default_room", resp.RoomID)
}

func TestJoinRoomRejectsMalformedBody(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/join_room", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignalRequiresSessionAndType(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/signal", gin.H{"type": "offer"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/signal", gin.H{"session_id": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignalUnknownSessionIs404(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/signal",
		gin.H{"session_id": "ghost", "type": "offer", "payload": gin.H{"sdp": "v=0"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "session not found")
}

func TestSignalReachesPeerMailbox(t *testing.T) {
	r := newTestRouter(t)
	a := joinRoom(t, r, "room1")
	b := joinRoom(t, r, "room1")

	w := doJSON(t, r, http.MethodPost, "/api/signal",
		gin.H{"session_id": a.SessionID, "type": "offer", "payload": gin.H{"sdp": "v=0"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/poll?session_id="+b.SessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var poll struct {
		Events []struct {
			Kind string          `json:"type"`
			Data json.RawMessage `json:"data"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &poll))
	// B sees its join snapshot followed by A's offer.
	require.Len(t, poll.Events, 2)
	assert.Equal(t, "room_snapshot", poll.Events[0].Kind)
	assert.Equal(t, "offer", poll.Events[1].Kind)
	assert.Contains(t, string(poll.Events[1].Data), a.SessionID)
}

func TestPollRequiresSessionIDParam(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/poll", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPollUnknownSessionIsEmpty200(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/poll?session_id=ghost", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp PollResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Events)
}

func TestLeaveRoomAlwaysSucceeds(t *testing.T) {
	r := newTestRouter(t)
	a := joinRoom(t, r, "room1")

	w := doJSON(t, r, http.MethodPost, "/api/leave_room", gin.H{"session_id": a.SessionID})
	assert.Equal(t, http.StatusOK, w.Code)

	// Leaving again is still fine.
	w = doJSON(t, r, http.MethodPost, "/api/leave_room", gin.H{"session_id": a.SessionID})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthReportsCounts(t *testing.T) {
	r := newTestRouter(t)
	joinRoom(t, r, "room1")
	joinRoom(t, r, "room2")

	w := doJSON(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
		Rooms  int    `json:"rooms"`
		Users  int    `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Rooms)
	assert.Equal(t, 2, resp.Users)
}

func TestRoomsListsMemberCounts(t *testing.T) {
	r := newTestRouter(t)
	joinRoom(t, r, "room1")
	joinRoom(t, r, "room1")

	w := doJSON(t, r, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rooms []struct {
		ID          string `json:"id"`
		MemberCount int    `json:"member_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "room1", rooms[0].ID)
	assert.Equal(t, 2, rooms[0].MemberCount)
}

func TestUnknownAPIPathIs404(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
