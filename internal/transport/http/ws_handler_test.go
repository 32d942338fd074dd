package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketPlayFlow(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	bob := api.register("bob")
	pin := api.publish(alice)

	server := httptest.NewServer(api.router)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/play?pin=" + pin + "&token=" + bob
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	quiz := readNext(t, conn, "quiz")
	assert.Equal(t, pin, quiz["pin"])
	assert.NotContains(t, mustJSON(t, quiz), "correct")

	submit := map[string]any{
		"type": "submit",
		"payload": map[string]any{"questions": []map[string]any{
			{"number": 1, "question": "2+2=?", "choices": []map[string]any{{"text": "4", "correct": true}}},
			{"number": 2, "question": "3+3=?", "choices": []map[string]any{{"text": "6", "correct": true}}},
		}},
	}
	require.NoError(t, conn.WriteJSON(submit))

	result := readNext(t, conn, "result")
	assert.EqualValues(t, 100, result["grade"])
	assert.EqualValues(t, 2, result["correctAnswers"])

	board := readNext(t, conn, "leaderboard")
	entries, ok := board["leaderboard"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].(map[string]any)["username"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))
	readNext(t, conn, "error")
}

func TestWebSocketRejectsBadRequests(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")

	server := httptest.NewServer(api.router)
	defer server.Close()
	base := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/play"

	_, resp, err := websocket.DefaultDialer.Dial(base+"?pin=12345678", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"?pin=12345678&token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"?pin=12345678&token="+alice, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, expect, msg.Type, "payload: %v", msg.Payload)
	return msg.Payload
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
