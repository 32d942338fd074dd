package http

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"pinquiz/internal/domain"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type leaderboardPayload struct {
	Pin         string                    `json:"pin"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

// ServeWS plays a published quiz over a websocket. The connection opens with a
// "quiz" message; every "submit" is graded and answered with "result" then "leaderboard".
func (s *Server) ServeWS(c *gin.Context) {
	pin := c.Query("pin")
	token := c.Query("token")
	if pin == "" || token == "" {
		badRequest(c, "missing pin or token")
		return
	}
	userID, err := s.tokens.Parse(token)
	if err != nil {
		writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	view, err := s.quizzes.GetForPlay(ctx, pin)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})

	// single writer; gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				s.log.Warn("ws write failed", "pin", pin, "error", err)
				return
			}
		}
	}()

	push := func(msgType string, payload any) {
		select {
		case send <- outboundMessage{Type: msgType, Payload: payload}:
		case <-writerDone:
		}
	}

	push("quiz", view)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "submit":
			var sub domain.Submission
			if err := json.Unmarshal(inbound.Payload, &sub); err != nil {
				push("error", errorPayload{Message: "invalid submission payload"})
				continue
			}
			result, err := s.play.Play(ctx, userID, pin, sub)
			if err != nil {
				push("error", errorPayload{Message: err.Error()})
				continue
			}
			push("result", result)

			entries, err := s.play.Leaderboard(ctx, pin)
			if err != nil {
				push("error", errorPayload{Message: err.Error()})
				continue
			}
			if entries == nil {
				entries = []domain.LeaderboardEntry{}
			}
			push("leaderboard", leaderboardPayload{Pin: pin, Leaderboard: entries})
		default:
			push("error", errorPayload{Message: "unsupported message type"})
		}
	}

	close(send)
	<-writerDone
}
