package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"ai-quiz-service/internal/app"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Question int    `json:"question"`
	Option   string `json:"option"`
}

type submitPayload struct {
	Confirmed bool `json:"confirmed"`
}

// handleAttemptWS hosts one live attempt session per connection. The quiz is
// loaded (answer key stripped) as soon as the socket opens; from then on the
// server owns the countdown, so a quiz times out and auto-submits even if
// the client goes quiet. Closing the socket discards the session.
func (a *API) handleAttemptWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		respondError(w, http.StatusBadRequest, "missing quizId")
		return
	}
	userID, _ := userIDFromContext(r.Context())

	if err := a.sessions.Acquire(userID, quizID); err != nil {
		respondError(w, http.StatusConflict, "attempt already in progress")
		return
	}
	defer a.sessions.Release(userID, quizID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := app.NewAttemptSessionWithTicker(a.quizzes, a.progress, userID, a.newTicker)
	defer session.Close()

	// The session outlives the HTTP request context only until the socket
	// closes; submissions use Background so an in-flight write completes.
	if err := session.Load(context.Background(), quizID); err != nil {
		_ = conn.WriteJSON(app.SessionEvent{Type: "error", Message: "no quiz found"})
		return
	}

	// Single writer goroutine; everything outbound funnels through send.
	send := make(chan app.SessionEvent, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for event := range send {
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-session.Events():
				if !ok {
					return
				}
				select {
				case send <- event:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(message string) {
		select {
		case send <- app.SessionEvent{Type: "error", Message: message}:
		case <-writerDone:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply("invalid select payload")
				continue
			}
			if err := session.SelectAnswer(payload.Question, payload.Option); err != nil {
				reply(err.Error())
			}
		case "submit":
			var payload submitPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					reply("invalid submit payload")
					continue
				}
			}
			if err := session.Submit(context.Background(), payload.Confirmed); err != nil {
				reply(err.Error())
			}
		default:
			reply("unsupported message type")
		}
	}

	session.Close()
	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}
