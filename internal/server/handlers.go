package server

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type healthResponse struct {
	Status    string `json:"status"`
	Clients   int    `json:"clients"`
	Published int64  `json:"published"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:    "ok",
		Clients:   s.hub.Len(),
		Published: s.hub.Published(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	s.deps.Metrics.Clients.Inc()
	s.deps.Metrics.ClientsServed.Inc()

	sub := s.hub.Subscribe()
	logger := s.logger.With("client", sub.ID.String(), "remote", r.RemoteAddr)
	logger.Info("client connected", "clients", s.hub.Len())

	defer func() {
		s.hub.Unsubscribe(sub.ID)
		conn.Close()
		s.deps.Metrics.Clients.Dec()
		logger.Info("client disconnected", "clients", s.hub.Len())
	}()

	// Clients never send data; reading drives control frames and notices
	// the close handshake or a dead peer.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				s.hub.Unsubscribe(sub.ID)
				return
			}
		}
	}()

	for {
		frame, ok := sub.Buffer.Receive()
		if !ok {
			break
		}

		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.deps.Metrics.WriteFailures.Inc()
			logger.Warn("client write failed", "error", err)
			return
		}
	}

	deadline := time.Now().Add(s.cfg.WriteTimeout)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closing"), deadline)
}
