package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ruchit878/smart-job-kit-generator/internal/observability/logging"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/audio"
	"github.com/ruchit878/smart-job-kit-generator/internal/service/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamCaptions sends the current log as append events, then every
// mutation until the session ends or the client goes away.
func (h *handlers) streamCaptions(w http.ResponseWriter, r *http.Request) {
	s := h.lookupSession(w, r)
	if s == nil {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger := logging.WithSession(s.ID())
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := logging.WithSession(s.ID()).With().Str("component", "captions_ws").Logger()
	entries, events, cancel := s.Follow()
	defer cancel()

	for i, e := range entries {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(s.SnapshotEvent(i, e)); err != nil {
			logger.Debug().Err(err).Msg("Snapshot write failed")
			return
		}
	}

	// The read loop only notices the client closing.
	gone := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	logger.Info().Int("snapshot", len(entries)).Msg("Caption viewer connected")
	for {
		select {
		case ev, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				logger.Info().Msg("Session ended, caption stream closed")
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug().Err(err).Msg("Caption write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			logger.Info().Msg("Caption viewer disconnected")
			return
		case <-r.Context().Done():
			return
		}
	}
}

// streamAudio accepts binary audio frames and transcribes them into the
// session as user captions.
func (h *handlers) streamAudio(w http.ResponseWriter, r *http.Request) {
	s := h.lookupSession(w, r)
	if s == nil {
		return
	}
	if s.State().IsTerminal() {
		respondWithError(w, r, errConflict(session.ErrSessionClosed.Error()))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger := logging.WithSession(s.ID())
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := logging.WithSession(s.ID()).With().Str("component", "audio_ws").Logger()
	ctx := r.Context()

	adapter, err := h.app.NewSTT(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create STT adapter")
		closeWith(conn, websocket.CloseInternalServerErr, "speech-to-text unavailable")
		return
	}

	limits := h.app.Cfg.SessionLimits
	handler := audio.NewHandler(adapter, s, h.app.Cfg.STT.Provider, audio.Limits{
		MaxAudioBytes: limits.MaxAudioBytes,
		MaxDuration:   limits.MaxDuration,
	})
	if err := handler.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to start STT stream")
		closeWith(conn, websocket.CloseInternalServerErr, "speech-to-text unavailable")
		_ = adapter.Close()
		return
	}
	defer func() {
		if err := handler.Close(); err != nil {
			logger.Warn().Err(err).Msg("STT close failed")
		}
		logger.Info().
			Int64("audioBytes", handler.AudioBytes()).
			Int("utterances", handler.UtteranceCount()).
			Msg("Audio stream finished")
	}()

	logger.Info().Str("provider", h.app.Cfg.STT.Provider).Msg("Audio stream started")
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("Audio stream read failed")
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		if err := handler.SendAudio(ctx, data); err != nil {
			code := websocket.CloseInternalServerErr
			if errors.Is(err, audio.ErrLimitExceeded) {
				code = websocket.ClosePolicyViolation
			}
			logger.Warn().Err(err).Msg("Audio stream stopped")
			closeWith(conn, code, err.Error())
			return
		}
	}
}

// closeWith sends a close frame. Reasons are cut to fit the control frame.
func closeWith(conn *websocket.Conn, code int, reason string) {
	if len(reason) > 120 {
		reason = reason[:120]
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}
