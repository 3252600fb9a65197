package server

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// handleAudioSocket is a connectivity check for streaming clients.
// Binary frames are acknowledged with their byte count and "ping" text
// frames get a "pong"; no audio is processed here. Clients record
// locally and submit complete clips to /agent/chat.
func (s *Server) handleAudioSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("Audio socket opened")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn().Err(err).Msg("Audio socket read failed")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := conn.WriteJSON(gin.H{"type": "ack", "bytes": len(data)}); err != nil {
				return
			}
		case websocket.TextMessage:
			if string(data) == "ping" {
				if err := conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
					return
				}
			}
		}
	}
}
