package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/creative-go/internal/gateway"
	"github.com/raphaelgruber/creative-go/internal/metrics"
	"github.com/raphaelgruber/creative-go/internal/service"
	"github.com/raphaelgruber/creative-go/internal/store"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) createTurn(c *gin.Context) {
	var req gateway.CreateTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	in := service.CreateTurnInput{
		UserText:      req.UserText,
		UIContext:     req.UIContext,
		TitleIfNew:    req.TitleIfNew,
		SessionConfig: req.SessionConfig,
	}
	if req.SessionID != nil {
		in.SessionID = *req.SessionID
	}
	for _, a := range req.Attachments {
		in.Attachments = append(in.Attachments, store.Attachment{Name: a.Name, Size: a.Size, Type: a.Type})
	}

	turn, err := s.turns.CreateTurn(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gateway.TurnRef{
		SessionID: turn.SessionID,
		TurnID:    turn.ID,
		Status:    turn.Status,
	})
}

func (s *Server) getTurn(c *gin.Context) {
	turn, err := s.turns.GetTurn(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWireTurn(*turn))
}

func (s *Server) getSession(c *gin.Context) {
	sess, err := s.turns.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateway.Session{
		ID:        sess.ID,
		Title:     sess.Title,
		Config:    sess.Config,
		TurnCount: sess.TurnCount,
		CreatedAt: gateway.NewTimestamp(sess.CreatedAt),
		UpdatedAt: gateway.NewTimestamp(sess.UpdatedAt),
	})
}

func (s *Server) listTurns(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	// Unknown sessions are a 404, not an empty list.
	if _, err := s.turns.GetSession(ctx, id); err != nil {
		s.writeError(c, err)
		return
	}
	turns, err := s.turns.ListTurns(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]gateway.TurnSummary, 0, len(turns))
	for _, t := range turns {
		out = append(out, gateway.TurnSummary{
			ID:        t.ID,
			Status:    t.Status,
			UserText:  t.UserText,
			CreatedAt: gateway.NewTimestamp(t.CreatedAt),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) artifact(c *gin.Context) {
	url, err := s.turns.ResolveArtifact(c.Request.Context(), c.Param("session"), c.Param("turn"), c.Param("file"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// streamTurn pushes the turn over a websocket until it reaches a terminal
// status or the client goes away.
func (s *Server) streamTurn(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	// Subscribe before reading so no transition falls between the two.
	updates, unsubscribe := s.turns.Subscribe(id)
	defer unsubscribe()

	turn, err := s.turns.GetTurn(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "turn_id", id, "error", err)
		return
	}
	defer conn.Close()

	s.metrics.Add(metrics.CounterActiveStreams, 1)
	defer s.metrics.Add(metrics.CounterActiveStreams, -1)

	send := func(t store.Turn) (bool, error) {
		done := service.TurnStatus(t.Status).Terminal()
		return done, conn.WriteJSON(gateway.TurnEvent{Turn: toWireTurn(t), Done: done})
	}
	finish := func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	}

	done, err := send(*turn)
	if err != nil {
		s.logger.Debug("stream write failed", "turn_id", id, "error", err)
		return
	}
	if done {
		finish()
		return
	}

	// Drain client frames so a disconnect is noticed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case t := <-updates:
			done, err := send(t)
			if err != nil {
				s.logger.Debug("stream write failed", "turn_id", id, "error", err)
				return
			}
			if done {
				finish()
				return
			}
		case <-gone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, service.ErrArtifactNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEmptyText):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func toWireTurn(t store.Turn) gateway.Turn {
	out := gateway.Turn{
		ID:        t.ID,
		SessionID: t.SessionID,
		Status:    t.Status,
		UserText:  t.UserText,
		Artifacts: t.Artifacts,
		Error:     t.Error,
		CreatedAt: gateway.NewTimestamp(t.CreatedAt),
		UpdatedAt: gateway.NewTimestamp(t.UpdatedAt),
	}
	if t.CompletedAt != nil {
		completed := gateway.NewTimestamp(*t.CompletedAt)
		out.CompletedAt = &completed
	}
	for _, m := range t.Messages {
		out.Messages = append(out.Messages, gateway.TurnMessage{Role: m.Role, Content: m.Content, Type: m.Type})
	}
	return out
}
