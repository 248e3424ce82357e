package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/sitegen/internal/jobs"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is how often a stream checks its job for changes.
	DefaultPollInterval = 250 * time.Millisecond
	writeWait           = 5 * time.Second
)

// handleJobStream upgrades to a websocket and pushes a job snapshot each time
// the job changes. The stream ends after the terminal snapshot, when the job
// disappears or when the client goes away.
func (s *Server) handleJobStream(c echo.Context) error {
	id := c.Param("id")
	job, err := s.jobs.Get(id)
	if err != nil {
		return jobError(err)
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Warn(c.Request().Context(), "websocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go drain(conn, cancel)

	reason := s.stream(ctx, conn, job)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(writeWait))
	return nil
}

// stream writes snapshots until the job is terminal and returns the close
// reason sent to the client.
func (s *Server) stream(ctx context.Context, conn *websocket.Conn, job jobs.Job) string {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	last := time.Time{}
	for {
		if !job.UpdatedAt.Equal(last) {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(job); err != nil {
				s.logger.Debug(ctx, "websocket write failed", zap.Error(err))
				return "write failed"
			}
			last = job.UpdatedAt
		}
		if job.Status.Terminal() {
			return string(job.Status)
		}

		select {
		case <-ctx.Done():
			return "client gone"
		case <-ticker.C:
		}

		next, err := s.jobs.Get(job.ID)
		if errors.Is(err, jobs.ErrNotFound) {
			return "job deleted"
		}
		if err != nil {
			return "lookup failed"
		}
		job = next
	}
}

// drain reads and discards client frames so control frames are processed,
// and cancels the stream once the client disconnects.
func drain(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func newUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		},
	}
}
