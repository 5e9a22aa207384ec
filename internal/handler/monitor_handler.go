package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edugrid/gradecore-backend/internal/middleware"
	"github.com/edugrid/gradecore-backend/internal/model"
	"github.com/edugrid/gradecore-backend/internal/response"
	"github.com/edugrid/gradecore-backend/internal/service"
	ws "github.com/edugrid/gradecore-backend/internal/websocket"
)

const (
	snapshotInterval  = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	snapshotTimeout   = 5 * time.Second // prevent slow stats queries from stalling the stream
)

// EventSubscriber attaches a consumer to one exam's live event stream.
// The publisher side implements it over Redis Pub/Sub.
type EventSubscriber interface {
	Subscribe(ctx context.Context, examID string) *redis.PubSub
}

// MonitorHandler streams live attempt activity to the exam's instructor
// over a WebSocket: an initial statistics snapshot, then every
// submission and grading event as it is published.
type MonitorHandler struct {
	events       EventSubscriber
	examService  *service.ExamService
	statsService *service.StatsService
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(events EventSubscriber, examService *service.ExamService, statsService *service.StatsService, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		events:       events,
		examService:  examService,
		statsService: statsService,
		log:          log.With().Str("component", "monitor_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
	}
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorExam godoc
// WS /ws/v1/lecturer/exams/:exam_id/monitor?token=...
func (h *MonitorHandler) MonitorExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if claims.Role != model.RoleAdmin && exam.InstructorID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotExamInstructor)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	monLog := h.log.With().
		Str("exam_id", examID.String()).
		Str("instructor_id", claims.UserID).
		Logger()
	monLog.Info().Msg("Instructor attached to live monitor")

	reqCtx := c.Request.Context()
	h.sendSnapshot(reqCtx, conn, examID)

	pubsub := h.events.Subscribe(reqCtx, examID.String())
	defer pubsub.Close()
	events := pubsub.Channel()

	// Reader goroutine: handles pings and refresh requests, and unblocks
	// the writer loop on disconnect.
	clientActions := make(chan ws.Action)
	go func() {
		defer close(clientActions)
		for {
			var req ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &req); err != nil {
				return
			}
			clientActions <- req.Action
		}
	}()

	snapshotTicker := time.NewTicker(snapshotInterval)
	defer snapshotTicker.Stop()
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-reqCtx.Done():
			monLog.Info().Msg("Instructor disconnected from live monitor")
			return

		case action, open := <-clientActions:
			if !open {
				monLog.Info().Msg("Monitor connection closed by client")
				return
			}
			switch action {
			case ws.ActionPing:
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionRefresh:
				h.sendSnapshot(reqCtx, conn, examID)
			}

		case msg, open := <-events:
			if !open {
				monLog.Warn().Msg("Monitor Pub/Sub channel closed")
				return
			}
			// Forward the serialized event as-is.
			if err := ws.WriteTyped(conn, ws.EventMessage{
				Event:   ws.EventExamEvent,
				Payload: json.RawMessage(msg.Payload),
			}); err != nil {
				return
			}

		case <-snapshotTicker.C:
			h.sendSnapshot(reqCtx, conn, examID)

		case <-keepAlive.C:
			conn.SetWriteDeadline(time.Now().Add(snapshotTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *MonitorHandler) sendSnapshot(ctx context.Context, conn *websocket.Conn, examID uuid.UUID) {
	statsCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	stats, err := h.statsService.ComputeExamStats(statsCtx, examID)
	if err != nil {
		h.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Snapshot refresh failed")
		ws.WriteError(conn, "snapshot unavailable")
		return
	}
	ws.WriteTyped(conn, ws.SnapshotMessage{Event: ws.EventSnapshot, Stats: stats})
}
