package refresh

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lecturelink/backend/pkg/response"
)

// Handler exposes the admin endpoints for the background sweep.
type Handler struct {
	sweeper *Sweeper
	logger  *zap.Logger
}

// NewHandler creates a refresh handler.
func NewHandler(sweeper *Sweeper, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sweeper: sweeper, logger: logger}
}

// TriggerSweep queues an immediate sweep without waiting for it to finish.
func (h *Handler) TriggerSweep(c *gin.Context) {
	if !h.sweeper.Trigger() {
		response.OK(c, gin.H{
			"message": "URL refresh already in progress",
			"status":  "pending",
		})
		return
	}
	h.logger.Info("manual url refresh triggered")
	response.OK(c, gin.H{
		"message": "URL refresh started in background",
		"status":  "started",
	})
}

// SchedulerStatus reports the sweep schedule.
func (h *Handler) SchedulerStatus(c *gin.Context) {
	st := h.sweeper.Status()
	response.OK(c, gin.H{
		"running":  st.Running,
		"sweeping": st.Sweeping,
		"jobs": []gin.H{
			{
				"id":       "refresh_urls",
				"name":     "refresh presigned urls",
				"trigger":  fmt.Sprintf("interval[%s]", st.Interval),
				"next_run": formatRunTime(st.NextRun),
				"last_run": formatRunTime(st.LastRun),
			},
		},
	})
}

func formatRunTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
