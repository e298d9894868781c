package handlers

import (
	"net/http"
	"time"

	"github.com/dcallahan/interaction-management/internal/api/respond"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
	wr *respond.Writer
}

func NewHealthHandler(db *gorm.DB, wr *respond.Writer) *HealthHandler {
	return &HealthHandler{db: db, wr: wr}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.PingContext(r.Context()) != nil {
			dbStatus = "unreachable"
		}
	}

	status := http.StatusOK
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}
	h.wr.Success(w, status, "health", map[string]any{
		"status":   dbStatus,
		"database": dbStatus,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
