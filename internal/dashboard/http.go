package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MpMogale/AVPermitSystemV2/internal/common/logger"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/server"
)

const defaultExpiryWindow = 30 * 24 * time.Hour

type Handler struct {
	repo *Repo
	log  logger.Logger
}

func NewHandler(repo *Repo, log logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard/statistics", h.statistics)
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.Collect(r.Context(), time.Now(), defaultExpiryWindow)
	if err != nil {
		h.log.Errorf("collect statistics: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, s)
}
