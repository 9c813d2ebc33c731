package handler

import (
	"net/http"

	"easycsp/internal/core"
)

// Health — liveness
func Health(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready — хранилище настроек отвечает
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Options(r.Context()); err != nil {
		core.Fail(w, r, &core.AppError{Code: "not_ready", Status: http.StatusServiceUnavailable, Message: "хранилище настроек недоступно", Err: err})
		return
	}
	core.JSON(w, http.StatusOK, map[string]any{"ready": true})
}
