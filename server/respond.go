package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"espotifai/core/catalog"
	"espotifai/logger"
)

// writeJSON 输出 JSON 响应
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// writeError 将业务错误转换为 HTTP 状态码. 只有 409 带响应体
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *catalog.ConflictError
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, conflict.Existing)
	case errors.Is(err, catalog.ErrValidation):
		logger.Debug("Rejected request", requestFields(r, logger.ErrorField(err))...)
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, catalog.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, catalog.ErrReferential):
		logger.Debug("Rejected request", requestFields(r, logger.ErrorField(err))...)
		w.WriteHeader(http.StatusUnprocessableEntity)
	default:
		logger.Error("Request failed", requestFields(r, logger.ErrorField(err))...)
		w.WriteHeader(http.StatusInternalServerError)
	}
}
