package http

import (
	"encoding/json"
	"net/http"

	"github.com/Msaabiam/Global-Bus/internal/transport/logger"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError отвечает {"error": "..."}. Внутренние ошибки наружу не отдаются.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := ToHTTP(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.L(r.Context()).Error(op, "err", err)
		msg = "internal error"
	} else {
		logger.L(r.Context()).Debug(op, "status", status, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
