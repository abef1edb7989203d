package handlers

import (
	"net/http"

	"github.com/cloo-solutions/docqa/internal/api"
	"github.com/cloo-solutions/docqa/internal/telemetry"
)

// writeError reports failures the client cannot fix and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if api.DomainErrorToHTTP(err) >= http.StatusInternalServerError {
		telemetry.CaptureError(r.Context(), err)
	}
	api.HandleError(w, err)
}
