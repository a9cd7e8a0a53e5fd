package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/eld-planner/internal/domain"
)

// GetLog handles GET /api/logs/{filename}.
// Sheets live only as long as the store's TTL; after that this is a 404 and
// the client must plan the trip again. ?download=true serves the file as an
// attachment instead of inline.
func (s *Server) GetLog(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name == "" || strings.ContainsAny(name, `/\`) || !strings.HasSuffix(name, ".pdf") {
		writeJSON(w, http.StatusNotFound, notFoundBody("log sheet not found"))
		return
	}

	var download *bool
	if err := runtime.BindQueryParameter("form", true, false, "download", r.URL.Query(), &download); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("download must be true or false"))
		return
	}

	data, err := s.logs.Get(name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("log sheet not found or expired"))
			return
		}
		s.log.ErrorContext(r.Context(), "get log sheet failed", "filename", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal error"}})
		return
	}

	disposition := "inline"
	if download != nil && *download {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition+`; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
