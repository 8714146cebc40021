// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// ListSecurityLogsHandler handles GET /api/v1/security/logs.
//
// Returns the session owner's events, newest first. An optional ?limit
// query bounds the page size.
func (s *Server) ListSecurityLogsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid session subject")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	events, err := s.events.List(r.Context(), accountID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SecurityLogsResponse{Events: events})
}

// MarkSecurityLogReadHandler handles PATCH /api/v1/security/logs.
//
// Marks one owned event as read. Events owned by other accounts are
// indistinguishable from missing ones.
func (s *Server) MarkSecurityLogReadHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid session subject")
		return
	}

	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}

	eventID, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid event id")
		return
	}

	if err := s.events.MarkRead(r.Context(), accountID, eventID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// DeleteSecurityLogsHandler handles DELETE /api/v1/security/logs.
//
// With an ?id query parameter it deletes one owned event; without it,
// every event owned by the session account.
func (s *Server) DeleteSecurityLogsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid session subject")
		return
	}

	if raw := r.URL.Query().Get("id"); raw != "" {
		eventID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid event id")
			return
		}
		if err := s.events.Delete(r.Context(), accountID, eventID); err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
		return
	}

	if err := s.events.DeleteAll(r.Context(), accountID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
