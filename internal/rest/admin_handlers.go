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

	"github.com/codrava/prospectd/pkg/account"
	"github.com/codrava/prospectd/pkg/login"
)

// CreateAccountHandler handles POST /api/v1/admin/accounts.
//
// There is no self-signup; administrators provision accounts.
func (s *Server) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Name == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "name, email and password are required")
		return
	}

	role := account.Role(req.Role)
	if req.Role != "" && role != account.RoleUser && role != account.RoleAdmin {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid role")
		return
	}

	acct, err := s.engine.CreateAccount(r.Context(), login.CreateAccountParams{
		Email:    req.Email,
		Name:     req.Name,
		Company:  req.Company,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, acct)
}

// ListAccountsHandler handles GET /api/v1/admin/accounts.
func (s *Server) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.engine.ListAccounts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}
