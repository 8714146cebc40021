// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package rest exposes the authentication core over HTTP.
//
// The surface mirrors the dashboard's API: password and biometric login,
// the WebAuthn registration and login ceremonies, the owner-scoped
// security event log, and admin account provisioning. Ceremony endpoints
// carry the login challenge in an HttpOnly cookie; everything behind the
// session boundary authenticates with a Bearer session token.
package rest
