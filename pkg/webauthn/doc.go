// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package webauthn runs the server side of WebAuthn registration and login
// ceremonies for prospectd accounts.
//
// This package wraps the go-webauthn/webauthn library and binds it to the
// account store:
//   - Registration challenges live on the account row and are consumed
//     atomically with the new credential.
//   - Login challenges travel as signed tokens issued by pkg/token, so the
//     login endpoints stay stateless and unknown emails get the same
//     response shape as known ones.
//   - A successful login yields a short-lived biometric token that the
//     authentication decision engine exchanges for a session.
//
// Signature counters are enforced strictly: an assertion whose counter has
// not advanced past the stored value fails verification and persists
// nothing.
//
// Note: WebAuthn requires HTTPS for all operations. Browsers will only
// expose the WebAuthn API in secure contexts.
package webauthn
