// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package webauthn

import (
	"errors"
	"fmt"
)

// Sentinel errors for ceremony operations.
var (
	// ErrAccountNotFound is returned when the ceremony subject does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrChallengeMissing is returned when verification is attempted with no
	// pending challenge.
	ErrChallengeMissing = errors.New("no pending challenge")

	// ErrChallengeExpired is returned when the presented challenge token is
	// expired or otherwise invalid.
	ErrChallengeExpired = errors.New("challenge expired or invalid")

	// ErrCredentialNotRecognized is returned when the asserted credential does
	// not belong to any account, or not to the claimed one.
	ErrCredentialNotRecognized = errors.New("credential not recognized")

	// ErrVerificationFailed is returned when the authenticator response fails
	// cryptographic or counter verification.
	ErrVerificationFailed = errors.New("verification failed")
)

// CeremonyError wraps an error with the ceremony step that failed.
type CeremonyError struct {
	Op  string
	Err error
}

// Error returns the error message.
func (e *CeremonyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *CeremonyError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *CeremonyError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// wrapError wraps an error with an operation name if it's not nil.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CeremonyError{Op: op, Err: err}
}

// IsVerificationFailed returns true if the error indicates verification failed.
func IsVerificationFailed(err error) bool {
	return errors.Is(err, ErrVerificationFailed)
}

// IsCredentialNotRecognized returns true if the error indicates an unknown
// credential.
func IsCredentialNotRecognized(err error) bool {
	return errors.Is(err, ErrCredentialNotRecognized)
}
