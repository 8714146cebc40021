// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package webauthn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCeremonyErrorWrapping(t *testing.T) {
	err := wrapError("verify assertion", ErrVerificationFailed)

	assert.EqualError(t, err, "verify assertion: verification failed")
	assert.ErrorIs(t, err, ErrVerificationFailed)

	var cerr *CeremonyError
	assert.ErrorAs(t, err, &cerr)
	assert.Equal(t, "verify assertion", cerr.Op)
}

func TestWrapErrorNil(t *testing.T) {
	assert.NoError(t, wrapError("anything", nil))
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsVerificationFailed(wrapError("op", ErrVerificationFailed)))
	assert.False(t, IsVerificationFailed(wrapError("op", ErrChallengeMissing)))

	assert.True(t, IsCredentialNotRecognized(wrapError("op", ErrCredentialNotRecognized)))
	assert.False(t, IsCredentialNotRecognized(errors.New("other")))
}
