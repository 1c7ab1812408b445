package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	assert.Equal(t, "void: wrong secret (unauthorized)", Unauthorized("void", "wrong secret", nil).Error())
	assert.Equal(t, "save (validation)", Validation("save", "").Error())
	assert.Equal(t, "missing (not_found)", NotFound("", "missing", nil).Error())
	assert.Equal(t, "conflict", (&Error{Code: CodeConflict}).Error())
}

func TestCodeOfUnwrapsChains(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("saving dossier: %w", External("store.save", cause))

	assert.True(t, IsCode(err, CodeExternal))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Nil(t, External("noop", nil))
}
