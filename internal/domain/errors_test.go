package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpError_Classification(t *testing.T) {
	err := fmt.Errorf("load: %w", ConfigError("rules.load", "pkg/rules/duty_rules.json", fs.ErrNotExist))

	assert.True(t, errors.Is(err, ErrConfig))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsKind(err, KindInvalidConfig))
	assert.Contains(t, err.Error(), "path=pkg/rules/duty_rules.json")
}

func TestOpError_Conflict(t *testing.T) {
	err := &OpError{Op: "store.patch", Kind: KindConflict, Path: "42"}
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "store.patch: conflict (path=42)", err.Error())

	var nilErr *OpError
	assert.Equal(t, "<nil>", nilErr.Error())
}
