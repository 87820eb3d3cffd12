package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindValidation, "validation"},
		{KindDuplicate, "duplicate"},
		{KindNotFound, "not_found"},
		{KindEmptyTarget, "empty_target"},
		{KindConnectivity, "connectivity"},
		{KindBackend, "backend"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.String())
		})
	}
}

func TestError_IsSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", notFoundError("member %d not found", 3))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrDuplicate))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "wrapped: member 3 not found", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	err := &Error{Kind: KindBackend, Message: "broadcast", Err: ErrPartialDelivery}

	assert.True(t, errors.Is(err, ErrPartialDelivery))
	assert.True(t, errors.Is(err, ErrBackend))
	assert.Contains(t, err.Error(), "broadcast: ")
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"duplicate key", gorm.ErrDuplicatedKey, KindDuplicate},
		{"record not found", gorm.ErrRecordNotFound, KindNotFound},
		{"other", errors.New("disk full"), KindBackend},
		{"already classified", validationError("bad"), KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(storeError("op", tt.err)))
		})
	}

	assert.NoError(t, storeError("op", nil))
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, KindBackend, KindOf(errors.New("opaque")))
}
