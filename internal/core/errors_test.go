package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	notFound := NewNotFound("course", "c1")
	invalid := FieldInvalid("date", "must be YYYY-MM-DD")
	storage := NewStorageError("insert record", errors.New("connection reset"))

	tests := []struct {
		name       string
		err        error
		notFound   bool
		validation bool
		storage    bool
	}{
		{name: "not found", err: notFound, notFound: true},
		{name: "wrapped not found", err: fmt.Errorf("submit: %w", notFound), notFound: true},
		{name: "validation", err: invalid, validation: true},
		{name: "storage", err: storage, storage: true},
		{name: "plain", err: errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.storage, IsStorage(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "course not found", NewNotFound("course", "c1").Error())
	assert.Equal(t, "date: must be YYYY-MM-DD", FieldInvalid("date", "must be YYYY-MM-DD").Error())
	assert.Equal(t, "storage: load: eof", NewStorageError("load", errors.New("eof")).Error())
	assert.Nil(t, NewStorageError("load", nil))
}
