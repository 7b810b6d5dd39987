package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type selection struct {
	Type  string `validate:"oneof=select ping"`
	State string `validate:"required_if=Type select,max=64"`
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, Struct(selection{Type: "select", State: "Penang"}))
	assert.NoError(t, Struct(selection{Type: "ping"}))
}

func TestStructInvalid(t *testing.T) {
	err := Struct(selection{Type: "select"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "selection.State", verr.Fields[0].Namespace)
	assert.Equal(t, "required_if", verr.Fields[0].Tag)
	assert.Contains(t, err.Error(), "selection.State")
}

func TestStructMultipleFailures(t *testing.T) {
	err := Struct(selection{Type: "shout", State: string(make([]byte, 65))})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
}
