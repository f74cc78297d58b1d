package mapper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type src struct {
	ID    uint
	Value string
}

type dst struct {
	Value string
}

func TestMapSlicePtrWithID(t *testing.T) {
	items := []*src{{ID: 1, Value: "a"}, nil, {ID: 2, Value: "b"}}

	mapped, err := MapSlicePtrWithID(items,
		func(s *src) (*dst, error) { return &dst{Value: s.Value}, nil },
		func(s *src) uint { return s.ID },
	)

	require.NoError(t, err)
	require.Len(t, mapped, 2, "nil inputs are skipped")
	assert.Equal(t, "a", mapped[0].Value)
	assert.Equal(t, "b", mapped[1].Value)
}

func TestMapSlicePtrWithID_NilSlice(t *testing.T) {
	mapped, err := MapSlicePtrWithID(nil,
		func(s *src) (*dst, error) { return &dst{}, nil },
		func(s *src) uint { return s.ID },
	)

	require.NoError(t, err)
	assert.Nil(t, mapped)
}

func TestMapSlicePtrWithID_ErrorIncludesID(t *testing.T) {
	items := []*src{{ID: 7, Value: "bad"}}

	_, err := MapSlicePtrWithID(items,
		func(s *src) (*dst, error) { return nil, errors.New("boom") },
		func(s *src) uint { return s.ID },
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "item ID 7")
}
