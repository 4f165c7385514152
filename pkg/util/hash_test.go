package util

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash(t *testing.T) {
	a := []byte("\x89PNG\r\n\x1a\n")
	assert.Equal(t, xxhash.Sum64(a), ContentHash(a))
	assert.Equal(t, ContentHash(a), ContentHash(append([]byte(nil), a...)))
	assert.NotEqual(t, ContentHash(a), ContentHash(a[:7]))
	assert.Len(t, ContentHashHex(a), 16)
	assert.Equal(t, "ef46db3751d8e999", ContentHashHex(nil))
}

func TestHashUUID(t *testing.T) {
	tests := []struct {
		name string
		a, b []byte
		same bool
	}{
		{"equal", []byte{1, 2, 3}, []byte{1, 2, 3}, true},
		{"differ", []byte{1, 2, 3}, []byte{1, 2, 4}, false},
		{"empty", nil, []byte{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.same, HashUUID(tt.a) == HashUUID(tt.b))
		})
	}
	id, err := uuid.Parse(HashUUID([]byte("x")))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), id.Version())
	assert.Equal(t, HashUUID([]byte("x"))+".jpg", OutputName([]byte("x"), ".jpg"))
}
