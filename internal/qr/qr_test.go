package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	data, err := Encode("http://localhost:8080/watch/8b24f0a1c3d94f6e")
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Size, cfg.Width)
	assert.Equal(t, Size, cfg.Height)
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := Encode("http://localhost:8080/watch/abc")
	require.NoError(t, err)
	b, err := Encode("http://localhost:8080/watch/abc")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
