package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositional(t *testing.T) {
	w, h, fps, secs, path, err := positional([]string{"640", "360", "30", "5", "output.hevc"})
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 360, h)
	assert.Equal(t, 30, fps)
	assert.Equal(t, 5, secs)
	assert.Equal(t, "output.hevc", path)
}

func TestPositionalBad(t *testing.T) {
	for _, args := range [][]string{
		{"x", "360", "30", "5", "out.hevc"},
		{"640", "360", "0", "5", "out.hevc"},
		{"-640", "360", "30", "5", "out.hevc"},
		{"640", "360", "30", "-1", "out.hevc"},
	} {
		_, _, _, _, _, err := positional(args)
		assert.Error(t, err, "args %v", args)
	}
}

func TestPositionalZeroSeconds(t *testing.T) {
	_, _, _, secs, _, err := positional([]string{"640", "360", "30", "0", "out.hevc"})
	require.NoError(t, err)
	assert.Equal(t, 0, secs)
}
