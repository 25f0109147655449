package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	t.Setenv("BEACONDASH_HOME", t.TempDir())
	t.Setenv("BEACONDASH_CONFIG", "")

	t.Run("version", func(t *testing.T) {
		var out, errOut bytes.Buffer
		code := run([]string{"--version"}, &out, &errOut)
		assert.Zero(t, code)
		assert.Contains(t, out.String(), "dev")
	})

	t.Run("unknown command", func(t *testing.T) {
		var out, errOut bytes.Buffer
		code := run([]string{"beacons"}, &out, &errOut)
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut.String(), "Error: unknown command")
	})
}
