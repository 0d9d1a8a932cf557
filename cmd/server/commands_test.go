package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "dev\n", run(t, "version"))
}

func TestSlotsCommand(t *testing.T) {
	t.Setenv("SLOTS_FILE", "")
	t.Setenv("MAX_PER_SLOT", "")
	t.Setenv("MAX_PARTY_SIZE", "")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("COOKIE_HASH_KEY", "")
	t.Setenv("COOKIE_BLOCK_KEY", "")

	out := run(t, "slots")
	assert.Contains(t, out, "19:00")
	assert.Contains(t, out, "max party size")
	assert.Equal(t, 7, strings.Count(out, "\n"))
}

func TestHashPasswordCommand(t *testing.T) {
	hash := strings.TrimSpace(run(t, "hash-password", "s3cret"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestKeysCommand(t *testing.T) {
	out := run(t, "keys")
	assert.Contains(t, out, "COOKIE_HASH_KEY=")
	assert.Contains(t, out, "JWT_SECRET=")
}
