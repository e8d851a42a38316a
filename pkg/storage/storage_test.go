package storage

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreSaveAndOpen(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("2026/assignments-regular-1.csv", []byte("course,instructor\n"))
	require.NoError(t, err)
	assert.Equal(t, "2026/assignments-regular-1.csv", name)

	file, err := store.Open(name)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "course,instructor\n", string(data))
}

func TestFileStoreRejectsEscapingNames(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../outside.csv", "/etc/passwd", "a/../../b.csv", "."} {
		_, err := store.Save(name, []byte("x"))
		assert.Error(t, err, name)
	}
}

func TestFileStoreSweep(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Save("stale.csv", []byte("x"))
	require.NoError(t, err)

	// A negative retention puts the cutoff in the future, so every file
	// qualifies.
	removed, err := store.Sweep(-time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale.csv"}, removed)

	_, err = store.Open("stale.csv")
	assert.Error(t, err)
}

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)

	token, expiresAt, err := signer.Sign("2026/assignments-regular-1.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	name, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "2026/assignments-regular-1.csv", name)
	assert.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestTokenSignerExpired(t *testing.T) {
	signer := NewTokenSigner("secret", time.Nanosecond)
	token, _, err := signer.Sign("report.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	_, _, err = signer.Parse(token, false)
	require.Error(t, err)

	// Sweep tooling may still resolve the file name.
	name, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", name)
}

func TestTokenSignerRejectsTampering(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)
	token, _, err := signer.Sign("report.pdf")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged := parts[0] + "." + "9999999999" + "." + parts[2]
	_, _, err = signer.Parse(forged, false)
	require.Error(t, err)

	_, _, err = NewTokenSigner("other-secret", time.Hour).Parse(token, false)
	require.Error(t, err)
}
