package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadPayloadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "capacity.json")
	require.NoError(t, SavePayloadFile(path, []byte(`{"success":true,"data":{"alerts":[]}}`)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"data\": {")

	loaded, err := LoadPayloadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"alerts":[]}}`, string(loaded))
}

func TestSavePayloadFile_RejectsInvalidJSON(t *testing.T) {
	err := SavePayloadFile(filepath.Join(t.TempDir(), "x.json"), []byte("oops"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestLoadPayloadFile_Errors(t *testing.T) {
	_, err := LoadPayloadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadPayloadFile(bad)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}
