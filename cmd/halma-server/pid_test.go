package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManagePIDFile(t *testing.T) {
	t.Run("writes and removes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "halma.pid")
		cleanup, err := managePIDFile(path, true)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))

		cleanup()
		_, err = os.Stat(path)
		require.True(t, os.IsNotExist(err))
	})

	t.Run("refuses a live owner", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "halma.pid")
		require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644))

		_, err := managePIDFile(path, true)
		require.ErrorContains(t, err, "running process")
	})

	t.Run("refuses garbage", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "halma.pid")
		require.NoError(t, os.WriteFile(path, []byte("halma"), 0644))

		_, err := managePIDFile(path, true)
		require.ErrorContains(t, err, "corrupted")
	})

	t.Run("overwrites without lock", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "halma.pid")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

		cleanup, err := managePIDFile(path, false)
		require.NoError(t, err)
		defer cleanup()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))
	})
}
