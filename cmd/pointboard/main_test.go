package main

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaanHessen/pointboard/internal/engine"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddThenShow(t *testing.T) {
	testChdir(t, t.TempDir())
	dir := t.TempDir()

	out, err := execute(t, "--data-dir", dir, "add", "gradeA", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Fifth Grade: points: 5")

	_, err = execute(t, "--data-dir", dir, "add", "gradeB", "--", "-2")
	require.NoError(t, err)

	out, err = execute(t, "--data-dir", dir, "show", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "**Fifth Grade** — 5 points")
	assert.Contains(t, out, "**595** more points")
}

func TestAddAnnouncesOvertake(t *testing.T) {
	testChdir(t, t.TempDir())
	dir := t.TempDir()
	_, err := execute(t, "--data-dir", dir, "add", "gradeB", "1")
	require.NoError(t, err)

	out, err := execute(t, "--data-dir", dir, "add", "gradeA", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Fifth Grade passed Sixth Grade")
}

func TestAddRejectsUnknownCounter(t *testing.T) {
	testChdir(t, t.TempDir())
	_, err := execute(t, "--data-dir", t.TempDir(), "add", "gradeZ", "1")
	assert.ErrorIs(t, err, engine.ErrUnknownCounter)
}

func TestResetNeedsYes(t *testing.T) {
	testChdir(t, t.TempDir())
	dir := t.TempDir()
	_, err := execute(t, "--data-dir", dir, "add", "gradeC", "4")
	require.NoError(t, err)

	_, err = execute(t, "--data-dir", dir, "reset")
	assert.Error(t, err)

	_, err = execute(t, "--data-dir", dir, "reset", "--yes")
	require.NoError(t, err)
	out, err := execute(t, "--data-dir", dir, "show", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "**600** more points")
}

func TestHebrewNames(t *testing.T) {
	testChdir(t, t.TempDir())
	out, err := execute(t, "--data-dir", t.TempDir(), "--lang", "he", "add", "gradeA", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "חמישית")
}

func TestVersionSkipsConfig(t *testing.T) {
	out, err := execute(t, "version", "--config", "/does/not/exist.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "pointboard "+version)
}

// testChdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func testChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
