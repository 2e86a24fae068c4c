package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"vista/internal/config"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	goleak.VerifyTestMain(m)
}

const view = `<Component id="root" width="120" height="60" padding="10" align-items="flex-start"
  style='{"background": "#336699"}'>
  <Text id="title" text="Hello"/>
</Component>`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "card.xml", view)

	out, err := run(t, "render", in)
	require.NoError(t, err)
	assert.Contains(t, out, "card.png")
	assert.FileExists(t, filepath.Join(dir, "card.png"))

	_, err = run(t, "render", filepath.Join(dir, "missing.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDumpTree(t *testing.T) {
	in := write(t, t.TempDir(), "card.xml", view)
	out, err := run(t, "dump", in)
	require.NoError(t, err)

	assert.Contains(t, out, "Component#root 0,0 120x60")
	assert.Contains(t, out, `  Text#title 10,10`)
	assert.Contains(t, out, `"Hello"`)
}

func TestDumpJSON(t *testing.T) {
	in := write(t, t.TempDir(), "card.xml", view)
	out, err := run(t, "dump", "--json", in)
	require.NoError(t, err)

	var got dumpView
	require.NoError(t, jsoniter.UnmarshalFromString(out, &got))
	assert.Len(t, got.View, 36, "view ids are uuids")
	require.NotNil(t, got.Root)
	assert.Equal(t, 120.0, got.Root.Width)
	require.Len(t, got.Root.Children, 1)
	assert.Equal(t, "Hello", got.Root.Children[0].Text)
	assert.Equal(t, 10.0, got.Root.Children[0].X)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.xml", view)
	b := write(t, dir, "b.xml", `<Component width="8" height="8"/>`)
	outDir := filepath.Join(dir, "frames")

	out, err := run(t, "batch", "--concurrency", "2", "-o", outDir, a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "rendered 2 views")
	assert.FileExists(t, filepath.Join(outDir, "a.png"))
	assert.FileExists(t, filepath.Join(outDir, "b.png"))

	_, err = run(t, "batch", a, filepath.Join(dir, "nope.xml"))
	assert.Error(t, err)
}

func TestConfigFileAndValidation(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "card.xml", view)
	bad := write(t, dir, "vista.yaml", "layout:\n  max_passes: 0\n")

	_, err := run(t, "--config", bad, "render", in)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestWatchRerendersOnChange(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "card.xml", view)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	renders := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{in}, throttle(0), zaptest.NewLogger(t), func() error {
			renders <- struct{}{}
			return nil
		})
	}()

	select {
	case <-renders:
	case <-time.After(5 * time.Second):
		t.Fatal("no initial render")
	}

	// The first write may race the watcher registration, so keep writing.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for waiting := true; waiting; {
		select {
		case <-renders:
			waiting = false
		case <-tick.C:
			require.NoError(t, os.WriteFile(in, []byte(view), 0o644))
		case <-deadline:
			t.Fatal("no render after change")
		}
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "card.xml", view)
	ctx, cancel := context.WithCancel(context.Background())

	count := 0
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{in}, throttle(time.Millisecond), zaptest.NewLogger(t), func() error {
			count++
			return nil
		})
	}()
	time.Sleep(100 * time.Millisecond)
	write(t, dir, "other.xml", view)
	time.Sleep(100 * time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, 1, count)
}

func TestPNGName(t *testing.T) {
	assert.Equal(t, "a/b/card.png", pngName("a/b/card.xml"))
	assert.Equal(t, "card.png", pngName("card"))
}
