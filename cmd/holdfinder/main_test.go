package main

import (
	"bytes"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/holdfinder/internal/logger"
	"github.com/zoeyai/holdfinder/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "holdfinder v"+Version)
}

func TestMatchCommandRequiresFlags(t *testing.T) {
	_, err := run(t, "match", "-i", "hold.png")
	assert.Error(t, err)
}

func TestMatchCommandDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	bad := testutil.WriteCorrupt(t, dir, "bad.png")

	_, err := run(t, "match", "-i", bad, "-s", bad)
	assert.Error(t, err)
}

func TestMatchCommandRejectsUnknownDetector(t *testing.T) {
	_, err := run(t, "match", "-i", "a.png", "-s", "b.png", "-d", "surf")
	assert.Error(t, err)
}

func TestHoldsCommand(t *testing.T) {
	root := t.TempDir()
	holdsDir := filepath.Join(root, "holds")
	require.NoError(t, os.Mkdir(holdsDir, 0755))

	wall := testutil.SyntheticWall(640, 480, 5)
	defer wall.Close()
	wallPath := testutil.WriteMat(t, root, "wall.png", wall)
	testutil.WriteCrop(t, holdsDir, "b.png", wall, image.Rect(300, 200, 420, 320))
	testutil.WriteCrop(t, holdsDir, "a.png", wall, image.Rect(50, 50, 170, 170))
	testutil.WriteCorrupt(t, holdsDir, "c.png")
	output := filepath.Join(root, "labeled.png")

	out, err := run(t, "holds", "-d", holdsDir, "-w", wallPath, "-o", output, "--progress=false")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "0\ta.png\t"))
	assert.True(t, strings.HasPrefix(lines[1], "1\tb.png\t"))
	assert.Equal(t, "2\tc.png\tnone", lines[2])

	_, err = os.Stat(output)
	assert.NoError(t, err)
}

func TestHoldsCommandMissingDirectory(t *testing.T) {
	_, err := run(t, "holds", "-d", filepath.Join(t.TempDir(), "nope"), "-w", "wall.png")
	assert.Error(t, err)
}

func TestHoldsCommandJSONWithFLANN(t *testing.T) {
	root := t.TempDir()
	holdsDir := filepath.Join(root, "holds")
	require.NoError(t, os.Mkdir(holdsDir, 0755))

	wall := testutil.SyntheticWall(640, 480, 5)
	defer wall.Close()
	wallPath := testutil.WriteMat(t, root, "wall.png", wall)
	testutil.WriteCrop(t, holdsDir, "a.png", wall, image.Rect(50, 50, 170, 170))
	testutil.WriteCorrupt(t, holdsDir, "b.png")

	out, err := run(t, "holds", "-d", holdsDir, "-w", wallPath, "--flann", "--json", "--progress=false")
	require.NoError(t, err)

	type record struct {
		Name     string              `json:"name"`
		Position *struct{ X, Y int } `json:"position"`
		Error    string              `json:"error"`
	}
	var decoded struct {
		Records   []record `json:"records"`
		ElapsedMs *float64 `json:"elapsed_ms"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Records, 2)
	assert.NotNil(t, decoded.Records[0].Position)
	assert.Empty(t, decoded.Records[0].Error)
	assert.Nil(t, decoded.Records[1].Position)
	assert.Contains(t, decoded.Records[1].Error, "b.png")
	assert.NotNil(t, decoded.ElapsedMs)
}

func TestExecuteClosesLogFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	bad := testutil.WriteCorrupt(t, dir, "bad.png")
	logPath := filepath.Join(dir, "run.log")

	code := execute([]string{"match", "-i", bad, "-s", bad, "--log-file", logPath})
	assert.Equal(t, 1, code)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "总耗时")

	// 日志文件已关闭，之后的日志不再写入
	logger.Info("写在关闭之后")
	data, err = os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "写在关闭之后")
}
