package holds

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/zoeyai/holdfinder/internal/logger"
	"github.com/zoeyai/holdfinder/internal/testutil"
	"github.com/zoeyai/holdfinder/pkg/vision/cv"
)

type holdFixture struct {
	dir     string
	wall    string
	centers map[string]image.Point
}

// newHoldFixture 生成岩壁以及三个裁剪岩点 b/a/c 和一个损坏文件
func newHoldFixture(t *testing.T) holdFixture {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "holds")
	require.NoError(t, os.Mkdir(dir, 0755))

	wall := testutil.SyntheticWall(640, 480, 11)
	defer wall.Close()

	fx := holdFixture{
		dir:     dir,
		wall:    testutil.WriteMat(t, root, "wall.png", wall),
		centers: map[string]image.Point{},
	}

	crops := map[string]image.Rectangle{
		"b.png": image.Rect(40, 40, 160, 160),
		"a.png": image.Rect(260, 180, 380, 300),
		"c.png": image.Rect(480, 320, 600, 440),
	}
	for name, rect := range crops {
		_, center := testutil.WriteCrop(t, dir, name, wall, rect)
		fx.centers[name] = center
	}
	testutil.WriteCorrupt(t, dir, "bb-corrupt.png")
	return fx
}

func quietLogger() *logger.Logger {
	l := logger.New()
	l.SetOutput(nil)
	return l
}

func TestFindHoldsOrderingAndAccuracy(t *testing.T) {
	fx := newHoldFixture(t)

	result, err := FindHolds(fx.dir, fx.wall, WithLogger(quietLogger()))
	require.NoError(t, err)

	// a.png, b.png, bb-corrupt.png, c.png
	require.Len(t, result.Records, 4)
	wantNames := []string{"a.png", "b.png", "bb-corrupt.png", "c.png"}
	for i, rec := range result.Records {
		assert.Equal(t, i, rec.Index)
		assert.Equal(t, wantNames[i], rec.Name)
	}

	// 损坏文件占位，不影响后续序号
	corrupt := result.Records[2]
	assert.Nil(t, corrupt.Position)
	require.Error(t, corrupt.Err)
	assert.True(t, errors.Is(corrupt.Err, cv.ErrDecode))

	for _, i := range []int{0, 1, 3} {
		rec := result.Records[i]
		require.NotNil(t, rec.Position, "%s 应能定位", rec.Name)
		assert.NoError(t, rec.Err)

		center := fx.centers[rec.Name]
		d := math.Hypot(float64(rec.Position.X-center.X), float64(rec.Position.Y-center.Y))
		assert.LessOrEqual(t, d, 30.0, "%s 位置 %+v 距中心 %v 过远", rec.Name, *rec.Position, center)
	}

	assert.Equal(t, 3, result.Located)
	assert.Equal(t, 1, result.Missing)

	positions := result.Positions()
	require.Len(t, positions, 4)
	assert.Nil(t, positions[2])
	assert.Equal(t, result.Records[0].Position, positions[0])
}

func TestFindHoldsIsDeterministic(t *testing.T) {
	fx := newHoldFixture(t)

	first, err := FindHolds(fx.dir, fx.wall, WithLogger(quietLogger()))
	require.NoError(t, err)
	second, err := FindHolds(fx.dir, fx.wall, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, first.Positions(), second.Positions())
}

func TestFindHoldsSameStemDifferentExtension(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "holds")
	require.NoError(t, os.Mkdir(dir, 0755))

	wall := testutil.SyntheticWall(640, 480, 11)
	defer wall.Close()
	wallPath := testutil.WriteMat(t, root, "wall.png", wall)
	testutil.WriteCrop(t, dir, "a.jpg", wall, image.Rect(40, 40, 160, 160))
	testutil.WriteCrop(t, dir, "a.png", wall, image.Rect(260, 180, 380, 300))
	matchDir := filepath.Join(root, "matches")

	_, err := FindHolds(dir, wallPath, WithLogger(quietLogger()), WithMatchDir(matchDir))
	require.NoError(t, err)

	entries, err := os.ReadDir(matchDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFindHoldsApproximateMatching(t *testing.T) {
	fx := newHoldFixture(t)

	result, err := FindHolds(fx.dir, fx.wall, WithLogger(quietLogger()), WithApproximateMatching(true))
	require.NoError(t, err)
	require.Len(t, result.Records, 4)

	for _, i := range []int{0, 1, 3} {
		rec := result.Records[i]
		require.NotNil(t, rec.Position, "%s 应能定位", rec.Name)
		center := fx.centers[rec.Name]
		d := math.Hypot(float64(rec.Position.X-center.X), float64(rec.Position.Y-center.Y))
		assert.LessOrEqual(t, d, 30.0, rec.Name)
	}
	assert.Nil(t, result.Records[2].Position)
}

func TestResultJSON(t *testing.T) {
	fx := newHoldFixture(t)

	result, err := FindHolds(fx.dir, fx.wall, WithLogger(quietLogger()))
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded struct {
		Records []map[string]any `json:"records"`
		Located int              `json:"located"`
		Missing int              `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Records, 4)
	assert.Equal(t, 3, decoded.Located)
	assert.Equal(t, 1, decoded.Missing)

	// 解码失败带 error，正常岩点没有
	assert.Contains(t, decoded.Records[2]["error"], "bb-corrupt.png")
	assert.Nil(t, decoded.Records[2]["position"])
	assert.NotContains(t, decoded.Records[0], "error")
	assert.NotNil(t, decoded.Records[0]["position"])

	var top map[string]any
	require.NoError(t, json.Unmarshal(data, &top))
	assert.Contains(t, top, "elapsed_ms")
	assert.NotContains(t, top, "elapsed")
	assert.InDelta(t, float64(result.Elapsed.Microseconds())/1000, top["elapsed_ms"], 1e-6)
}

func TestFindHoldsWritesOutputs(t *testing.T) {
	fx := newHoldFixture(t)
	outDir := t.TempDir()
	output := filepath.Join(outDir, "labeled.png")
	matchDir := filepath.Join(outDir, "matches")

	var progress []Progress
	result, err := FindHolds(fx.dir, fx.wall,
		WithLogger(quietLogger()),
		WithOutput(output),
		WithMatchDir(matchDir),
		WithProgress(func(p Progress) { progress = append(progress, p) }),
	)
	require.NoError(t, err)

	labeled := gocv.IMRead(output, gocv.IMReadColor)
	defer labeled.Close()
	require.False(t, labeled.Empty())
	assert.Equal(t, 640, labeled.Cols())
	assert.Equal(t, 480, labeled.Rows())

	for _, name := range []string{"0_a_matches.png", "1_b_matches.png", "3_c_matches.png"} {
		_, err := os.Stat(filepath.Join(matchDir, name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(matchDir, "2_bb-corrupt_matches.png"))
	assert.True(t, os.IsNotExist(err))

	require.Len(t, progress, len(result.Records))
	for i, p := range progress {
		assert.Equal(t, i+1, p.Done)
		assert.Equal(t, 4, p.Total)
		assert.Equal(t, result.Records[i].Name, p.Record.Name)
	}
}

func TestFindHoldsFatalErrors(t *testing.T) {
	fx := newHoldFixture(t)
	badWall := testutil.WriteCorrupt(t, t.TempDir(), "wall.png")

	called := false
	onProgress := WithProgress(func(Progress) { called = true })

	_, err := FindHolds(fx.dir, badWall, WithLogger(quietLogger()), onProgress)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cv.ErrDecode))

	_, err = FindHolds(filepath.Join(fx.dir, "missing"), fx.wall, WithLogger(quietLogger()), onProgress)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDirectory))

	assert.False(t, called, "致命错误应在处理任何岩点前返回")
}

func TestFindHoldsLogsEachHold(t *testing.T) {
	fx := newHoldFixture(t)

	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)

	_, err := FindHolds(fx.dir, fx.wall, WithLogger(l))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[0] a.png")
	assert.Contains(t, out, "[2] bb-corrupt.png")
	assert.Contains(t, out, "定位完成: 3/4")
}
