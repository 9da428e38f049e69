// Package testutil 提供测试用的合成图像
package testutil

import (
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

// SyntheticWall 生成带随机几何图形的彩色“岩壁”图像，相同 seed 结果相同
func SyntheticWall(width, height int, seed int64) gocv.Mat {
	rng := rand.New(rand.NewSource(seed))

	wall := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 110, 120, 0), height, width, gocv.MatTypeCV8UC3)

	randColor := func() color.RGBA {
		return color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}
	}

	for i := 0; i < width*height/2000; i++ {
		x, y := rng.Intn(width), rng.Intn(height)
		switch rng.Intn(3) {
		case 0:
			gocv.Circle(&wall, image.Pt(x, y), 4+rng.Intn(18), randColor(), -1)
		case 1:
			w, h := 6+rng.Intn(30), 6+rng.Intn(30)
			gocv.Rectangle(&wall, image.Rect(x, y, x+w, y+h), randColor(), -1)
		default:
			gocv.Line(&wall, image.Pt(x, y), image.Pt(x+rng.Intn(60)-30, y+rng.Intn(60)-30), randColor(), 2+rng.Intn(3))
		}
	}
	return wall
}

// UniformImage 生成纯色灰度图像（没有可检测的特征点）
func UniformImage(width, height int, value float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(value, value, value, 0), height, width, gocv.MatTypeCV8UC3)
}

// WriteMat 将图像写入 dir/name 并返回路径
func WriteMat(t testing.TB, dir, name string, img gocv.Mat) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if ok := gocv.IMWrite(path, img); !ok {
		t.Fatalf("写入测试图像失败: %s", path)
	}
	return path
}

// WriteCrop 裁剪 wall 的 rect 区域写入文件，返回路径和区域中心
func WriteCrop(t testing.TB, dir, name string, wall gocv.Mat, rect image.Rectangle) (string, image.Point) {
	t.Helper()
	region := wall.Region(rect)
	defer region.Close()
	crop := region.Clone()
	defer crop.Close()

	center := image.Pt((rect.Min.X+rect.Max.X)/2, (rect.Min.Y+rect.Max.Y)/2)
	return WriteMat(t, dir, name, crop), center
}

// WriteCorrupt 写入一个扩展名是图像但内容无法解码的文件
func WriteCorrupt(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatalf("写入损坏文件失败: %v", err)
	}
	return path
}
