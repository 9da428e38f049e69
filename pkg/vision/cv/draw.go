package cv

import (
	"image"
	"image/color"
	"strconv"

	"gocv.io/x/gocv"
)

// 标注尺寸相对图像宽度的比例
const (
	CircleScaling = 0.05
	LineScaling   = 0.003
	TextScaling   = 0.002
)

var (
	colorRed   = color.RGBA{R: 255, A: 255}
	colorGreen = color.RGBA{G: 255, A: 255}
	colorBlue  = color.RGBA{B: 255, A: 255}
)

// LabelStyle 标注样式
type LabelStyle struct {
	CircleScale float64
	LineScale   float64
	TextScale   float64
	Color       color.RGBA
}

// DefaultLabelStyle 默认标注样式（红色）
func DefaultLabelStyle() LabelStyle {
	return LabelStyle{
		CircleScale: CircleScaling,
		LineScale:   LineScaling,
		TextScale:   TextScaling,
		Color:       colorRed,
	}
}

// scaled 按图像宽度缩放，至少为 1
func scaled(width int, factor float64) int {
	return max(int(float64(width)*factor), 1)
}

// LabelPosition 在图像上圈出位置并标注序号
func LabelPosition(img *gocv.Mat, pos Point, index int, style LabelStyle) {
	width := img.Cols()

	radius := scaled(width, style.CircleScale)
	thickness := scaled(width, style.LineScale)
	fontSize := scaled(width, style.TextScale)
	fontThickness := scaled(width, style.TextScale)

	center := image.Pt(pos.X, pos.Y)
	gocv.Circle(img, center, radius, style.Color, thickness)
	gocv.PutText(img, strconv.Itoa(index), center, gocv.FontHersheySimplex, float64(fontSize), style.Color, fontThickness)
}

// DrawCorrespondences 将物体和场景左右拼接，并用线段连接通过过滤的对应点
func DrawCorrespondences(object gocv.Mat, scene *Scene, result *Localization) gocv.Mat {
	objColor := ToColor(object)
	defer objColor.Close()

	out := gocv.NewMat()
	gocv.DrawMatches(objColor, result.ObjectKeypoints, scene.Image, scene.Keypoints,
		toDMatches(result.Accepted), &out, colorGreen, colorBlue, nil, gocv.DrawDefault)
	return out
}

// WriteCorrespondences 绘制并保存对应点可视化
func WriteCorrespondences(filename string, object gocv.Mat, scene *Scene, result *Localization) error {
	out := DrawCorrespondences(object, scene, result)
	defer out.Close()
	return WriteImage(filename, out)
}
