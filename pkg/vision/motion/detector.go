// Package motion 基于帧差的运动区域检测
//
// 与特征点定位无关：维护参考帧和当前帧两个缓冲区，
// 对两帧做差、模糊、二值化、膨胀后提取外轮廓，按面积区分岩点大小的区域和攀爬者大小的区域。
// 参考帧每隔 RefreshEvery 帧更新为当前帧。
package motion

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// RegionKind 运动区域类别
type RegionKind int

const (
	// RegionHold 岩点大小的区域
	RegionHold RegionKind = iota
	// RegionClimber 攀爬者大小的区域
	RegionClimber
)

func (k RegionKind) String() string {
	switch k {
	case RegionHold:
		return "hold"
	case RegionClimber:
		return "climber"
	default:
		return "unknown"
	}
}

// Region 运动区域
type Region struct {
	Rect image.Rectangle `json:"rect"`
	Area float64         `json:"area"`
	Kind RegionKind      `json:"kind"`
}

// Config 检测参数
type Config struct {
	// BlurSize 高斯模糊核大小（奇数）
	BlurSize int
	// Threshold 二值化阈值
	Threshold float32
	// DilateIterations 膨胀次数
	DilateIterations int
	// MinHoldArea / MaxHoldArea 岩点区域面积范围（开区间）
	MinHoldArea float64
	MaxHoldArea float64
	// RefreshEvery 参考帧更新间隔（帧）
	RefreshEvery int
}

// DefaultConfig 默认检测参数
func DefaultConfig() Config {
	return Config{
		BlurSize:         21,
		Threshold:        20,
		DilateIterations: 1,
		MinHoldArea:      1300,
		MaxHoldArea:      5000,
		RefreshEvery:     50,
	}
}

// Validate 检查参数
func (c Config) Validate() error {
	if c.BlurSize <= 0 || c.BlurSize%2 == 0 {
		return fmt.Errorf("模糊核大小必须为正奇数: %d", c.BlurSize)
	}
	if c.RefreshEvery <= 0 {
		return fmt.Errorf("参考帧更新间隔必须为正: %d", c.RefreshEvery)
	}
	if c.MinHoldArea < 0 || c.MaxHoldArea <= c.MinHoldArea {
		return fmt.Errorf("岩点面积范围无效: (%.0f, %.0f)", c.MinHoldArea, c.MaxHoldArea)
	}
	if c.DilateIterations < 0 {
		return fmt.Errorf("膨胀次数不能为负: %d", c.DilateIterations)
	}
	return nil
}

// Classify 按面积分类，不在任何范围内返回 false
func (c Config) Classify(area float64) (RegionKind, bool) {
	switch {
	case area > c.MinHoldArea && area < c.MaxHoldArea:
		return RegionHold, true
	case area >= c.MaxHoldArea:
		return RegionClimber, true
	default:
		return 0, false
	}
}

// Detector 帧差运动检测器（非并发安全）
type Detector struct {
	cfg       Config
	reference gocv.Mat
	primed    bool
	sinceRef  int
	frames    int
	kernel    gocv.Mat
}

// NewDetector 创建检测器
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{
		cfg:       cfg,
		reference: gocv.NewMat(),
		kernel:    gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}, nil
}

// Frames 已处理的帧数
func (d *Detector) Frames() int {
	return d.frames
}

// Reset 丢弃参考帧
func (d *Detector) Reset() {
	d.reference.Close()
	d.reference = gocv.NewMat()
	d.primed = false
	d.sinceRef = 0
	d.frames = 0
}

// Close 释放资源
func (d *Detector) Close() {
	d.reference.Close()
	d.kernel.Close()
}

// Process 处理一帧，返回运动区域
// 第一帧只作为参考帧，不返回区域；尺寸与参考帧不同的帧会重置参考帧
func (d *Detector) Process(frame gocv.Mat) ([]Region, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("空帧")
	}
	d.frames++

	if !d.primed || frame.Rows() != d.reference.Rows() || frame.Cols() != d.reference.Cols() ||
		frame.Type() != d.reference.Type() {
		d.setReference(frame)
		return nil, nil
	}

	regions := d.diff(frame)

	d.sinceRef++
	if d.sinceRef >= d.cfg.RefreshEvery {
		d.setReference(frame)
	}
	return regions, nil
}

func (d *Detector) setReference(frame gocv.Mat) {
	d.reference.Close()
	d.reference = frame.Clone()
	d.primed = true
	d.sinceRef = 0
}

func (d *Detector) diff(frame gocv.Mat) []Region {
	delta := gocv.NewMat()
	defer delta.Close()
	gocv.AbsDiff(d.reference, frame, &delta)

	gray := gocv.NewMat()
	defer gray.Close()
	if delta.Channels() == 1 {
		delta.CopyTo(&gray)
	} else {
		gocv.CvtColor(delta, &gray, gocv.ColorBGRToGray)
	}

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(d.cfg.BlurSize, d.cfg.BlurSize), 0, 0, gocv.BorderDefault)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(blur, &thresh, d.cfg.Threshold, 255, gocv.ThresholdBinary)

	for i := 0; i < d.cfg.DilateIterations; i++ {
		gocv.Dilate(thresh, &thresh, d.kernel)
	}

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	var regions []Region
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		kind, ok := d.cfg.Classify(area)
		if !ok {
			continue
		}
		regions = append(regions, Region{
			Rect: gocv.BoundingRect(contour),
			Area: area,
			Kind: kind,
		})
	}
	return regions
}
