package motion

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strconv"

	"gocv.io/x/gocv"
)

var (
	colorBlue  = color.RGBA{B: 255, A: 255}
	colorGreen = color.RGBA{G: 255, A: 255}
	colorRed   = color.RGBA{R: 255, A: 255}
)

// FrameSource 视频帧来源，gocv.VideoCapture 满足该接口
type FrameSource interface {
	Read(m *gocv.Mat) bool
}

// FrameSink 标注后的帧输出，gocv.VideoWriter 满足该接口
type FrameSink interface {
	Write(img gocv.Mat) error
}

// FrameResult 单帧检测结果
type FrameResult struct {
	Index   int
	Regions []Region
}

// StreamStats 处理统计
type StreamStats struct {
	Frames        int
	HoldRegions   int
	ClimberFrames int
}

// Stream 逐帧读取、检测、标注
type Stream struct {
	detector  *Detector
	sink      FrameSink
	maxFrames int
	onFrame   func(FrameResult)
}

// StreamOption Stream 选项
type StreamOption func(*Stream)

// WithSink 设置输出
func WithSink(sink FrameSink) StreamOption {
	return func(s *Stream) {
		s.sink = sink
	}
}

// WithMaxFrames 最多处理的帧数，0 表示不限制
func WithMaxFrames(n int) StreamOption {
	return func(s *Stream) {
		s.maxFrames = n
	}
}

// WithFrameCallback 每帧处理后回调
func WithFrameCallback(fn func(FrameResult)) StreamOption {
	return func(s *Stream) {
		s.onFrame = fn
	}
}

// NewStream 创建视频流处理器
func NewStream(detector *Detector, opts ...StreamOption) *Stream {
	s := &Stream{detector: detector}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run 处理到流结束、达到最大帧数或 ctx 取消为止
// 每次 Run 都从新的参考帧开始，上一段流的参考帧不会参与差分
func (s *Stream) Run(ctx context.Context, src FrameSource) (StreamStats, error) {
	var stats StreamStats
	s.detector.Reset()

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if s.maxFrames > 0 && stats.Frames >= s.maxFrames {
			return stats, nil
		}
		if ok := src.Read(&frame); !ok || frame.Empty() {
			return stats, nil
		}

		regions, err := s.detector.Process(frame)
		if err != nil {
			return stats, err
		}
		stats.Frames++

		climbing := false
		for _, r := range regions {
			if r.Kind == RegionHold {
				stats.HoldRegions++
			} else {
				climbing = true
			}
		}
		if climbing {
			stats.ClimberFrames++
		}

		if s.sink != nil {
			Annotate(&frame, regions)
			if err := s.sink.Write(frame); err != nil {
				return stats, fmt.Errorf("写入视频帧失败: %w", err)
			}
		}

		if s.onFrame != nil {
			s.onFrame(FrameResult{Index: stats.Frames - 1, Regions: regions})
		}
	}
}

// Annotate 在帧上绘制区域：岩点蓝框，攀爬者绿框并标注状态
func Annotate(frame *gocv.Mat, regions []Region) {
	climbing := false
	for _, r := range regions {
		switch r.Kind {
		case RegionHold:
			gocv.Rectangle(frame, r.Rect, colorBlue, 2)
		case RegionClimber:
			gocv.Rectangle(frame, r.Rect, colorGreen, 2)
			climbing = true
		}
	}
	if climbing {
		gocv.PutText(frame, "Status: Climbing", image.Pt(50, 50), gocv.FontHersheySimplex, 1, colorRed, 3)
	}
}

// OpenSource 打开视频文件或摄像头（纯数字视为设备号）
func OpenSource(name string) (*gocv.VideoCapture, error) {
	var device interface{} = name
	if id, err := strconv.Atoi(name); err == nil {
		device = id
	}
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("打开视频失败: %w", err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("打开视频失败: %s", name)
	}
	return vc, nil
}

// OpenSink 按视频源的尺寸和帧率创建 MJPG 输出
func OpenSink(path string, src *gocv.VideoCapture) (*gocv.VideoWriter, error) {
	fps := src.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 25
	}
	width := int(src.Get(gocv.VideoCaptureFrameWidth))
	height := int(src.Get(gocv.VideoCaptureFrameHeight))

	w, err := gocv.VideoWriterFile(path, "MJPG", fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("创建视频输出失败: %w", err)
	}
	return w, nil
}
