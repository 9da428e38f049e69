// Package holds 批量定位岩点
//
// 给定一个岩点图像目录和一张岩壁图像，按文件名字典序逐个定位岩点，
// 返回与排序位置一一对应的结果列表，并可输出标注了序号的岩壁图像。
//
//	result, err := holds.FindHolds("holds/", "wall.jpg", holds.WithOutput("labeled.jpg"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range result.Records {
//	    fmt.Println(r.Index, r.Name, r.Position)
//	}
package holds

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zoeyai/holdfinder/internal/logger"
	"github.com/zoeyai/holdfinder/pkg/process"
	"github.com/zoeyai/holdfinder/pkg/vision/cv"
)

// Record 单个岩点的定位记录
type Record struct {
	// Index 排序后的序号（从 0 开始）
	Index int `json:"index"`
	// Name 岩点文件名
	Name string `json:"name"`
	// Path 岩点文件路径
	Path string `json:"path"`
	// Position 估计位置，nil 表示没有可信位置（包括图像无法解码）
	Position *cv.Point `json:"position"`
	// Accepted 通过过滤的对应点数量
	Accepted int `json:"accepted"`
	// Err 该岩点的非致命错误（如解码失败），JSON 中输出为 error 字符串
	Err error `json:"-"`
}

// MarshalJSON 附加 error 字段，区分解码失败和未匹配
func (r Record) MarshalJSON() ([]byte, error) {
	type record Record
	out := struct {
		record
		Error string `json:"error,omitempty"`
	}{record: record(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Progress 批量进度
type Progress struct {
	Done   int
	Total  int
	Record Record
}

// Result 批量定位结果
type Result struct {
	// Records 与排序后的文件一一对应
	Records []Record `json:"records"`
	// Located 得到位置的岩点数量
	Located int `json:"located"`
	// Missing 没有位置的岩点数量
	Missing int `json:"missing"`
	// Elapsed 总耗时，JSON 中输出为 elapsed_ms
	Elapsed time.Duration `json:"-"`
}

// MarshalJSON 耗时以毫秒输出
func (r Result) MarshalJSON() ([]byte, error) {
	type result Result
	return json.Marshal(struct {
		result
		ElapsedMs float64 `json:"elapsed_ms"`
	}{
		result:    result(r),
		ElapsedMs: float64(r.Elapsed.Microseconds()) / 1000,
	})
}

// Positions 按序号返回位置列表，缺失位置为 nil
func (r *Result) Positions() []*cv.Point {
	out := make([]*cv.Point, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Position
	}
	return out
}

// Finder 批量岩点定位器
type Finder struct {
	output      string
	matchDir    string
	approximate bool
	style    cv.LabelStyle
	progress func(Progress)
	log      *logger.Logger
}

// Option Finder 选项
type Option func(*Finder)

// WithOutput 设置标注后的岩壁图像输出路径
func WithOutput(path string) Option {
	return func(f *Finder) {
		f.output = path
	}
}

// WithMatchDir 设置每个岩点对应点可视化的输出目录
func WithMatchDir(dir string) Option {
	return func(f *Finder) {
		f.matchDir = dir
	}
}

// WithApproximateMatching 使用 FLANN 近似近邻搜索，结果不保证可重复
func WithApproximateMatching(enabled bool) Option {
	return func(f *Finder) {
		f.approximate = enabled
	}
}

// WithLabelStyle 设置标注样式
func WithLabelStyle(style cv.LabelStyle) Option {
	return func(f *Finder) {
		f.style = style
	}
}

// WithProgress 设置进度回调，每处理完一个岩点调用一次
func WithProgress(fn func(Progress)) Option {
	return func(f *Finder) {
		f.progress = fn
	}
}

// WithLogger 设置日志记录器
func WithLogger(l *logger.Logger) Option {
	return func(f *Finder) {
		f.log = l
	}
}

// NewFinder 创建批量定位器
func NewFinder(opts ...Option) *Finder {
	f := &Finder{
		style: cv.DefaultLabelStyle(),
		log:   logger.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindHolds 便捷函数：批量定位岩点
func FindHolds(dir, scenePath string, opts ...Option) (*Result, error) {
	return NewFinder(opts...).Find(dir, scenePath)
}

// Find 批量定位
// 目录不可用或岩壁图像无法解码时在处理任何岩点之前返回错误；
// 单个岩点失败只记为缺失，不影响后续序号
func (f *Finder) Find(dir, scenePath string) (*Result, error) {
	startTime := time.Now()

	files, err := ListHoldFiles(dir)
	if err != nil {
		return nil, err
	}

	// 批量模式固定使用 SIFT
	locator, err := cv.NewLocator(
		cv.WithStrategy(cv.StrategyGradient),
		cv.WithApproximateMatching(f.approximate),
	)
	if err != nil {
		return nil, err
	}
	defer locator.Close()

	scene, err := locator.LoadScene(scenePath)
	if err != nil {
		return nil, fmt.Errorf("读取岩壁图像失败: %w", err)
	}
	defer scene.Close()

	f.log.Info("岩壁 %s: %dx%d, %d 个特征点; 岩点 %d 个",
		scenePath, scene.Image.Cols(), scene.Image.Rows(), len(scene.Keypoints), len(files))

	result := &Result{Records: make([]Record, 0, len(files))}
	for i, file := range files {
		rec := f.locateOne(locator, scene, i, file)
		result.Records = append(result.Records, rec)
		if rec.Position != nil {
			result.Located++
		} else {
			result.Missing++
		}

		if f.progress != nil {
			f.progress(Progress{Done: i + 1, Total: len(files), Record: rec})
		}
	}

	canvas := scene.Image.Clone()
	defer canvas.Close()
	for _, rec := range result.Records {
		if rec.Position != nil {
			cv.LabelPosition(&canvas, *rec.Position, rec.Index, f.style)
		}
	}

	result.Elapsed = time.Since(startTime)
	f.log.Info("定位完成: %d/%d 个岩点, 耗时 %s", result.Located, len(files), result.Elapsed.Round(time.Millisecond))
	if usage, err := process.Self(); err == nil {
		f.log.Debug("资源占用: %s", usage)
	}

	if f.output != "" {
		if err := cv.WriteImage(f.output, canvas); err != nil {
			return result, fmt.Errorf("输出标注图像失败: %w", err)
		}
		f.log.Info("标注图像已保存到 %s", f.output)
	}

	return result, nil
}

// locateOne 定位单个岩点，错误只记录在 Record 中
func (f *Finder) locateOne(locator *cv.Locator, scene *cv.Scene, index int, file HoldFile) Record {
	rec := Record{Index: index, Name: file.Name, Path: file.Path}

	object, err := cv.ReadImage(file.Path)
	defer object.Close()
	if err != nil {
		rec.Err = err
		f.log.LogEvent("HOLD", false, 0, fmt.Sprintf("[%d] %s: %v", index, file.Name, err))
		return rec
	}

	loc := locator.LocateIn(object, scene)
	rec.Position = loc.Position
	rec.Accepted = len(loc.Accepted)

	if f.matchDir != "" {
		out := filepath.Join(f.matchDir, matchFileName(index, file.Name))
		if err := cv.WriteCorrespondences(out, object, scene, loc); err != nil {
			f.log.Warn("[%d] %s: 输出匹配图像失败: %v", index, file.Name, err)
		}
	}

	if loc.Found() {
		f.log.LogEvent("HOLD", true, loc.Time, fmt.Sprintf("[%d] %s -> (%d, %d), %d 个对应点",
			index, file.Name, loc.Position.X, loc.Position.Y, rec.Accepted))
	} else {
		f.log.LogEvent("HOLD", false, loc.Time, fmt.Sprintf("[%d] %s: 没有可信位置 (候选 %d)",
			index, file.Name, loc.Candidates))
	}
	return rec
}

// matchFileName 匹配可视化文件名：<序号>_<stem>_matches.png
// 带序号避免 a.png 与 a.jpg 写到同一个文件
func matchFileName(index int, name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return fmt.Sprintf("%d_%s_matches.png", index, stem)
}
