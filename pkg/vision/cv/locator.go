package cv

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// Locator 单物体 / 单场景定位器
// 策略在创建时确定，之后不会改变
type Locator struct {
	strategy    Strategy
	flann       bool
	matchOutput string
	features    FeatureStrategy
}

// LocatorOption 定位器选项
type LocatorOption func(*Locator)

// WithStrategy 设置特征策略
func WithStrategy(s Strategy) LocatorOption {
	return func(l *Locator) {
		l.strategy = s
	}
}

// WithApproximateMatching SIFT 使用 FLANN 近似近邻搜索（更快，但结果不保证可重复）
func WithApproximateMatching(enabled bool) LocatorOption {
	return func(l *Locator) {
		l.flann = enabled
	}
}

// WithMatchOutput 设置匹配可视化输出路径（仅 Locate 使用）
func WithMatchOutput(path string) LocatorOption {
	return func(l *Locator) {
		l.matchOutput = path
	}
}

// NewLocator 创建定位器
func NewLocator(opts ...LocatorOption) (*Locator, error) {
	l := &Locator{strategy: DefaultStrategy}
	for _, opt := range opts {
		opt(l)
	}

	var featureOpts []FeatureOption
	if l.flann {
		featureOpts = append(featureOpts, WithFLANN())
	}
	features, err := NewFeatureStrategy(l.strategy, featureOpts...)
	if err != nil {
		return nil, err
	}
	l.features = features
	return l, nil
}

// Strategy 返回定位器使用的策略
func (l *Locator) Strategy() Strategy {
	return l.strategy
}

// Close 释放资源
func (l *Locator) Close() {
	if l.features != nil {
		l.features.Close()
		l.features = nil
	}
}

// Scene 已提取特征的场景，批量定位时只需提取一次
type Scene struct {
	// Image 彩色场景图像（用于绘制）
	Image gocv.Mat
	// Gray 灰度场景图像（用于检测）
	Gray        gocv.Mat
	Keypoints   []gocv.KeyPoint
	Descriptors gocv.Mat
}

// Close 释放资源
func (s *Scene) Close() {
	s.Image.Close()
	s.Gray.Close()
	s.Descriptors.Close()
}

// IndexScene 提取场景特征，scene 会被克隆，调用方仍持有原图
func (l *Locator) IndexScene(scene gocv.Mat) *Scene {
	gray := ToGray(scene)
	kp, desc := l.features.Detect(gray)
	return &Scene{
		Image:       ToColor(scene),
		Gray:        gray,
		Keypoints:   kp,
		Descriptors: desc,
	}
}

// LoadScene 读取并索引场景图像
func (l *Locator) LoadScene(path string) (*Scene, error) {
	img, err := ReadImage(path)
	if err != nil {
		img.Close()
		return nil, err
	}
	defer img.Close()
	return l.IndexScene(img), nil
}

// LocateIn 在已索引的场景中定位物体
// 物体没有特征点或没有通过过滤的对应点时 Position 为 nil
func (l *Locator) LocateIn(object gocv.Mat, scene *Scene) *Localization {
	startTime := time.Now()

	gray := ToGray(object)
	defer gray.Close()

	kp, desc := l.features.Detect(gray)
	defer desc.Close()

	candidates := l.features.Match(desc, scene.Descriptors)
	accepted := l.features.Accept(candidates)

	return &Localization{
		Position:        EstimatePosition(scene.Keypoints, accepted),
		Strategy:        l.strategy,
		Candidates:      len(candidates),
		Accepted:        accepted,
		ObjectKeypoints: kp,
		Time:            float64(time.Since(startTime).Microseconds()) / 1000,
	}
}

// Locate 单对图像定位：先读物体再读场景，任一解码失败即返回
// 设置了 WithMatchOutput 时输出对应点可视化
func (l *Locator) Locate(objectPath, scenePath string) (*Localization, error) {
	object, err := ReadImage(objectPath)
	defer object.Close()
	if err != nil {
		return nil, err
	}

	scene, err := l.LoadScene(scenePath)
	if err != nil {
		return nil, err
	}
	defer scene.Close()

	result := l.LocateIn(object, scene)

	if l.matchOutput != "" {
		if err := WriteCorrespondences(l.matchOutput, object, scene, result); err != nil {
			return result, fmt.Errorf("输出匹配图像失败: %w", err)
		}
	}
	return result, nil
}

// FindLocation 便捷函数：在场景图像中查找物体位置
// 没有可信位置时返回 (nil, nil)
func FindLocation(objectPath, scenePath string, opts ...LocatorOption) (*Point, error) {
	l, err := NewLocator(opts...)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	result, err := l.Locate(objectPath, scenePath)
	if err != nil {
		return nil, err
	}
	return result.Position, nil
}
