package cv

import (
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// Strategy 特征策略枚举
type Strategy string

const (
	// StrategyBinary ORB 二进制描述子，速度快，使用交叉校验匹配
	StrategyBinary Strategy = "orb"
	// StrategyGradient SIFT 浮点描述子，更稳但更慢，使用比率测试
	StrategyGradient Strategy = "sift"
)

// DefaultStrategy 默认特征策略
const DefaultStrategy = StrategyGradient

// ParseStrategy 解析策略名称（不区分大小写）
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sift", "gradient":
		return StrategyGradient, nil
	case "orb", "binary":
		return StrategyBinary, nil
	default:
		return "", fmt.Errorf("不支持的特征策略: %s", s)
	}
}

// FeatureStrategy 特征提取 + 对应点匹配 + 过滤的组合策略
// 同一次定位中物体和场景必须使用同一个策略
type FeatureStrategy interface {
	// Name 策略名称
	Name() Strategy
	// Detect 检测特征点并计算描述子
	Detect(img gocv.Mat) ([]gocv.KeyPoint, gocv.Mat)
	// Match 对每个物体描述子返回按距离排序的候选
	Match(objectDesc, sceneDesc gocv.Mat) [][]Correspondence
	// Accept 过滤候选，返回可信的对应点
	Accept(candidates [][]Correspondence) []Correspondence
	// Close 释放资源
	Close()
}

// featureConfig 特征策略的可选配置
type featureConfig struct {
	flann bool
}

// FeatureOption 特征策略选项
type FeatureOption func(*featureConfig)

// WithFLANN SIFT 使用 FLANN 近似近邻搜索代替暴力搜索
// FLANN 的随机 kd 树依赖进程内全局随机状态，同样的输入多次运行结果可能不同
func WithFLANN() FeatureOption {
	return func(c *featureConfig) {
		c.flann = true
	}
}

// NewFeatureStrategy 按名称创建特征策略
func NewFeatureStrategy(s Strategy, opts ...FeatureOption) (FeatureStrategy, error) {
	cfg := &featureConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch s {
	case StrategyGradient:
		return newSIFTStrategy(cfg.flann), nil
	case StrategyBinary:
		return newORBStrategy(), nil
	default:
		return nil, fmt.Errorf("不支持的特征策略: %s", s)
	}
}

// SIFTStrategy SIFT 特征 + L2 距离 k=2 近邻匹配 + 比率测试
type SIFTStrategy struct {
	sift  gocv.SIFT
	flann bool
}

func newSIFTStrategy(flann bool) *SIFTStrategy {
	return &SIFTStrategy{sift: gocv.NewSIFT(), flann: flann}
}

// Name 策略名称
func (s *SIFTStrategy) Name() Strategy { return StrategyGradient }

// Detect 检测特征点
func (s *SIFTStrategy) Detect(img gocv.Mat) ([]gocv.KeyPoint, gocv.Mat) {
	mask := gocv.NewMat()
	defer mask.Close()
	return s.sift.DetectAndCompute(img, mask)
}

// Match k=2 近邻匹配，默认暴力搜索（结果确定），WithFLANN 时近似搜索
func (s *SIFTStrategy) Match(objectDesc, sceneDesc gocv.Mat) [][]Correspondence {
	// 场景描述子少于 2 个时无法计算比率
	if objectDesc.Empty() || sceneDesc.Rows() < 2 {
		return nil
	}

	var knn [][]gocv.DMatch
	if s.flann {
		matcher := gocv.NewFlannBasedMatcher()
		defer matcher.Close()
		knn = matcher.KnnMatch(objectDesc, sceneDesc, 2)
	} else {
		matcher := gocv.NewBFMatcherWithParams(gocv.NormL2, false)
		defer matcher.Close()
		knn = matcher.KnnMatch(objectDesc, sceneDesc, 2)
	}

	out := make([][]Correspondence, 0, len(knn))
	for _, ms := range knn {
		ranked := make([]Correspondence, len(ms))
		for i, m := range ms {
			ranked[i] = fromDMatch(m)
		}
		out = append(out, ranked)
	}
	return out
}

// Accept 比率测试
func (s *SIFTStrategy) Accept(candidates [][]Correspondence) []Correspondence {
	return FilterByRatio(candidates, RatioThreshold)
}

// Close 释放资源
func (s *SIFTStrategy) Close() {
	s.sift.Close()
}

// ORBStrategy ORB 特征 + 汉明距离交叉校验匹配
type ORBStrategy struct {
	orb gocv.ORB
}

func newORBStrategy() *ORBStrategy {
	return &ORBStrategy{orb: gocv.NewORB()}
}

// Name 策略名称
func (o *ORBStrategy) Name() Strategy { return StrategyBinary }

// Detect 检测特征点
func (o *ORBStrategy) Detect(img gocv.Mat) ([]gocv.KeyPoint, gocv.Mat) {
	mask := gocv.NewMat()
	defer mask.Close()
	return o.orb.DetectAndCompute(img, mask)
}

// Match 交叉校验暴力匹配，每个物体描述子最多一个候选
func (o *ORBStrategy) Match(objectDesc, sceneDesc gocv.Mat) [][]Correspondence {
	if objectDesc.Empty() || sceneDesc.Empty() {
		return nil
	}

	matcher := gocv.NewBFMatcherWithParams(gocv.NormHamming, true)
	defer matcher.Close()

	// crossCheck 模式下 k=1：非互为最近邻的描述子返回空列表
	knn := matcher.KnnMatch(objectDesc, sceneDesc, 1)
	out := make([][]Correspondence, 0, len(knn))
	for _, ms := range knn {
		if len(ms) == 0 {
			continue
		}
		out = append(out, []Correspondence{fromDMatch(ms[0])})
	}
	return out
}

// Accept 交叉校验已经剔除了歧义匹配，直接通过
func (o *ORBStrategy) Accept(candidates [][]Correspondence) []Correspondence {
	return PassThrough(candidates)
}

// Close 释放资源
func (o *ORBStrategy) Close() {
	o.orb.Close()
}
