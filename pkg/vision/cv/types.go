package cv

import (
	"gocv.io/x/gocv"
)

// Point 表示二维坐标点（场景像素坐标）
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Correspondence 对应点候选：物体特征点索引、场景特征点索引和描述子距离
type Correspondence struct {
	ObjectIdx int     `json:"object_idx"`
	SceneIdx  int     `json:"scene_idx"`
	Distance  float64 `json:"distance"`
}

// fromDMatch 将 gocv 匹配结果转换为 Correspondence
func fromDMatch(m gocv.DMatch) Correspondence {
	return Correspondence{
		ObjectIdx: m.QueryIdx,
		SceneIdx:  m.TrainIdx,
		Distance:  float64(m.Distance),
	}
}

// toDMatches 转换回 gocv 匹配结果（用于绘制）
func toDMatches(cs []Correspondence) []gocv.DMatch {
	out := make([]gocv.DMatch, len(cs))
	for i, c := range cs {
		out[i] = gocv.DMatch{QueryIdx: c.ObjectIdx, TrainIdx: c.SceneIdx}
	}
	return out
}

// Localization 单个物体的定位结果
type Localization struct {
	// Position 估计位置，nil 表示没有可信位置
	Position *Point `json:"position"`
	// Strategy 本次使用的特征策略
	Strategy Strategy `json:"strategy"`
	// Candidates 匹配器给出的候选数量（过滤前）
	Candidates int `json:"candidates"`
	// Accepted 通过过滤的对应点
	Accepted []Correspondence `json:"accepted,omitempty"`
	// ObjectKeypoints 物体图像的特征点（用于绘制）
	ObjectKeypoints []gocv.KeyPoint `json:"-"`
	// Time 定位耗时（毫秒）
	Time float64 `json:"time,omitempty"`
}

// Found 是否得到了可信位置
func (l *Localization) Found() bool {
	return l != nil && l.Position != nil
}
