package cv

import (
	"gocv.io/x/gocv"
)

// RatioThreshold 距离比率测试阈值 (Lowe 2004)
const RatioThreshold = 0.8

// FilterByRatio 比率测试：仅当 nearest < ratio * second 时接受最近候选
// 候选少于两个的描述子被丢弃，等于阈值时拒绝
func FilterByRatio(candidates [][]Correspondence, ratio float64) []Correspondence {
	var good []Correspondence
	for _, c := range candidates {
		if len(c) < 2 {
			continue
		}
		if c[0].Distance < ratio*c[1].Distance {
			good = append(good, c[0])
		}
	}
	return good
}

// PassThrough 取每个描述子的第一个候选
func PassThrough(candidates [][]Correspondence) []Correspondence {
	var out []Correspondence
	for _, c := range candidates {
		if len(c) > 0 {
			out = append(out, c[0])
		}
	}
	return out
}

// EstimatePosition 对场景侧特征点坐标分别取平均并截断为整数
// 没有对应点时返回 nil，(0,0) 是合法位置，不能作为缺省值
func EstimatePosition(sceneKeypoints []gocv.KeyPoint, accepted []Correspondence) *Point {
	var sumX, sumY float64
	n := 0
	for _, c := range accepted {
		if c.SceneIdx < 0 || c.SceneIdx >= len(sceneKeypoints) {
			continue
		}
		kp := sceneKeypoints[c.SceneIdx]
		sumX += kp.X
		sumY += kp.Y
		n++
	}
	if n == 0 {
		return nil
	}
	return &Point{
		X: int(sumX / float64(n)),
		Y: int(sumY / float64(n)),
	}
}
