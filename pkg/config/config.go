// Package config 提供 holdfinder 的配置：默认值、可选配置文件和命令行参数绑定
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LabelSettings 岩点标注尺寸（相对岩壁图像宽度）
type LabelSettings struct {
	CircleScale float64 `mapstructure:"circle_scale"`
	LineScale   float64 `mapstructure:"line_scale"`
	TextScale   float64 `mapstructure:"text_scale"`
}

// MotionSettings 运动检测参数
type MotionSettings struct {
	BlurSize         int     `mapstructure:"blur_size"`
	Threshold        float64 `mapstructure:"threshold"`
	DilateIterations int     `mapstructure:"dilate_iterations"`
	MinHoldArea      float64 `mapstructure:"min_hold_area"`
	MaxHoldArea      float64 `mapstructure:"max_hold_area"`
	RefreshEvery     int     `mapstructure:"refresh_every"`
	MaxFrames        int     `mapstructure:"max_frames"`
}

// LogSettings 日志配置
type LogSettings struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Settings holdfinder 配置
type Settings struct {
	// Detector 单对定位使用的特征策略 (sift / orb)
	Detector string `mapstructure:"detector"`
	// Approximate SIFT 使用 FLANN 近似搜索，结果不保证可重复
	Approximate bool           `mapstructure:"approximate"`
	Label       LabelSettings  `mapstructure:"label"`
	Motion      MotionSettings `mapstructure:"motion"`
	Log         LogSettings    `mapstructure:"log"`
}

// Defaults 默认配置
func Defaults() *Settings {
	return &Settings{
		Detector: "sift",
		Label: LabelSettings{
			CircleScale: 0.05,
			LineScale:   0.003,
			TextScale:   0.002,
		},
		Motion: MotionSettings{
			BlurSize:         21,
			Threshold:        20,
			DilateIterations: 1,
			MinHoldArea:      1300,
			MaxHoldArea:      5000,
			RefreshEvery:     50,
			MaxFrames:        0,
		},
		Log: LogSettings{
			Level: "INFO",
		},
	}
}

// setDefaults 将默认值注册到 viper
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("detector", d.Detector)
	v.SetDefault("approximate", d.Approximate)
	v.SetDefault("label.circle_scale", d.Label.CircleScale)
	v.SetDefault("label.line_scale", d.Label.LineScale)
	v.SetDefault("label.text_scale", d.Label.TextScale)
	v.SetDefault("motion.blur_size", d.Motion.BlurSize)
	v.SetDefault("motion.threshold", d.Motion.Threshold)
	v.SetDefault("motion.dilate_iterations", d.Motion.DilateIterations)
	v.SetDefault("motion.min_hold_area", d.Motion.MinHoldArea)
	v.SetDefault("motion.max_hold_area", d.Motion.MaxHoldArea)
	v.SetDefault("motion.refresh_every", d.Motion.RefreshEvery)
	v.SetDefault("motion.max_frames", d.Motion.MaxFrames)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Loader 配置加载器，绑定命令行参数后再 Load，参数优先级高于配置文件
type Loader struct {
	v *viper.Viper
}

// NewLoader 创建加载器
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)
	return &Loader{v: v}
}

// BindFlag 将命令行参数绑定到配置键
func (l *Loader) BindFlag(key string, cmd *cobra.Command, flag string) error {
	f := cmd.Flags().Lookup(flag)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(flag)
	}
	if f == nil {
		return fmt.Errorf("参数不存在: %s", flag)
	}
	return l.v.BindPFlag(key, f)
}

// Load 读取配置；path 为空时只使用默认值和命令行参数
func (l *Loader) Load(path string) (*Settings, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var s Settings
	if err := l.v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return &s, nil
}
