package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zoeyai/holdfinder/internal/logger"
	"github.com/zoeyai/holdfinder/pkg/vision/motion"
)

func trackCommand(a *app) *cobra.Command {
	var (
		video  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "track",
		Short: "检测视频中的运动区域（岩点 / 攀爬者）",
		Long:  "对视频逐帧做帧差，按区域面积标记岩点大小（蓝框）和攀爬者大小（绿框）的运动区域。",
		Example: `  holdfinder track -v climb.mp4 -o annotated.avi
  holdfinder track -v 0 --max-frames 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := a.settings.Motion
			detector, err := motion.NewDetector(motion.Config{
				BlurSize:         m.BlurSize,
				Threshold:        float32(m.Threshold),
				DilateIterations: m.DilateIterations,
				MinHoldArea:      m.MinHoldArea,
				MaxHoldArea:      m.MaxHoldArea,
				RefreshEvery:     m.RefreshEvery,
			})
			if err != nil {
				return err
			}
			defer detector.Close()

			src, err := motion.OpenSource(video)
			if err != nil {
				return err
			}
			defer src.Close()

			opts := []motion.StreamOption{motion.WithMaxFrames(m.MaxFrames)}
			if output != "" {
				sink, err := motion.OpenSink(output, src)
				if err != nil {
					return err
				}
				defer sink.Close()
				opts = append(opts, motion.WithSink(sink))
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stats, err := motion.NewStream(detector, opts...).Run(ctx, src)
			logger.Info("处理 %d 帧: 岩点区域 %d 个, 攀爬帧 %d", stats.Frames, stats.HoldRegions, stats.ClimberFrames)
			if errors.Is(err, context.Canceled) {
				logger.Warn("已中断")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&video, "video", "v", "", "视频文件或摄像头设备号")
	cmd.Flags().StringVarP(&output, "output", "o", "", "标注后的视频输出文件 (MJPG)")
	cmd.Flags().Int("max-frames", 0, "最多处理的帧数，0 表示不限制")
	a.mustBind("motion.max_frames", cmd, "max-frames")
	_ = cmd.MarkFlagRequired("video")

	return cmd
}
