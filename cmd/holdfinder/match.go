package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoeyai/holdfinder/internal/logger"
	"github.com/zoeyai/holdfinder/pkg/vision/cv"
)

func matchCommand(a *app) *cobra.Command {
	var (
		input  string
		scene  string
		output string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "在场景图像中定位单个物体",
		Long:  "读取物体图像和场景图像，使用 SIFT (默认) 或 ORB 特征点匹配估计物体在场景中的位置。",
		Example: `  holdfinder match -i hold.png -s wall.jpg
  holdfinder match -i hold.png -s wall.jpg -o matches.png -d orb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := cv.ParseStrategy(a.settings.Detector)
			if err != nil {
				return err
			}

			opts := []cv.LocatorOption{
				cv.WithStrategy(strategy),
				cv.WithApproximateMatching(a.settings.Approximate),
			}
			if output != "" {
				opts = append(opts, cv.WithMatchOutput(output))
			}

			locator, err := cv.NewLocator(opts...)
			if err != nil {
				return err
			}
			defer locator.Close()

			result, err := locator.Locate(input, scene)
			if err != nil {
				return err
			}

			detail := fmt.Sprintf("%s in %s [%s]", input, scene, strategy)
			if result.Found() {
				detail += fmt.Sprintf(" -> (%d, %d), %d 个对应点", result.Position.X, result.Position.Y, len(result.Accepted))
			} else {
				detail += ": 没有可信位置"
			}
			logger.LogEvent("MATCH", result.Found(), result.Time, detail)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			fmt.Fprintln(out, formatPosition(result.Position))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "物体图像文件")
	cmd.Flags().StringVarP(&scene, "scene", "s", "", "场景图像文件")
	cmd.Flags().StringVarP(&output, "output", "o", "", "匹配可视化输出文件")
	cmd.Flags().StringP("detector", "d", "sift", "特征策略: sift, orb")
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出结果")
	a.mustBind("detector", cmd, "detector")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("scene")

	return cmd
}

// formatPosition 输出 "x,y"，没有位置时输出 "none"
func formatPosition(p *cv.Point) string {
	if p == nil {
		return "none"
	}
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}
