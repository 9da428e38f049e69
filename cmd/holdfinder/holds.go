package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zoeyai/holdfinder/pkg/holds"
	"github.com/zoeyai/holdfinder/pkg/vision/cv"
)

func holdsCommand(a *app) *cobra.Command {
	var (
		holdsDir string
		wall     string
		output   string
		matchDir string
		progress bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "holds",
		Short: "批量定位目录中的所有岩点",
		Long: `按文件名字典序读取岩点目录中的每个文件，在岩壁图像中定位，输出序号与位置。
无法定位的岩点输出 none，不影响其他岩点的序号。
批量模式固定使用 SIFT；--flann 改用近似近邻搜索（更快，结果不保证可重复）。`,
		Example: `  holdfinder holds -d holds/ -w wall.jpg -o labeled.jpg
  holdfinder holds -d holds/ -w wall.jpg --matches debug/ --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			style := cv.DefaultLabelStyle()
			style.CircleScale = a.settings.Label.CircleScale
			style.LineScale = a.settings.Label.LineScale
			style.TextScale = a.settings.Label.TextScale

			opts := []holds.Option{
				holds.WithOutput(output),
				holds.WithMatchDir(matchDir),
				holds.WithLabelStyle(style),
				holds.WithApproximateMatching(a.settings.Approximate),
			}
			if progress {
				opts = append(opts, holds.WithProgress(progressPrinter(cmd.ErrOrStderr())))
			}

			result, err := holds.FindHolds(holdsDir, wall, opts...)
			if result == nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(result); encErr != nil {
					return encErr
				}
			} else {
				for _, rec := range result.Records {
					fmt.Fprintf(out, "%d\t%s\t%s\n", rec.Index, rec.Name, formatPosition(rec.Position))
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&holdsDir, "holds_directory", "d", "", "岩点图像目录")
	cmd.Flags().StringVarP(&wall, "wall", "w", "", "岩壁图像文件")
	cmd.Flags().StringVarP(&output, "output", "o", "", "标注后的岩壁图像输出文件")
	cmd.Flags().StringVar(&matchDir, "matches", "", "每个岩点的匹配可视化输出目录")
	cmd.Flags().BoolVar(&progress, "progress", true, "在 stderr 显示进度")
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出结果")
	_ = cmd.MarkFlagRequired("holds_directory")
	_ = cmd.MarkFlagRequired("wall")

	return cmd
}

// progressPrinter 单行刷新的进度显示
func progressPrinter(w io.Writer) func(holds.Progress) {
	return func(p holds.Progress) {
		fmt.Fprintf(w, "\r[%d/%d] %3d%% %s", p.Done, p.Total, p.Done*100/p.Total, p.Record.Name)
		if p.Done == p.Total {
			fmt.Fprintln(w)
		}
	}
}
