package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoeyai/holdfinder/internal/logger"
	"github.com/zoeyai/holdfinder/pkg/config"
)

// app 命令共享的状态
type app struct {
	configPath string
	loader     *config.Loader
	settings   *config.Settings
}

func newRootCommand() *cobra.Command {
	a := &app{loader: config.NewLoader()}

	rootCmd := &cobra.Command{
		Use:           "holdfinder",
		Short:         "在岩壁图像中定位岩点",
		Long:          "holdfinder 使用特征点匹配在岩壁图像中定位岩点，并可对攀岩视频做运动区域检测。",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "配置文件路径 (yaml/json/toml)")
	rootCmd.PersistentFlags().String("log-level", "INFO", "日志级别: DEBUG, INFO, WARN, ERROR")
	rootCmd.PersistentFlags().String("log-file", "", "日志文件路径")
	rootCmd.PersistentFlags().Bool("flann", false, "SIFT 使用 FLANN 近似近邻搜索 (match 与 holds)")

	a.mustBind("log.level", rootCmd, "log-level")
	a.mustBind("log.file", rootCmd, "log-file")
	a.mustBind("approximate", rootCmd, "flann")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		settings, err := a.loader.Load(a.configPath)
		if err != nil {
			return err
		}
		a.settings = settings

		if err := logger.Configure(settings.Log.Level, settings.Log.File); err != nil {
			return err
		}
		return nil
	}

	rootCmd.AddCommand(
		matchCommand(a),
		holdsCommand(a),
		trackCommand(a),
		versionCommand(),
	)

	return rootCmd
}

// mustBind 绑定参数到配置键，参数名写错属于编程错误
func (a *app) mustBind(key string, cmd *cobra.Command, flag string) {
	if err := a.loader.BindFlag(key, cmd, flag); err != nil {
		panic(err)
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "holdfinder v%s\n", Version)
			fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}
