package main

import (
	"fmt"
	"os"
	"time"

	"github.com/zoeyai/holdfinder/internal/logger"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute 运行命令并返回退出码
// 命令失败时同样输出总耗时并关闭日志文件
func execute(args []string) int {
	startTime := time.Now()

	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.Execute()

	logger.Info("总耗时: %s", time.Since(startTime).Round(time.Millisecond))
	logger.Close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		return 1
	}
	return 0
}
