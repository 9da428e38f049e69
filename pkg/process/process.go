// Package process 提供当前进程的资源占用信息
package process

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// Usage 进程资源占用
type Usage struct {
	PID        int     `json:"pid"`
	Name       string  `json:"name"`
	RSS        uint64  `json:"rss"`
	CPUPercent float64 `json:"cpu_percent"`
	Threads    int32   `json:"threads"`
}

// String 返回可读的资源占用描述
func (u *Usage) String() string {
	return fmt.Sprintf("PID=%d RSS=%.1fMB CPU=%.1f%% 线程=%d",
		u.PID, float64(u.RSS)/(1024*1024), u.CPUPercent, u.Threads)
}

// Self 获取当前进程的资源占用
func Self() (*Usage, error) {
	return ByPID(os.Getpid())
}

// ByPID 按 PID 获取进程资源占用
func ByPID(pid int) (*Usage, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("进程不存在: PID=%d", pid)
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("获取内存信息失败: %w", err)
	}

	name, _ := proc.Name()
	cpu, _ := proc.CPUPercent()
	threads, _ := proc.NumThreads()

	return &Usage{
		PID:        pid,
		Name:       name,
		RSS:        mem.RSS,
		CPUPercent: cpu,
		Threads:    threads,
	}, nil
}
