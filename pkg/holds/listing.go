package holds

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrDirectory 岩点目录不存在、不是目录或没有常规文件
var ErrDirectory = errors.New("岩点目录不可用")

// DirectoryError 岩点目录错误
type DirectoryError struct {
	Dir    string
	Reason string
	Err    error
}

func (e *DirectoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("岩点目录 %s %s: %v", e.Dir, e.Reason, e.Err)
	}
	return fmt.Sprintf("岩点目录 %s %s", e.Dir, e.Reason)
}

// Unwrap 支持 errors.Is(err, ErrDirectory)
func (e *DirectoryError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDirectory, e.Err}
	}
	return []error{ErrDirectory}
}

// HoldFile 岩点图像文件
type HoldFile struct {
	// Name 文件名（排序键）
	Name string `json:"name"`
	// Path 完整路径
	Path string `json:"path"`
}

// ListHoldFiles 列出目录下的常规文件（跟随符号链接），按文件名字典序排序
// 顺序与文件系统遍历顺序无关，同一目录内容每次结果相同
func ListHoldFiles(dir string) ([]HoldFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &DirectoryError{Dir: dir, Reason: "无法访问", Err: err}
	}
	if !info.IsDir() {
		return nil, &DirectoryError{Dir: dir, Reason: "不是目录"}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DirectoryError{Dir: dir, Reason: "读取失败", Err: err}
	}

	var files []HoldFile
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		files = append(files, HoldFile{Name: entry.Name(), Path: path})
	}

	if len(files) == 0 {
		return nil, &DirectoryError{Dir: dir, Reason: "没有常规文件"}
	}

	SortHoldFiles(files)
	return files, nil
}

// SortHoldFiles 按文件名字典序排序（字节序）
func SortHoldFiles(files []HoldFile) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
}
