package cv

import (
	"errors"
	"fmt"
)

// ErrDecode 图像文件存在但无法解码
var ErrDecode = errors.New("无法解码图像")

// DecodeError 图像解码失败
type DecodeError struct {
	Path string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("无法读取图像: %s", e.Path)
}

// Unwrap 支持 errors.Is(err, ErrDecode)
func (e *DecodeError) Unwrap() error {
	return ErrDecode
}
