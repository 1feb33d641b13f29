// Package errdefs 定义 sysinfo 各子包共用的错误类别。
//
// 调用方通过 errors.Is 判断类别，具体上下文由 github.com/pkg/errors 的 Wrap 附加。
package errdefs

import (
	"io/fs"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound 路径或设备不存在
	ErrNotFound = errors.New("sysinfo: not found")
	// ErrIO 读取文件或启动外部命令失败
	ErrIO = errors.New("sysinfo: i/o error")
	// ErrMalformedTable SMBIOS 结构过短或字符串索引越界
	ErrMalformedTable = errors.New("sysinfo: malformed smbios table")
	// ErrDeviceLookup 设备枚举（udev 数据库 / 块设备清单）未返回有效句柄
	ErrDeviceLookup = errors.New("sysinfo: device lookup failed")
	// ErrEncoding 需要文本的位置出现了非文本字节
	ErrEncoding = errors.New("sysinfo: invalid text encoding")
)

// kindError 把类别和原始错误绑在一起，errors.Is 同时能匹配两者。
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// Mark 给 cause 打上类别 kind；cause 为 nil 时返回 nil。
func Mark(kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &kindError{kind: kind, cause: cause}
}

// FromOS 把文件系统错误归类为 ErrNotFound 或 ErrIO。
func FromOS(err error, path string) error {
	if err == nil {
		return nil
	}
	kind := ErrIO
	if errors.Is(err, fs.ErrNotExist) {
		kind = ErrNotFound
	}
	return errors.Wrapf(Mark(kind, err), "read %s", path)
}
