package smbios

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	gosmbios "github.com/digitalocean/go-smbios/smbios"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/darkit/sysinfo/errdefs"
)

const (
	// entriesDir 内核按结构实例导出的原始表目录，形如 <type>-<instance>/raw
	entriesDir = "/sys/firmware/dmi/entries"
	// tablePath 完整 SMBIOS 结构流
	tablePath = "/sys/firmware/dmi/tables/DMI"
)

// Source 提供某一类型结构的完整原始字节（头部 + 格式化区 + 字符串表）。
type Source interface {
	Table(typ uint8) ([]byte, error)
}

// ReadRaw 读取 path 的全部字节，不做任何内容校验。
func ReadRaw(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errdefs.FromOS(err, path)
	}
	return buf, nil
}

// EntryPath 返回 type 结构第 0 个实例在 root 下的原始表路径。
func EntryPath(root string, typ uint8) string {
	return filepath.Join(root, entriesDir, fmt.Sprintf("%d-0", typ), "raw")
}

// SysfsSource 从 /sys/firmware/dmi/entries 读取单个结构。
type SysfsSource struct {
	Root string
}

// Table 实现 Source
func (s SysfsSource) Table(typ uint8) ([]byte, error) {
	return ReadRaw(EntryPath(s.Root, typ))
}

// StreamSource 解码整个 SMBIOS 结构流后按类型取出第一个结构并还原为原始字节。
// 在没有导出 entries 目录的内核或非 Linux 平台上作为备选。
type StreamSource struct {
	Root string

	once       sync.Once
	structures []*gosmbios.Structure
	err        error
}

// NewStreamSource 创建 StreamSource
func NewStreamSource(root string) *StreamSource {
	return &StreamSource{Root: root}
}

// Table 实现 Source
func (s *StreamSource) Table(typ uint8) ([]byte, error) {
	s.once.Do(func() {
		s.structures, s.err = s.decode()
	})
	if s.err != nil {
		return nil, s.err
	}
	for _, st := range s.structures {
		if st.Header.Type == typ {
			return encodeStructure(st), nil
		}
	}
	return nil, errors.Wrapf(errdefs.ErrNotFound, "smbios stream: no structure of type %d", typ)
}

func (s *StreamSource) decode() ([]*gosmbios.Structure, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ss, err := gosmbios.NewDecoder(rc).Decode()
	if err != nil {
		return nil, errors.Wrap(errdefs.Mark(errdefs.ErrMalformedTable, err), "smbios stream")
	}
	return ss, nil
}

// open 优先读取 root 下的 DMI 文件；root 为宿主机根目录时交给 go-smbios 按平台定位。
func (s *StreamSource) open() (io.ReadCloser, error) {
	p := filepath.Join(s.Root, tablePath)
	f, err := os.Open(p)
	if err == nil {
		return f, nil
	}
	if s.Root != "" && s.Root != "/" {
		return nil, errdefs.FromOS(err, p)
	}

	rc, _, err := gosmbios.Stream()
	if err != nil {
		return nil, errors.Wrap(errdefs.Mark(errdefs.ErrIO, err), "open smbios stream")
	}
	return rc, nil
}

// encodeStructure 把解码后的结构还原成内核 raw 文件的字节布局。
func encodeStructure(st *gosmbios.Structure) []byte {
	buf := make([]byte, 0, int(st.Header.Length)+64)
	buf = append(buf, st.Header.Type, st.Header.Length, byte(st.Header.Handle), byte(st.Header.Handle>>8))
	buf = append(buf, st.Formatted...)
	for _, str := range st.Strings {
		buf = append(buf, str...)
		buf = append(buf, 0)
	}
	if len(st.Strings) == 0 {
		buf = append(buf, 0)
	}
	return append(buf, 0)
}

type fallbackSource []Source

// Fallback 依次尝试 sources，返回第一个成功的结果；全部失败时返回最后一个错误。
func Fallback(sources ...Source) Source {
	return fallbackSource(sources)
}

func (f fallbackSource) Table(typ uint8) ([]byte, error) {
	err := errors.Wrapf(errdefs.ErrNotFound, "no smbios source for type %d", typ)
	for _, src := range f {
		var buf []byte
		if buf, err = src.Table(typ); err == nil {
			return buf, nil
		}
		log.Debug().Err(err).Uint8("type", typ).Msg("smbios source failed, trying next")
	}
	return nil, err
}
