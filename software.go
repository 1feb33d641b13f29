package sysinfo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/darkit/sysinfo/errdefs"
)

const osReleasePath = "/etc/os-release"

// unameInfo 序列化时保持字段顺序
type unameInfo struct {
	Sysname    string `json:"sysname"`
	Nodename   string `json:"nodename"`
	Release    string `json:"release"`
	Version    string `json:"version"`
	Machine    string `json:"machine"`
	Domainname string `json:"domainname"`
}

func (u unameInfo) text() (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", errors.Wrap(err, "sysinfo: encode uname")
	}
	return string(b), nil
}

// readOSRelease 读取 root 下 /etc/os-release 的原始文本
func readOSRelease(root string) (string, error) {
	p := filepath.Join(root, osReleasePath)
	data, err := os.ReadFile(p)
	if err != nil {
		return "", errdefs.FromOS(err, p)
	}
	if !utf8.Valid(data) {
		return "", errors.Wrapf(errdefs.ErrEncoding, "%s is not valid UTF-8", p)
	}
	return string(data), nil
}

// uname 信息在进程生命周期内不变，只读取一次
var unameOnce = sync.OnceValues(func() (string, error) {
	info, err := readUname()
	if err != nil {
		return "", err
	}
	return info.text()
})

func cachedUname() (string, error) {
	return unameOnce()
}
