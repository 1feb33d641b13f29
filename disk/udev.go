package disk

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/darkit/sysinfo/errdefs"
)

const (
	sysClassBlock = "/sys/class/block"
	udevDataDir   = "/run/udev/data"
	serialKey     = "ID_SERIAL"
)

// device sysfs 中的一个块设备节点
type device struct {
	name    string
	sysPath string
}

// udevContext 一次查询的上下文，持有查询过程中打开的全部文件句柄。
// release 关闭全部句柄，调用方必须在所有返回路径上调用它。
type udevContext struct {
	root  string
	files []*os.File
}

func newUdevContext(root string) *udevContext {
	return &udevContext{root: root}
}

func (c *udevContext) path(p string) string {
	return filepath.Join(c.root, p)
}

func (c *udevContext) open(p string) (*os.File, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, errdefs.FromOS(err, p)
	}
	c.files = append(c.files, f)
	return f, nil
}

func (c *udevContext) release() error {
	var first error
	for _, f := range c.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	c.files = nil
	return first
}

// deviceFromName 通过 /sys/class/block/<name> 的链接定位设备节点
func (c *udevContext) deviceFromName(name string) (device, error) {
	link := filepath.Join(c.path(sysClassBlock), name)
	sysPath, err := filepath.EvalSymlinks(link)
	if err != nil {
		return device{}, errdefs.FromOS(err, link)
	}
	return device{name: name, sysPath: sysPath}, nil
}

// parent 分区返回其所在的整盘；整盘返回自身。
func (c *udevContext) parent(dev device) (device, error) {
	if _, err := os.Stat(filepath.Join(dev.sysPath, "partition")); err != nil {
		if os.IsNotExist(err) {
			return dev, nil
		}
		return device{}, errdefs.FromOS(err, dev.sysPath)
	}
	dir := filepath.Dir(dev.sysPath)
	return device{name: filepath.Base(dir), sysPath: dir}, nil
}

// devNumber 读取设备号 major:minor，sysfs 中没有 dev 文件时退回 stat 设备节点。
func (c *udevContext) devNumber(dev device) (string, error) {
	p := filepath.Join(dev.sysPath, "dev")
	f, err := c.open(p)
	if err != nil {
		return statDevNumber(c.path(filepath.Join("/dev", dev.name)))
	}
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrapf(errdefs.Mark(errdefs.ErrIO, err), "read %s", p)
	}
	if line = strings.TrimSpace(line); line == "" {
		return "", errors.Wrapf(errdefs.ErrIO, "%s: empty device number", p)
	}
	return line, nil
}

// property 从 udev 数据库读取设备属性（E:KEY=VALUE 行）
func (c *udevContext) property(dev device, key string) (string, error) {
	majMin, err := c.devNumber(dev)
	if err != nil {
		return "", err
	}
	p := filepath.Join(c.path(udevDataDir), "b"+majMin)
	f, err := c.open(p)
	if err != nil {
		return "", err
	}

	prefix := "E:" + key + "="
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if value, ok := strings.CutPrefix(scanner.Text(), prefix); ok {
			return value, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrapf(errdefs.Mark(errdefs.ErrIO, err), "read %s", p)
	}
	return "", errors.Wrapf(errdefs.ErrNotFound, "%s has no %s", p, key)
}

// udevSerial 设备名 → 父磁盘 → ID_SERIAL
func udevSerial(root, name string) (serial string, err error) {
	ctx := newUdevContext(root)
	defer func() {
		if cerr := ctx.release(); cerr != nil && err == nil {
			serial, err = "", errors.Wrap(errdefs.Mark(errdefs.ErrIO, cerr), "release udev handles")
		}
	}()

	dev, err := ctx.deviceFromName(name)
	if err != nil {
		return "", err
	}
	disk, err := ctx.parent(dev)
	if err != nil {
		return "", err
	}
	serial, err = ctx.property(disk, serialKey)
	if err != nil {
		return "", err
	}
	if serial == "" {
		return "", errors.Wrapf(errdefs.ErrNotFound, "%s: empty %s", disk.name, serialKey)
	}
	return serial, nil
}
