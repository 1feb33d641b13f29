package virt

import (
	"bytes"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/darkit/sysinfo/errdefs"
)

// Runner 执行外部命令并返回标准输出
type Runner func(name string, args ...string) (string, error)

// ExecRunner 通过 os/exec 执行命令。命令以非零状态退出时仍返回已捕获的输出且不报错，
// 只有命令无法启动才视为失败。
func ExecRunner(name string, args ...string) (string, error) {
	var stdout bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), nil
		}
		return "", errors.Wrapf(errdefs.Mark(errdefs.ErrIO, err), "run %s", name)
	}
	return stdout.String(), nil
}
