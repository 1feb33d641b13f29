package virt

import "strings"

const (
	minContainerIDLen = 12
	maxContainerIDLen = 64
)

// runtimeDirs 容器运行时在挂载根路径中使用的目录名
var runtimeDirs = []string{"/docker/", "/containers/", "/containerd/", "/sandboxes/", "/libpod-", "/kubepods"}

// runtimePrefixes systemd scope 或 cgroup 段中容器 ID 前的运行时前缀
var runtimePrefixes = []string{"docker-", "cri-containerd-", "crio-", "libpod-", "containerd-"}

// mountinfoPath 本机时读取自身的挂载表；指定了宿主机根目录时读取宿主机 init 进程的挂载表，
// 因为经绑定挂载看到的 /proc/self 仍是当前容器。
func mountinfoPath(env *Env) string {
	if env.onHost() {
		return "/proc/self/mountinfo"
	}
	return "/proc/1/mountinfo"
}

// containerID 从挂载表的挂载根路径中提取容器 ID，找不到时返回空串。
func containerID(env *Env) (string, error) {
	content, err := env.readFile(mountinfoPath(env))
	if err != nil {
		return "", err
	}
	return parseContainerID(content), nil
}

// parseContainerID mountinfo 第 4 列为挂载根
func parseContainerID(mountinfo string) string {
	for _, line := range strings.Split(mountinfo, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 10 || !underRuntimeDir(fields[3]) {
			continue
		}
		for _, segment := range strings.Split(fields[3], "/") {
			if id := containerIDFromSegment(segment); id != "" {
				return id
			}
		}
	}
	return ""
}

func underRuntimeDir(root string) bool {
	for _, dir := range runtimeDirs {
		if strings.Contains(root, dir) {
			return true
		}
	}
	return false
}

// containerIDFromSegment 去掉运行时前缀和 .scope 后缀，剩余部分为 12 到 64 位十六进制时视为容器 ID。
func containerIDFromSegment(segment string) string {
	id := strings.TrimSuffix(segment, ".scope")
	for _, prefix := range runtimePrefixes {
		if rest, ok := strings.CutPrefix(id, prefix); ok {
			id = rest
			break
		}
	}
	if len(id) < minContainerIDLen || len(id) > maxContainerIDLen {
		return ""
	}
	if strings.IndexFunc(id, notHex) >= 0 {
		return ""
	}
	return strings.ToLower(id)
}

func notHex(r rune) bool {
	return !('0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F')
}
