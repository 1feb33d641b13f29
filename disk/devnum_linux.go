package disk

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/darkit/sysinfo/errdefs"
)

func statDevNumber(node string) (string, error) {
	var st unix.Stat_t
	if err := unix.Stat(node, &st); err != nil {
		return "", errdefs.FromOS(err, node)
	}
	rdev := uint64(st.Rdev)
	return fmt.Sprintf("%d:%d", unix.Major(rdev), unix.Minor(rdev)), nil
}
