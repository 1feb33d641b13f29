package disk

import (
	"io"

	"github.com/moby/sys/mountinfo"
)

func readMounts(r io.Reader) ([]*mountinfo.Info, error) {
	return mountinfo.GetMountsFromReader(r, rootMounts)
}
