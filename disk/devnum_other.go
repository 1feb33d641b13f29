//go:build !linux
// +build !linux

package disk

import (
	"github.com/pkg/errors"

	"github.com/darkit/sysinfo/errdefs"
)

func statDevNumber(node string) (string, error) {
	return "", errors.Wrapf(errdefs.ErrNotFound, "device number of %s", node)
}
