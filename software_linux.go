package sysinfo

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/darkit/sysinfo/errdefs"
)

func readUname() (unameInfo, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return unameInfo{}, errors.Wrap(errdefs.Mark(errdefs.ErrIO, err), "sysinfo: uname")
	}
	return unameInfo{
		Sysname:    unix.ByteSliceToString(u.Sysname[:]),
		Nodename:   unix.ByteSliceToString(u.Nodename[:]),
		Release:    unix.ByteSliceToString(u.Release[:]),
		Version:    unix.ByteSliceToString(u.Version[:]),
		Machine:    unix.ByteSliceToString(u.Machine[:]),
		Domainname: unix.ByteSliceToString(u.Domainname[:]),
	}, nil
}
