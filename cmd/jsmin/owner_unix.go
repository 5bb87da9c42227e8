//go:build linux || darwin || netbsd || solaris || openbsd || js || wasm
// +build linux darwin netbsd solaris openbsd js wasm

package main

import (
	"os"
	"syscall"
)

const ownershipSupported = true

type owner struct {
	uid, gid int
}

func fileOwner(info os.FileInfo) (owner, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return owner{}, false
	}
	return owner{int(stat.Uid), int(stat.Gid)}, true
}

// chown gives dst the owner of the source file, it is a no-op when the owner already matches.
func (o owner) chown(dst string) error {
	if info, err := os.Stat(dst); err == nil {
		if cur, ok := fileOwner(info); ok && cur == o {
			return nil
		}
	}
	return os.Chown(dst, o.uid, o.gid)
}
