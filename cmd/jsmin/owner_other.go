//go:build !linux && !darwin && !netbsd && !solaris && !openbsd && !js && !wasm
// +build !linux,!darwin,!netbsd,!solaris,!openbsd,!js,!wasm

package main

import (
	"errors"
	"os"
)

// Ownership is not exposed through os.FileInfo on these platforms.
const ownershipSupported = false

type owner struct{}

func fileOwner(os.FileInfo) (owner, bool) {
	return owner{}, false
}

func (owner) chown(string) error {
	return errors.New("ownership not supported")
}
