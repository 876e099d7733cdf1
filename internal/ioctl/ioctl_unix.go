//go:build unix

package ioctl

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Error is a failed ioctl.
type Error struct {
	Command Command
	Err     unix.Errno
}

func (err *Error) Error() string {
	return fmt.Sprintf("ioctl %s failed: %v", err.Command, err.Err)
}

func (err *Error) Unwrap() error {
	return err.Err
}

// Do executes the ioctl call with a pointer argument.
func Do(fd uintptr, command Command, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(command), uintptr(arg))
	if errno != 0 {
		return &Error{Command: command, Err: errno}
	}
	return nil
}
