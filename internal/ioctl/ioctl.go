// Package ioctl issues ioctl system calls.
package ioctl

import "fmt"

// Mode is the IOCTL mode.
type Mode uint8

// Modes
const (
	None Mode = iota
	Write
	Read
)

// Command to be sent over ioctl.
type Command uintptr

func (c Command) String() string {
	if name, ok := names[c]; ok {
		return name
	}

	var (
		mode = Mode(c >> 30 & 0x03)
		size = c >> 16 & 0x3fff
		cmd  = c & 0xffff
		str  string
	)
	if mode&Write > 0 {
		str += " write"
	}
	if mode&Read > 0 {
		str += " read"
	}
	return fmt.Sprintf("ioctl%s (%d bytes) 0x%04x", str, size, uintptr(cmd))
}

var names = map[Command]string{}

// Register a name for a command, used in errors.
func Register(command Command, name string) Command {
	names[command] = name
	return command
}
