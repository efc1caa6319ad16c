package ui

import (
	"fmt"

	"github.com/svanichkin/camterm/codec"
)

// CommandKind enumerates user commands.
type CommandKind int

const (
	CmdSelectMode CommandKind = iota
	CmdNextMode
	CmdToggleFreeze
	CmdSnapshot
	CmdQuit
)

// Command is a terminal-agnostic user request. Mode is only meaningful for
// CmdSelectMode.
type Command struct {
	Kind CommandKind
	Mode codec.Mode
}

// SelectMode returns a command that switches to m.
func SelectMode(m codec.Mode) Command {
	return Command{Kind: CmdSelectMode, Mode: m}
}

func (c Command) String() string {
	switch c.Kind {
	case CmdSelectMode:
		return "mode " + c.Mode.String()
	case CmdNextMode:
		return "next mode"
	case CmdToggleFreeze:
		return "freeze"
	case CmdSnapshot:
		return "snapshot"
	case CmdQuit:
		return "quit"
	default:
		return fmt.Sprintf("command(%d)", int(c.Kind))
	}
}

// droppable reports whether the command may be discarded when the channel is
// full. Selecting a mode is idempotent, so a later selection supersedes it.
func (c Command) droppable() bool {
	return c.Kind == CmdSelectMode
}
