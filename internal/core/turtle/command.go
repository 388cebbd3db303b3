package turtle

import "github.com/zeusync/arbor/internal/core/grammar"

// Command is one interpreter instruction.
type Command uint8

const (
	CommandNone Command = iota
	CommandShrink
	CommandGrow
	CommandContinue
	CommandPush
	CommandBranch
	CommandOppose
	CommandRotate120
	CommandGolden
	CommandLeaf
	CommandClose
)

// GoldenAngle is the golden ratio share of a full turn, in degrees.
const GoldenAngle = 0.618 * 360

var commandTokens = map[grammar.Token]Command{
	"-":        CommandShrink,
	"+":        CommandGrow,
	"Continue": CommandContinue,
	"(":        CommandPush,
	"Branch(":  CommandBranch,
	"Oppose(":  CommandOppose,
	"R120(":    CommandRotate120,
	"RG(":      CommandGolden,
	"Leaf":     CommandLeaf,
	")":        CommandClose,
}

// ParseCommand maps a token to its command. Unknown tokens map to
// CommandNone.
func ParseCommand(tok grammar.Token) Command {
	return commandTokens[tok]
}

// Token returns the token spelling of c, or "" for CommandNone.
func (c Command) Token() grammar.Token {
	for tok, cmd := range commandTokens {
		if cmd == c {
			return tok
		}
	}
	return ""
}

func (c Command) String() string {
	switch c {
	case CommandShrink:
		return "shrink"
	case CommandGrow:
		return "grow"
	case CommandContinue:
		return "continue"
	case CommandPush:
		return "push"
	case CommandBranch:
		return "branch"
	case CommandOppose:
		return "oppose"
	case CommandRotate120:
		return "rotate120"
	case CommandGolden:
		return "golden"
	case CommandLeaf:
		return "leaf"
	case CommandClose:
		return "close"
	default:
		return "none"
	}
}

// Opens reports whether c pushes a new drawing state.
func (c Command) Opens() bool {
	switch c {
	case CommandPush, CommandBranch, CommandOppose, CommandRotate120, CommandGolden:
		return true
	default:
		return false
	}
}

// fixedAngle is the rotation applied to the parent's branch direction by
// the phyllotaxis commands.
func (c Command) fixedAngle() float64 {
	switch c {
	case CommandOppose:
		return 180
	case CommandRotate120:
		return 120
	case CommandGolden:
		return GoldenAngle
	default:
		return 0
	}
}
