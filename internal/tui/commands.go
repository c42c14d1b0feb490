package tui

import (
	"fmt"
	"strings"

	"docchat/internal/domain"
)

// command is a slash command typed into the input line.
type command struct {
	name string
	arg  string
}

// parseCommand splits "/name arg..." into its parts. Lines that do not
// start with a slash are questions, not commands.
func parseCommand(line string) (command, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{}, false
	}
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

func (c command) mode() (domain.ChatMode, error) {
	mode, ok := domain.ParseChatMode(strings.ToLower(c.arg))
	if !ok {
		return "", fmt.Errorf("unknown chat mode %q (use document or web)", c.arg)
	}
	return mode, nil
}

func (c command) verbosity() (domain.Verbosity, error) {
	v, ok := domain.ParseVerbosity(strings.ToLower(c.arg))
	if !ok {
		return "", fmt.Errorf("unknown response mode %q (use concise or detailed)", c.arg)
	}
	return v, nil
}

// uploadPath strips quotes a shell user may type around a path.
func (c command) uploadPath() string {
	return strings.Trim(c.arg, `"'`)
}
