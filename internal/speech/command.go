package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandTTS runs a local synthesizer such as espeak-ng that writes WAV to stdout
type CommandTTS struct {
	command string
	args    []string
}

// NewCommandTTS returns nil when command is empty. Text is passed as the last argument.
func NewCommandTTS(command string, args ...string) *CommandTTS {
	if command == "" {
		return nil
	}
	if len(args) == 0 && strings.HasPrefix(command, "espeak") {
		args = []string{"--stdout", "-v", "en-us", "-s", "150"}
	}
	return &CommandTTS{command: command, args: args}
}

func (c *CommandTTS) Name() string { return "command" }

func (c *CommandTTS) Synthesize(ctx context.Context, text string) (*Audio, error) {
	args := append(append([]string(nil), c.args...), text)
	cmd := exec.CommandContext(ctx, c.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w: %s", c.command, err, strings.TrimSpace(stderr.String()))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s produced no audio", c.command)
	}
	return &Audio{Data: out, ContentType: "audio/wav", Source: c.Name()}, nil
}
