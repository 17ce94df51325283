// Package speech renders text through the platform's command-line
// text-to-speech tool.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// ErrUnsupportedOS indicates there is no known speech tool for the current OS.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// Speaker starts one speech process per utterance.
// A new utterance interrupts the previous one.
type Speaker struct {
	// command is the executable to run.
	command string
	// args are passed before the text.
	args []string

	// mu guards current.
	mu sync.Mutex
	// current is the utterance still playing, if any.
	current *exec.Cmd
}

// New creates a Speaker that runs `command args... text`.
func New(command string, args ...string) *Speaker {
	return &Speaker{
		command: command,
		args:    args,
	}
}

// Default picks the stock speech tool for the running OS:
// - Linux:   `espeak`
// - macOS:   `say`
// - Windows: PowerShell System.Speech
func Default() (*Speaker, error) {
	osName := strings.ToLower(runtime.GOOS)

	switch {
	case strings.Contains(osName, "linux"):
		return New("espeak"), nil
	case strings.Contains(osName, "darwin"):
		return New("say"), nil
	case strings.Contains(osName, "windows"):
		return New(
			"powershell.exe",
			"-NoProfile",
			"-Command",
			"Add-Type -AssemblyName System.Speech; (New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak($args[0])",
		), nil
	default:
		return nil, fmt.Errorf("speech on %s: %w", runtime.GOOS, ErrUnsupportedOS)
	}
}

// Speak starts speaking text and returns without waiting for it to finish.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.Process != nil {
		// Flush the queue: the newest message wins.
		_ = s.current.Process.Kill()
	}

	args := append(append([]string(nil), s.args...), text)

	//nolint:gosec // The command comes from trusted configuration.
	cmd := exec.CommandContext(ctx, s.command, args...)
	if err := cmd.Start(); err != nil {
		s.current = nil

		return fmt.Errorf("start %s: %w", s.command, err)
	}

	s.current = cmd

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
