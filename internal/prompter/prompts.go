// Package prompter provides interactive prompts backed by IOStreams.
// Every prompt degrades to a sensible default when the streams are not
// attached to a terminal, so commands stay scriptable.
package prompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/schmitthub/slipway/internal/iostreams"
)

// Prompter asks the user for input over IOStreams.
type Prompter struct {
	ios *iostreams.IOStreams
	in  *bufio.Reader
}

// NewPrompter creates a new Prompter with the given IOStreams.
func NewPrompter(ios *iostreams.IOStreams) *Prompter {
	return &Prompter{ios: ios}
}

// reader returns the shared buffered reader over stdin. Sharing one reader
// across prompts keeps input buffered by an earlier prompt available to the
// next one.
func (p *Prompter) reader() *bufio.Reader {
	if p.in == nil {
		p.in = bufio.NewReader(p.ios.In)
	}
	return p.in
}

// PromptConfig configures a string prompt.
type PromptConfig struct {
	Message   string
	Default   string
	Required  bool
	Validator func(string) error
}

// String prompts the user for a string value.
// Returns the default if the user enters nothing.
// In non-interactive mode, returns the default without prompting.
func (p *Prompter) String(cfg PromptConfig) (string, error) {
	if !p.ios.IsInteractive() {
		if cfg.Required && cfg.Default == "" {
			return "", fmt.Errorf("required input missing in non-interactive mode")
		}
		return cfg.Default, nil
	}

	prompt := cfg.Message
	if cfg.Default != "" {
		prompt = fmt.Sprintf("%s [%s]", cfg.Message, cfg.Default)
	}

	fmt.Fprintf(p.ios.ErrOut, "%s: ", prompt)

	response, err := p.reader().ReadString('\n')
	if err != nil {
		if err == io.EOF && cfg.Default != "" {
			fmt.Fprintln(p.ios.ErrOut) // Newline for cleaner output
			return cfg.Default, nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	response = strings.TrimSpace(response)
	if response == "" {
		response = cfg.Default
	}

	if cfg.Required && response == "" {
		return "", fmt.Errorf("required input missing")
	}

	if cfg.Validator != nil {
		if err := cfg.Validator(response); err != nil {
			return "", err
		}
	}

	return response, nil
}

// Password prompts the user for a secret without echoing it.
// When stdin is a real terminal the read happens with echo disabled;
// otherwise the secret is read as a plain line so piped input and test
// buffers still work. An empty response is an error.
func (p *Prompter) Password(message string) (string, error) {
	if !p.ios.IsInteractive() {
		return "", fmt.Errorf("cannot prompt for a password in non-interactive mode")
	}

	fmt.Fprintf(p.ios.ErrOut, "%s: ", message)

	var response string
	if f, ok := p.ios.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.ios.ErrOut) // ReadPassword swallows the user's newline
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		response = string(b)
	} else {
		line, err := p.reader().ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		response = strings.TrimSpace(line)
	}

	if response == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return response, nil
}

// Confirm prompts the user for a yes/no confirmation.
// In non-interactive mode, returns the default without prompting.
func (p *Prompter) Confirm(message string, defaultYes bool) (bool, error) {
	if !p.ios.IsInteractive() {
		return defaultYes, nil
	}

	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	fmt.Fprintf(p.ios.ErrOut, "%s %s ", message, hint)

	response, err := p.reader().ReadString('\n')
	if err != nil {
		if err == io.EOF {
			fmt.Fprintln(p.ios.ErrOut) // Newline for cleaner output
			return defaultYes, nil
		}
		return false, fmt.Errorf("failed to read input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	if response == "" {
		return defaultYes, nil
	}

	return response == "y" || response == "yes", nil
}
