package core

import (
	"runtime"
	"strings"

	"github.com/kballard/go-shellquote"
)

// CommandBuilder produces the delegated command string that OS entries and
// waiters execute. The command is opaque to the orchestrators.
type CommandBuilder struct {
	// ClaudeBin is used when SendCommand is empty.
	ClaudeBin string
	// SendCommand, when set, is invoked directly with the payload as flags.
	SendCommand string
	// Python runs generated runner scripts.
	Python string
	// GOOS selects the quoting rules; empty means runtime.GOOS.
	GOOS string
}

// Payload is the user content forwarded to the delegated command.
type Payload struct {
	Theme    string
	Context  string
	FileList string
	Lang     string
}

// Build returns the shell command that writes and sends one essay.
func (b CommandBuilder) Build(p Payload) string {
	if send := strings.TrimSpace(b.SendCommand); send != "" {
		args := []string{}
		args = appendFlag(args, "--theme", p.Theme)
		args = appendFlag(args, "--context", p.Context)
		args = appendFlag(args, "--file-list", p.FileList)
		args = appendFlag(args, "--lang", p.Lang)
		if len(args) == 0 {
			return send
		}
		return send + " " + b.quote(args)
	}
	return b.BuildClaudeCommand(EssayPrompt(p))
}

// BuildClaudeCommand builds a non-interactive claude CLI invocation for prompt.
func (b CommandBuilder) BuildClaudeCommand(prompt string) string {
	bin := b.ClaudeBin
	if bin == "" {
		bin = "claude"
	}
	return b.quote([]string{bin, "-p", prompt, "--dangerously-skip-permissions"})
}

// RunnerCommand returns the command that executes a generated runner script.
func (b CommandBuilder) RunnerCommand(scriptPath string) string {
	python := b.Python
	if python == "" {
		python = defaultPython(b.goos())
	}
	return b.quote([]string{python, scriptPath})
}

// EssayPrompt renders the instruction handed to claude.
func EssayPrompt(p Payload) string {
	var sb strings.Builder
	sb.WriteString("Write an essay and send it by email using the emailing-essay skill.")
	if theme := strings.TrimSpace(p.Theme); theme != "" {
		sb.WriteString(" Theme: " + theme + ".")
	}
	if extra := strings.TrimSpace(p.Context); extra != "" {
		sb.WriteString(" Context: " + extra + ".")
	}
	if files := strings.TrimSpace(p.FileList); files != "" {
		sb.WriteString(" Reference files: " + files + ".")
	}
	switch strings.TrimSpace(p.Lang) {
	case "ja":
		sb.WriteString(" Write in Japanese.")
	case "en":
		sb.WriteString(" Write in English.")
	}
	return sb.String()
}

func appendFlag(args []string, flag, value string) []string {
	if strings.TrimSpace(value) == "" {
		return args
	}
	return append(args, flag, value)
}

func (b CommandBuilder) goos() string {
	if b.GOOS != "" {
		return b.GOOS
	}
	return runtime.GOOS
}

func (b CommandBuilder) quote(args []string) string {
	if b.goos() == "windows" {
		return windowsJoin(args)
	}
	return shellquote.Join(args...)
}

func defaultPython(goos string) string {
	if goos == "windows" {
		return "python"
	}
	return "python3"
}

// windowsJoin quotes arguments for cmd.exe / CreateProcess command lines.
func windowsJoin(args []string) string {
	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		quoted = append(quoted, windowsQuote(arg))
	}
	return strings.Join(quoted, " ")
}

func windowsQuote(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\"&|<>^%") {
		return arg
	}
	var sb strings.Builder
	sb.WriteByte('"')
	backslashes := 0
	for _, r := range arg {
		switch r {
		case '\\':
			backslashes++
			continue
		case '"':
			sb.WriteString(strings.Repeat(`\`, backslashes*2+1))
			sb.WriteRune(r)
		default:
			sb.WriteString(strings.Repeat(`\`, backslashes))
			sb.WriteRune(r)
		}
		backslashes = 0
	}
	sb.WriteString(strings.Repeat(`\`, backslashes*2))
	sb.WriteByte('"')
	return sb.String()
}
