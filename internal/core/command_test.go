package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandBuilderSendCommand(t *testing.T) {
	b := CommandBuilder{SendCommand: "send-essay", GOOS: "linux"}

	got := b.Build(Payload{Theme: "morning walk", Lang: "en"})
	assert.Equal(t, "send-essay --theme 'morning walk' --lang en", got)

	assert.Equal(t, "send-essay", b.Build(Payload{}))
}

func TestCommandBuilderClaude(t *testing.T) {
	b := CommandBuilder{ClaudeBin: "claude", GOOS: "linux"}

	got := b.Build(Payload{Theme: "focus", Lang: "ja"})
	assert.Contains(t, got, "claude -p ")
	assert.Contains(t, got, "Theme: focus.")
	assert.Contains(t, got, "Write in Japanese.")
	assert.Contains(t, got, "--dangerously-skip-permissions")
}

func TestCommandBuilderWindowsQuoting(t *testing.T) {
	b := CommandBuilder{SendCommand: "send-essay.exe", GOOS: "windows"}

	got := b.Build(Payload{Theme: `say "hi"`, Context: "plain"})
	assert.Equal(t, `send-essay.exe --theme "say \"hi\"" --context plain`, got)

	assert.Equal(t, `python "C:\Program Files\essay\runners\Essay_a.py"`,
		b.RunnerCommand(`C:\Program Files\essay\runners\Essay_a.py`))
}

func TestRunnerCommand(t *testing.T) {
	b := CommandBuilder{GOOS: "linux"}
	assert.Equal(t, "python3 /state/runners/Essay_a.py", b.RunnerCommand("/state/runners/Essay_a.py"))

	b.Python = "/usr/bin/python3.12"
	assert.Equal(t, "/usr/bin/python3.12 /state/runners/Essay_a.py", b.RunnerCommand("/state/runners/Essay_a.py"))
}

func TestEssayPrompt(t *testing.T) {
	got := EssayPrompt(Payload{Theme: "t", Context: "c", FileList: "a.md,b.md", Lang: "auto"})
	assert.Contains(t, got, "Theme: t.")
	assert.Contains(t, got, "Context: c.")
	assert.Contains(t, got, "Reference files: a.md,b.md.")
	assert.NotContains(t, got, "Write in")
}
