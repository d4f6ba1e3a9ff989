package script

import (
	"strings"
	"testing"
	"time"

	"essaycron/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerScript(t *testing.T) {
	r := NewRenderer()
	out, err := r.RunnerScript(core.MonthlySpec{Kind: core.MonthlyLastDay}, `claude -p 'Theme: "rain"' --dangerously-skip-permissions`)
	require.NoError(t, err)

	script := string(out)
	assert.True(t, strings.HasPrefix(script, "#!/usr/bin/env python3\n"))
	assert.Contains(t, script, "from datetime import date, timedelta")
	assert.Contains(t, script, "    return (today + timedelta(days=1)).month != today.month\n")
	assert.Contains(t, script, `COMMAND = "claude -p 'Theme: \"rain\"' --dangerously-skip-permissions"`)
	assert.Contains(t, script, "subprocess.call(COMMAND, shell=True)")
	assert.Contains(t, script, "last_day")
}

func TestRunnerScriptPredicates(t *testing.T) {
	r := NewRenderer()
	out, err := r.RunnerScript(core.MonthlySpec{Kind: core.MonthlyNthWeekday, Ordinal: 3, Weekday: time.Wednesday}, "x")
	require.NoError(t, err)
	assert.Contains(t, string(out), "return today.weekday() == 2 and ((today.day - 1) // 7) + 1 == 3")

	_, err = r.RunnerScript(core.MonthlySpec{}, "x")
	assert.Error(t, err)
}

func TestWaiterScript(t *testing.T) {
	r := NewRenderer()
	target := time.Date(2024, time.May, 10, 21, 30, 0, 0, time.Local)
	out, err := r.WaiterScript(target, "send-essay --theme 'night & day'", `/home/u/.claude/plugins/.emailingessay/essay_wait.log`)
	require.NoError(t, err)

	script := string(out)
	assert.Contains(t, script, "TARGET = datetime(2024, 5, 10, 21, 30)")
	assert.Contains(t, script, `COMMAND = "send-essay --theme 'night & day'"`)
	assert.Contains(t, script, `LOG_PATH = "/home/u/.claude/plugins/.emailingessay/essay_wait.log"`)
	assert.Contains(t, script, "stderr=subprocess.STDOUT")
}

func TestPyStringEscapes(t *testing.T) {
	got, err := pyString("C:\\Users\\me\\essay_wait.log")
	require.NoError(t, err)
	assert.Equal(t, `"C:\\Users\\me\\essay_wait.log"`, got)

	got, err = pyString("line\nbreak 日本")
	require.NoError(t, err)
	assert.Equal(t, `"line\nbreak 日本"`, got)
}

func TestRendererCache(t *testing.T) {
	r := NewRenderer()
	assert.Zero(t, r.Cached())

	_, err := r.RunnerScript(core.MonthlySpec{Kind: core.MonthlyLastDay}, "x")
	require.NoError(t, err)
	_, err = r.RunnerScript(core.MonthlySpec{Kind: core.MonthlyDate, Day: 1}, "y")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Cached())

	_, err = r.WaiterScript(time.Now().Add(time.Hour), "x", "log")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Cached())

	r.Clear()
	assert.Zero(t, r.Cached())
}
