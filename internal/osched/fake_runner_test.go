package osched

import (
	"context"
	"strings"
)

type call struct {
	name  string
	args  []string
	stdin string
}

// fakeRunner answers tool invocations from a scripted handler.
type fakeRunner struct {
	calls   []call
	handler func(c call) (Result, error)
}

func (r *fakeRunner) Run(_ context.Context, stdin []byte, name string, args ...string) (Result, error) {
	c := call{name: name, args: args, stdin: string(stdin)}
	r.calls = append(r.calls, c)
	if r.handler == nil {
		return Result{}, nil
	}
	return r.handler(c)
}

// crontabRunner emulates `crontab -l` and `crontab -` against an in-memory table.
type crontabRunner struct {
	fakeRunner
	table    string
	hasTable bool
	readErr  bool
	writeErr bool
}

func newCrontabRunner(table string, hasTable bool) *crontabRunner {
	r := &crontabRunner{table: table, hasTable: hasTable}
	r.handler = func(c call) (Result, error) {
		switch strings.Join(c.args, " ") {
		case "-l":
			if r.readErr {
				return Result{Stderr: []byte("crontab: cannot open /var/spool/cron/crontabs: Permission denied\n"), ExitCode: 1}, nil
			}
			if !r.hasTable {
				return Result{Stderr: []byte("no crontab for user\n"), ExitCode: 1}, nil
			}
			return Result{Stdout: []byte(r.table)}, nil
		case "-":
			if r.writeErr {
				return Result{Stderr: []byte("crontab: permission denied\n"), ExitCode: 1}, nil
			}
			r.table = c.stdin
			r.hasTable = true
			return Result{}, nil
		}
		return Result{ExitCode: 2}, nil
	}
	return r
}
