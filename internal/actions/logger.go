package actions

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/sethvargo/go-githubactions"
)

// sink renders with funcr and writes through the action,
// V(0) as plain lines and V(1) and above as debug commands
type sink struct {
	funcr.Formatter
	action *githubactions.Action
}

// Logger returns a logr.Logger backed by the toolkit. Verbosity is 1 when
// debugging is enabled, 0 otherwise.
func (t *Toolkit) Logger() logr.Logger {
	verbosity := 0
	if t.debug {
		verbosity = 1
	}
	return logr.New(&sink{
		Formatter: funcr.NewFormatter(funcr.Options{Verbosity: verbosity}),
		action:    t.action,
	})
}

func (s sink) WithName(name string) logr.LogSink {
	s.Formatter.AddName(name)
	return &s
}

func (s sink) WithValues(kvList ...any) logr.LogSink {
	s.Formatter.AddValues(kvList)
	return &s
}

func (s sink) Info(level int, msg string, kvList ...any) {
	prefix, args := s.FormatInfo(level, msg, kvList)
	line := join(prefix, args)
	if level > 0 {
		s.action.Debugf("%s", line)
		return
	}
	s.action.Infof("%s", line)
}

func (s sink) Error(err error, msg string, kvList ...any) {
	prefix, args := s.FormatError(err, msg, kvList)
	s.action.Warningf("%s", join(prefix, args))
}

func join(prefix, args string) string {
	if prefix == "" {
		return args
	}
	return prefix + ": " + args
}
