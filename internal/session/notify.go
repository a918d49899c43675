package session

import (
	"fmt"

	"github.com/kpauljoseph/pdfannotate/pkg/logger"
)

type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Notifier shows transient, non-blocking notices to the user.
type Notifier interface {
	Notify(level Level, message string)
}

type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) {
	f(level, message)
}

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Logger *logger.Logger
}

func (n LogNotifier) Notify(level Level, message string) {
	if level == LevelError {
		n.Logger.Error("%s", message)
		return
	}
	n.Logger.Info("%s", message)
}
