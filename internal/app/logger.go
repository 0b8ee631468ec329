package app

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
)

// Logger is the component-tagged logger every subsystem takes.
type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type NoopLogger struct{}

func (NoopLogger) Infof(component, format string, args ...interface{})  {}
func (NoopLogger) Errorf(component, format string, args ...interface{}) {}

// FileLogger writes plain RFC3339-stamped lines.
type FileLogger struct {
	mu *sync.Mutex
	w  io.Writer
}

func NewFileLogger(w io.Writer) FileLogger { return FileLogger{mu: &sync.Mutex{}, w: w} }

func (l FileLogger) Infof(component string, format string, args ...interface{}) {
	l.write("INFO", component, format, args...)
}

func (l FileLogger) Errorf(component string, format string, args ...interface{}) {
	l.write("ERROR", component, format, args...)
}

func (l FileLogger) write(level, component, format string, args ...interface{}) {
	timestamp := time.Now().Format(time.RFC3339)
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.w, timestamp+" ["+level+"] "+component+": "+msg+"\n")
}

var (
	levelTags = [2][2]string{
		// uncolored
		{" INFO", "ERROR"},
		// colored
		{"\033[34m INFO\033[0m", "\033[31mERROR\033[0m"},
	}
	componentFormat = [2]string{
		"%s %s [%s] ",
		"%s %s [\033[36m%s\033[0m] ",
	}
)

// ConsoleLogger colors level and component tags when f is a terminal.
type ConsoleLogger struct {
	mu    sync.Mutex
	w     io.Writer
	color int
}

func NewConsoleLogger(f *os.File) *ConsoleLogger {
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return &ConsoleLogger{w: colorable.NewColorable(f), color: 1}
	}
	return &ConsoleLogger{w: f}
}

func (l *ConsoleLogger) Infof(component string, format string, args ...interface{}) {
	l.write(0, component, format, args...)
}

func (l *ConsoleLogger) Errorf(component string, format string, args ...interface{}) {
	l.write(1, component, format, args...)
}

func (l *ConsoleLogger) write(level int, component, format string, args ...interface{}) {
	now := time.Now().Format("15:04:05")
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, componentFormat[l.color], now, levelTags[l.color][level], component)
	fmt.Fprintf(l.w, format, args...)
	_, _ = io.WriteString(l.w, "\n")
}

// Tee sends every line to all loggers.
type Tee []Logger

func (t Tee) Infof(component string, format string, args ...interface{}) {
	for _, l := range t {
		l.Infof(component, format, args...)
	}
}

func (t Tee) Errorf(component string, format string, args ...interface{}) {
	for _, l := range t {
		l.Errorf(component, format, args...)
	}
}
