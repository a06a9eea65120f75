package slog

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
	"github.com/gookit/color"
)

const (
	Off = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

func init() {
	SetLogLevelString(os.Getenv("GODEBUG"))
}

// SetLogLevelString interprets the level names accepted on the command line
// and in the GODEBUG environment variable. Unrecognised values leave the
// level at Info.
func SetLogLevelString(s string) {
	switch strings.ToUpper(s) {
	case "0", "OFF", "FALSE":
		SetLogLevel(Off)
	case "FATAL":
		SetLogLevel(Fatal)
	case "ERROR":
		SetLogLevel(Error)
	case "WARN":
		SetLogLevel(Warn)
	case "INFO":
		SetLogLevel(Info)
	case "1", "TRUE", "ON", "DEBUG":
		SetLogLevel(Debug)
	case "TRACE":
		SetLogLevel(Trace)
	default:
		SetLogLevel(Info)
	}
}

type (
	// Ln prints lists of interfaces with spaces in between
	Ln func(a ...interface{})
	// F prints like fmt.Println surrounded by log details
	F func(format string, a ...interface{})
	// S prints a spew.Sdump for an interface slice
	S func(a ...interface{})
	// Chk prints the error if there is one and returns true, or returns
	// false, so it can run inside an if statement as the error test
	Chk func(e error) bool
	// Err is a pass-through function that uses fmt.Errorf to construct an
	// error and returns the error after printing it to the log
	Err func(format string, a ...interface{}) error

	LevelPrinter struct {
		Ln
		F
		S
		Chk
		Err
	}
	LevelSpec struct {
		ID        int
		Name      string
		Colorizer func(a ...interface{}) string
	}
)

var (
	currentLevel atomic.Int32
	// LevelSpecs specifies the id, string name and color-printing function
	LevelSpecs = []LevelSpec{
		{Off, "   ", color.Bit24(0, 0, 0, false).Sprint},
		{Fatal, "FTL", color.Bit24(128, 0, 0, false).Sprint},
		{Error, "ERR", color.Bit24(255, 0, 0, false).Sprint},
		{Warn, "WRN", color.Bit24(0, 255, 0, false).Sprint},
		{Info, "INF", color.Bit24(255, 255, 0, false).Sprint},
		{Debug, "DBG", color.Bit24(0, 125, 255, false).Sprint},
		{Trace, "TRC", color.Bit24(125, 0, 255, false).Sprint},
	}
)

// Log is a set of log printers for the various Level items.
type Log struct {
	F, E, W, I, D, T LevelPrinter
}

// Check is the set of Chk level printers from a Log.
type Check struct {
	F, E, W, I, D, T Chk
}

func SetLogLevel(l int) { currentLevel.Store(int32(l)) }

func GetLogLevel() (l int) { return int(currentLevel.Load()) }

func GetLoc(skip int) (output string) {
	_, file, line, _ := runtime.Caller(skip)
	output = color.Bit24(0, 128, 255, false).Sprint(file, ":", line)
	return
}

func joinStrings(a ...any) (s string) {
	for i := range a {
		s += fmt.Sprint(a[i])
		if i < len(a)-1 {
			s += " "
		}
	}
	return
}

func getPrinter(l int32, writer io.Writer) LevelPrinter {
	tag := func() string {
		return LevelSpecs[l].Colorizer(LevelSpecs[l].Name)
	}
	return LevelPrinter{
		Ln: func(a ...interface{}) {
			if currentLevel.Load() < l {
				return
			}
			fmt.Fprintf(writer, "%s %s %s\n", tag(), joinStrings(a...),
				GetLoc(2))
		},
		F: func(format string, a ...interface{}) {
			if currentLevel.Load() < l {
				return
			}
			fmt.Fprintf(writer, "%s %s %s\n", tag(),
				fmt.Sprintf(format, a...), GetLoc(2))
		},
		S: func(a ...interface{}) {
			if currentLevel.Load() < l {
				return
			}
			fmt.Fprintf(writer, "%s %s %s\n", tag(), spew.Sdump(a...),
				GetLoc(2))
		},
		Chk: func(e error) bool {
			if e == nil {
				return false
			}
			if currentLevel.Load() >= l {
				fmt.Fprintf(writer, "%s %s %s\n", tag(), e.Error(),
					GetLoc(2))
			}
			return true
		},
		Err: func(format string, a ...interface{}) error {
			if currentLevel.Load() >= l {
				fmt.Fprintf(writer, "%s %s %s\n", tag(),
					fmt.Sprintf(format, a...), GetLoc(2))
			}
			return fmt.Errorf(format, a...)
		},
	}
}

func New(writer io.Writer) (l *Log, c *Check) {
	l = &Log{
		F: getPrinter(Fatal, writer),
		E: getPrinter(Error, writer),
		W: getPrinter(Warn, writer),
		I: getPrinter(Info, writer),
		D: getPrinter(Debug, writer),
		T: getPrinter(Trace, writer),
	}
	c = &Check{
		F: l.F.Chk,
		E: l.E.Chk,
		W: l.W.Chk,
		I: l.I.Chk,
		D: l.D.Chk,
		T: l.T.Chk,
	}
	return
}

// GetStd returns a logger writing to stderr, for package-level declarations.
func GetStd() (ll *Log) {
	ll, _ = New(os.Stderr)
	return
}
