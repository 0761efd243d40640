package repl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/remote-agent-terminal/patternrelay/internal/config"
	"github.com/remote-agent-terminal/patternrelay/internal/logging"
	"github.com/remote-agent-terminal/patternrelay/internal/model"
)

const (
	Prompt = "> "

	usageSetCPS    = "Usage: setcps <cps>"
	usagePlay      = "Usage: play <pattern>"
	unknownCommand = "Unknown command. Type 'quit' to exit."
)

var errLineTooLong = errors.New("line too long")

// Sender is the part of a session the loop drives.
type Sender interface {
	Send(msgType model.MessageType, content model.Content) error
	Disconnect() error
}

// Loop reads operator commands and forwards them to a Sender.
type Loop struct {
	in      *bufio.Reader
	out     io.Writer
	sender  Sender
	logger  zerolog.Logger
	maxLine int
}

// NewLoop creates a command loop over the given input and output.
func NewLoop(in io.Reader, out io.Writer, sender Sender, logger zerolog.Logger) *Loop {
	return &Loop{
		in:      bufio.NewReader(in),
		out:     out,
		sender:  sender,
		logger:  logging.Component(logger, "repl"),
		maxLine: config.MaxCommandLineSize,
	}
}

// Run processes lines until quit, end of input or ctx is done, then
// disconnects the sender exactly once.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if err := l.sender.Disconnect(); err != nil {
			l.logger.Warn().Err(err).Msg("Disconnect failed")
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(l.out, Prompt)
		line, err := l.readLine()
		if errors.Is(err, errLineTooLong) {
			fmt.Fprintf(l.out, "Line too long, ignored (limit %d bytes).\n", l.maxLine)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if IsQuit(line) {
			return nil
		}

		cmd, ok := Parse(line)
		if !ok {
			continue
		}
		l.dispatch(cmd)
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxLine is consumed and reported as errLineTooLong. A final line without a
// newline is returned before io.EOF.
func (l *Loop) readLine() (string, error) {
	var (
		line     []byte
		read     bool
		overflow bool
	)
	for {
		chunk, err := l.in.ReadSlice('\n')
		read = read || len(chunk) > 0
		if !overflow {
			line = append(line, chunk...)
			// Room for a trailing \r\n.
			if len(line) > l.maxLine+2 {
				overflow = true
				line = nil
			}
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !(errors.Is(err, io.EOF) && read) {
			return "", err
		}
		break
	}

	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if overflow || len(line) > l.maxLine {
		return "", errLineTooLong
	}
	return string(line), nil
}

// dispatch handles one command. Send failures are already logged by the
// session and never end the loop.
func (l *Loop) dispatch(cmd Command) {
	var err error

	switch cmd.Verb {
	case VerbSetCPS:
		if !cmd.HasArg {
			fmt.Fprintln(l.out, usageSetCPS)
			return
		}
		err = l.sender.Send(model.MessageTypeSetCPS, model.SetCPSContent(ParseFloat(cmd.Arg)))
	case VerbPlay:
		if !cmd.HasArg {
			fmt.Fprintln(l.out, usagePlay)
			return
		}
		err = l.sender.Send(model.MessageTypePlay, model.PlayContent(cmd.Arg))
	case VerbStop:
		err = l.sender.Send(model.MessageTypeStop, model.StopContent())
	default:
		fmt.Fprintln(l.out, unknownCommand)
		return
	}

	if err != nil {
		l.logger.Debug().Err(err).Str("verb", cmd.Verb).Msg("Command not delivered")
	}
}

// PrintBanner writes the command help shown at startup.
func PrintBanner(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Pattern relay client commands:")
	fmt.Fprintln(w, "  setcps <cps>     - Set the tempo in cycles per second")
	fmt.Fprintln(w, "  play <pattern>   - Send a play command")
	fmt.Fprintln(w, "  stop             - Send a stop command")
	fmt.Fprintln(w, "  quit             - Exit the client")
	fmt.Fprintln(w)
}
