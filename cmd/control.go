package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jfmyers9/seamless/internal/playback"
)

// command is an interactive playback command read from the terminal.
type command int

const (
	cmdShow command = iota // Empty line: show the current track
	cmdPause
	cmdResume
	cmdSkip
	cmdStop
	cmdQuit
	cmdVolume
	cmdHelp
	cmdUnknown
)

// parseCommand maps an input line to a command and its argument, if any.
// Commands accept their first letter as a shorthand.
func parseCommand(line string) (command, string) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return cmdShow, ""
	}

	name, arg := fields[0], strings.Join(fields[1:], " ")
	if name == "v" || name == "volume" {
		return cmdVolume, arg
	}
	if arg != "" {
		return cmdUnknown, ""
	}

	switch name {
	case "p", "pause":
		return cmdPause, ""
	case "r", "resume":
		return cmdResume, ""
	case "n", "next", "skip":
		return cmdSkip, ""
	case "s", "stop":
		return cmdStop, ""
	case "q", "quit", "exit":
		return cmdQuit, ""
	case "h", "help", "?":
		return cmdHelp, ""
	default:
		return cmdUnknown, ""
	}
}

// parseVolume reads a volume percentage between 0 and 100.
func parseVolume(arg string) (float64, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("volume must be a number between 0 and 100, got %q", arg)
	}
	return float64(n) / 100, nil
}

const commandHelp = `commands: [p]ause, [r]esume, [n]ext, [s]top, [q]uit, [v]olume 0-100, empty line shows the current track`

// player is the part of the controller the command loop drives.
type player interface {
	Pause() error
	Resume() error
	Skip() error
	Status() playback.Status
}

// mixer is the output volume control.
type mixer interface {
	SetVolume(level float64)
	Volume() float64
}

// runCommands reads commands from r until it ends or a stop or quit
// command is read. It reports whether the user asked to end the session.
func runCommands(r io.Reader, w io.Writer, p player, m mixer, printer *statusPrinter) bool {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		var err error
		kind, arg := parseCommand(line)
		switch kind {
		case cmdShow:
			printer.status(p.Status())
		case cmdPause:
			err = p.Pause()
		case cmdResume:
			err = p.Resume()
		case cmdSkip:
			err = p.Skip()
		case cmdStop, cmdQuit:
			return true
		case cmdVolume:
			if arg != "" {
				var level float64
				if level, err = parseVolume(arg); err == nil {
					m.SetVolume(level)
				}
			}
			if err == nil {
				fmt.Fprintf(w, "volume %.0f%%\n", m.Volume()*100)
			}
		case cmdHelp:
			fmt.Fprintln(w, commandHelp)
		case cmdUnknown:
			fmt.Fprintf(w, "unknown command %q\n%s\n", strings.TrimSpace(line), commandHelp)
		}

		if err != nil {
			var stateErr *playback.StateError
			if errors.As(err, &stateErr) {
				fmt.Fprintln(w, stateErr.Error())
			} else {
				fmt.Fprintf(w, "error: %v\n", err)
			}
		}
	}
	return false
}
