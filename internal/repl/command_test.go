package repl

import (
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
		ok   bool
	}{
		{line: "", ok: false},
		{line: "   \t ", ok: false},
		{line: "stop", want: Command{Verb: "stop"}, ok: true},
		{line: "  STOP  ", want: Command{Verb: "stop"}, ok: true},
		{line: "play bd*4 sn", want: Command{Verb: "play", Arg: "bd*4 sn", HasArg: true}, ok: true},
		{line: "play   bd  sn", want: Command{Verb: "play", Arg: "bd  sn", HasArg: true}, ok: true},
		{line: "Play\tbd", want: Command{Verb: "play", Arg: "bd", HasArg: true}, ok: true},
		{line: "setcps 0.5", want: Command{Verb: "setcps", Arg: "0.5", HasArg: true}, ok: true},
		{line: "stop now please", want: Command{Verb: "stop", Arg: "now please", HasArg: true}, ok: true},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.line)
		if ok != tt.ok {
			t.Errorf("Parse(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestIsQuit(t *testing.T) {
	for _, line := range []string{"quit", "QUIT", "  Quit\t"} {
		if !IsQuit(line) {
			t.Errorf("expected %q to quit", line)
		}
	}
	for _, line := range []string{"", "quit now", "q", "exit"} {
		if IsQuit(line) {
			t.Errorf("expected %q not to quit", line)
		}
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0.5", 0.5},
		{"1", 1},
		{"-2.25", -2.25},
		{"+3", 3},
		{"  1.5", 1.5},
		{".5", 0.5},
		{"-.5", -0.5},
		{"1.5abc", 1.5},
		{"2 3", 2},
		{"1e3", 1000},
		{"1.5E-1", 0.15},
		{"1e", 1},
		{"1e+", 1},
		{"1.", 1},
		{"1_000", 1000},
		{"1__0", 1},
		{"_1", 0},
		{"abc", 0},
		{"", 0},
		{"-", 0},
		{".", 0},
	}

	for _, tt := range tests {
		if got := ParseFloat(tt.in); got != tt.want {
			t.Errorf("ParseFloat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if got := ParseFloat("1e400"); !math.IsInf(got, 1) {
		t.Errorf("expected +Inf for overflow, got %v", got)
	}
}
