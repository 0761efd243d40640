// Package repl implements the interactive command loop of the client.
//
// Each input line is split into a verb and the remainder after the first run
// of whitespace:
//
//   - setcps <cps>     sends {"cps": <float>}
//   - play <pattern>   sends {"pattern": <text>}
//   - stop             sends {}
//   - quit             ends the loop (also on end of input)
//
// The cps argument is parsed leniently: the longest numeric prefix is used and
// anything without one becomes 0.
package repl
