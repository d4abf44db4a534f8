// Package cli implements the terminal-singleton command line.
//
// The root command is a line driver: each input line runs in the same
// persistent shell and ':'-prefixed lines map to the terminal tools.
// "exec" runs one command and exits. Configuration comes from the
// environment (see package config) and explicitly set flags win.
package cli
