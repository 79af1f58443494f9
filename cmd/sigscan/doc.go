// Package sigscan provides the command-line interface for the sigscan tool.
// It configures subcommands (scan, compile, rules, version), parses flags,
// and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/sigscan/sigscan/cmd/sigscan"
//	func main() { sigscan.Execute() }
package sigscan
