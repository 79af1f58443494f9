// Package core provides a small, stable facade over sigscan's internal
// engine for external integrations. It deliberately re-exports a narrow
// API surface so other tools can depend on a stable import path without
// reaching into internal implementation packages.
//
// Example:
//
//	cfg := core.Config{Root: ".", RulesPath: "rules.yar"}
//	files, err := core.Scan(cfg)
//	if err != nil { /* handle */ }
//	_ = core.MarshalMatches(os.Stdout, files)
package core
