// Package pemeta builds the auxiliary data object exposed to rules through
// the engine's module-data channel: a parsed summary of a PE executable.
// Rules reference it by importing the module named by ModuleName.
package pemeta

import (
	"debug/pe"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ModuleName is the fixed module identifier rules use to reference the
// PE metadata object.
const ModuleName = "pemeta"

// Section summarizes one PE section.
type Section struct {
	Name        string  `json:"name"`
	VirtualSize uint32  `json:"virtual_size"`
	RawSize     uint32  `json:"raw_size"`
	Entropy     float64 `json:"entropy"`
}

// Import lists the symbols pulled from one library.
type Import struct {
	Library string   `json:"library"`
	Symbols []string `json:"symbols"`
}

// Report is the caller-constructed PE summary handed to the engine for one
// scan. It is treated as read-only by the scanner and never retained past
// the scan call.
type Report struct {
	Machine    string    `json:"machine"`
	Subsystem  uint16    `json:"subsystem"`
	Timestamp  time.Time `json:"timestamp"`
	EntryPoint uint32    `json:"entry_point"`
	ImageBase  uint64    `json:"image_base"`
	Sections   []Section `json:"sections"`
	Imports    []Import  `json:"imports"`
	Is64       bool      `json:"is_64"`
}

// Parse reads the PE file at path and builds its Report.
func Parse(path string) (*Report, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse PE %s: %w", path, err)
	}
	defer f.Close()

	r := &Report{
		Machine:   machineName(f.Machine),
		Timestamp: time.Unix(int64(f.TimeDateStamp), 0).UTC(),
	}

	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		r.Subsystem = oh.Subsystem
		r.EntryPoint = oh.AddressOfEntryPoint
		r.ImageBase = uint64(oh.ImageBase)
	case *pe.OptionalHeader64:
		r.Subsystem = oh.Subsystem
		r.EntryPoint = oh.AddressOfEntryPoint
		r.ImageBase = oh.ImageBase
		r.Is64 = true
	}

	for _, s := range f.Sections {
		sec := Section{
			Name:        s.Name,
			VirtualSize: s.VirtualSize,
			RawSize:     s.Size,
		}
		if data, err := s.Data(); err == nil {
			sec.Entropy = shannon(data)
		}
		r.Sections = append(r.Sections, sec)
	}

	syms, err := f.ImportedSymbols()
	if err == nil {
		r.Imports = groupImports(syms)
	}

	return r, nil
}

// ModuleData marshals the report into the byte blob the engine hands to the
// module when a rule imports it.
func (r *Report) ModuleData() ([]byte, error) {
	return json.Marshal(r)
}

// groupImports turns debug/pe's "Symbol:library.dll" strings into per-library
// import lists, sorted by library for stable output.
func groupImports(syms []string) []Import {
	byLib := make(map[string][]string)
	for _, s := range syms {
		i := strings.LastIndexByte(s, ':')
		if i < 0 {
			continue
		}
		lib := strings.ToLower(s[i+1:])
		byLib[lib] = append(byLib[lib], s[:i])
	}
	libs := make([]string, 0, len(byLib))
	for lib := range byLib {
		libs = append(libs, lib)
	}
	sort.Strings(libs)
	out := make([]Import, 0, len(libs))
	for _, lib := range libs {
		out = append(out, Import{Library: lib, Symbols: byLib[lib]})
	}
	return out
}

func shannon(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	var h float64
	total := float64(len(data))
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h
}

func machineName(m uint16) string {
	switch m {
	case pe.IMAGE_FILE_MACHINE_I386:
		return "i386"
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "amd64"
	case pe.IMAGE_FILE_MACHINE_ARM:
		return "arm"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "arm64"
	case pe.IMAGE_FILE_MACHINE_ARMNT:
		return "armnt"
	}
	return fmt.Sprintf("0x%04x", m)
}
