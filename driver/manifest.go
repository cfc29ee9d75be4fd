package driver

import (
	"encoding/json"
	"os"

	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/stats"
)

// Manifest is the split-mode output-directory index described in §6.2:
// the top function's name plus which emitted file holds each back end's
// output. No ecosystem JSON library appears anywhere in the retrieved
// pack, so encoding/json is the grounded choice (see DESIGN.md).
type Manifest struct {
	Top            string   `json:"top"`
	VerilogModules []string `json:"verilog_modules"`
	CppModules     []string `json:"cpp_modules"`
}

// readManifest loads an existing manifest from path, returning a zero
// Manifest (not an error) if the file does not yet exist — the first
// compile into a fresh output directory has nothing to preserve.
func readManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Manifest{}, nil
	}
	if err != nil {
		return Manifest{}, diag.Wrap(err, diag.IoError, "", "", "reading manifest "+path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, diag.Wrap(err, diag.IoError, "", "", "decoding manifest "+path)
	}
	return m, nil
}

// writeManifest merges the current run's outputs into whatever manifest
// already sits at path, preserving keys this run did not touch, then
// overwrites the file — the "updating the manifest preserves untouched
// keys" rule in §6.2.
func writeManifest(path string, top string, verilogModules, cppModules []string) error {
	existing, err := readManifest(path)
	if err != nil {
		return err
	}
	if top != "" {
		existing.Top = top
	}
	if len(verilogModules) > 0 {
		existing.VerilogModules = verilogModules
	}
	if len(cppModules) > 0 {
		existing.CppModules = cppModules
	}
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return diag.Wrap(err, diag.IoError, "", "", "encoding manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return diag.Wrap(err, diag.IoError, "", "", "writing manifest "+path)
	}
	return nil
}

// writeStats always overwrites compile_stats.json in split mode, per
// §9's Open Question resolution.
func writeStats(path string, s stats.Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return diag.Wrap(err, diag.IoError, "", "", "encoding stats record")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return diag.Wrap(err, diag.IoError, "", "", "writing stats record "+path)
	}
	return nil
}
