package verilog_test

import (
	"testing"

	libverilog "github.com/pycircuit/pyc/runtime/verilog"
)

func TestWriteAllWritesEveryNamedFile(t *testing.T) {
	written := map[string][]byte{}
	err := libverilog.WriteAll("/out", func(path string, data []byte) error {
		written[path] = data
		return nil
	})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if len(written) != len(libverilog.Names) {
		t.Fatalf("wrote %d files, want %d", len(written), len(libverilog.Names))
	}
	for _, name := range libverilog.Names {
		if _, ok := written["/out/"+name]; !ok {
			t.Errorf("missing %s in written set", name)
		}
	}
}
