// Package verilog bundles the library primitives the Verilog emitter's
// instance statements depend on: pyc_reg and the memory/FIFO/CDC
// modules, so a compiled module never references an undefined module
// as long as the driver also writes these files out alongside it.
package verilog

import "embed"

//go:embed *.v
var fs embed.FS

// Names lists every bundled primitive source file.
var Names = []string{
	"pyc_reg.v",
	"pyc_sync_mem.v",
	"pyc_sync_mem_dp.v",
	"pyc_byte_mem.v",
	"pyc_fifo.v",
	"pyc_async_fifo.v",
	"pyc_cdc_sync.v",
}

// Source returns the contents of one bundled primitive file.
func Source(name string) ([]byte, error) { return fs.ReadFile(name) }

// WriteAll writes every bundled primitive into dir using write, letting
// the driver choose whatever filesystem abstraction it already uses
// (os.WriteFile in production, an in-memory fake in tests).
func WriteAll(dir string, write func(path string, data []byte) error) error {
	for _, name := range Names {
		data, err := Source(name)
		if err != nil {
			return err
		}
		if err := write(dir+"/"+name, data); err != nil {
			return err
		}
	}
	return nil
}
