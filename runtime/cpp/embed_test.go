package cpp_test

import (
	"strings"
	"testing"

	"github.com/pycircuit/pyc/runtime/cpp"
)

func TestHeaderDefinesEveryPrimitive(t *testing.T) {
	data, err := cpp.Header()
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	src := string(data)
	for _, sym := range []string{"class pyc_reg", "class pyc_sync_mem", "class pyc_sync_mem_dp", "class pyc_fifo", "class pyc_async_fifo", "class pyc_cdc_sync"} {
		if !strings.Contains(src, sym) {
			t.Errorf("header missing %q", sym)
		}
	}
}
