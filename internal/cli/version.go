package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/aretw0/cascade"
)

// Version prints the module release. Unless short is set, the Go toolchain
// and platform the binary was built for follow it.
func Version(w io.Writer, short bool) {
	v := strings.TrimSpace(cascade.Version)
	if short {
		fmt.Fprintln(w, v)
		return
	}
	fmt.Fprintf(w, "cascade %s (%s %s/%s)\n", v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
