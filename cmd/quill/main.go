// quill evaluates, exports, and type-checks quill programs given as
// term-tree JSON files (see internal/termjson for the format).
package main

import (
	"os"

	"github.com/quill-lang/quill/cmd/quill/cmd"
)

func main() {
	os.Exit(cmd.Main())
}
