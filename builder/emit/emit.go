// Package emit renders the generated firmware sources. Every emitter is a
// pure function from derived register parameters to file contents; writing
// the files to disk is the caller's concern.
package emit

import (
	"fmt"
	"strings"
)

// File is one rendered artifact. Path is slash-separated and relative to the
// project root.
type File struct {
	Path    string
	Content []byte
}

// banner renders the block comment header carried by every generated C file.
// The detail lines land in the Description section.
func banner(title, fileName, summary string, detail ...string) string {
	var w strings.Builder
	fmt.Fprintln(&w, "/*******************************************************************************")
	fmt.Fprintf(&w, "  %s\n", title)
	fmt.Fprintln(&w)
	fmt.Fprintln(&w, "  File Name:")
	fmt.Fprintf(&w, "    %s\n", fileName)
	fmt.Fprintln(&w)
	fmt.Fprintln(&w, "  Summary:")
	fmt.Fprintf(&w, "    %s\n", summary)
	if len(detail) > 0 {
		fmt.Fprintln(&w)
		fmt.Fprintln(&w, "  Description:")
		for _, line := range detail {
			fmt.Fprintf(&w, "    %s\n", line)
		}
	}
	fmt.Fprintln(&w, "*******************************************************************************/")
	return w.String()
}

func guardOpen(w *strings.Builder, guard string) {
	fmt.Fprintf(w, "\n#ifndef %s\n#define %s\n", guard, guard)
}

func guardClose(w *strings.Builder, guard string) {
	fmt.Fprintf(w, "\n#endif /* %s */\n", guard)
}

func externCOpen(w *strings.Builder) {
	fmt.Fprint(w, "\n#ifdef __cplusplus\nextern \"C\" {\n#endif\n")
}

func externCClose(w *strings.Builder) {
	fmt.Fprint(w, "\n#ifdef __cplusplus\n}\n#endif\n")
}

func onOff(v bool) int {
	if v {
		return 1
	}
	return 0
}
