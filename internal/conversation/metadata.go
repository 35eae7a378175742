package conversation

import (
	"fmt"
	"strings"
)

// Assistant turn content may carry a trailing run-metadata annotation of the
// exact shape "... [tools=<n> errors=<n> files=<paths>]". The annotation is
// control-plane bookkeeping appended by the REPL loop; it must never leak
// into summaries or model-facing renderings.

// FormatRunMetadata renders the bookkeeping suffix appended to assistant
// content after a tool-using turn. filesTouched is the comma-joined path
// list, possibly empty.
func FormatRunMetadata(toolCalls, errorCount int, filesTouched string) string {
	return fmt.Sprintf(" [tools=%d errors=%d files=%s]", toolCalls, errorCount, filesTouched)
}

// StripRunMetadata removes a trailing run-metadata suffix from content.
// The suffix is only recognized when all three of " [tools=", " errors=" and
// " files=" are present in the trailing bracket and the content ends in "]";
// anything else is left untouched.
func StripRunMetadata(content string) string {
	if !strings.HasSuffix(content, "]") {
		return content
	}
	idx := strings.LastIndex(content, " [tools=")
	if idx < 0 {
		return content
	}
	tail := content[idx:]
	if !strings.Contains(tail, " errors=") || !strings.Contains(tail, " files=") {
		return content
	}
	return strings.TrimRight(content[:idx], " ")
}
