package conversation

import "testing"

func TestStripRunMetadata(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "full suffix stripped",
			in:   "Fixed bug. [tools=2 errors=0 files=a.go,b.go]",
			want: "Fixed bug.",
		},
		{
			name: "empty file list stripped",
			in:   "Done. [tools=1 errors=0 files=]",
			want: "Done.",
		},
		{
			name: "plain mention untouched",
			in:   "Note: tools=2",
			want: "Note: tools=2",
		},
		{
			name: "missing errors marker untouched",
			in:   "Done. [tools=2 files=a.go]",
			want: "Done. [tools=2 files=a.go]",
		},
		{
			name: "missing files marker untouched",
			in:   "Done. [tools=2 errors=0]",
			want: "Done. [tools=2 errors=0]",
		},
		{
			name: "no trailing bracket untouched",
			in:   "Done. [tools=2 errors=0 files=a.go] extra",
			want: "Done. [tools=2 errors=0 files=a.go] extra",
		},
		{
			name: "empty content",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripRunMetadata(tt.in); got != tt.want {
				t.Errorf("StripRunMetadata(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatRunMetadata_RoundTrips(t *testing.T) {
	content := "Refactored the parser." + FormatRunMetadata(3, 1, "parser.go,lexer.go")
	if got := StripRunMetadata(content); got != "Refactored the parser." {
		t.Errorf("formatted suffix did not strip cleanly: %q", got)
	}
}
