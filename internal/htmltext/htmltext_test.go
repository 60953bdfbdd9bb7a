package htmltext

import "testing"

func TestToText(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "hello world", "hello world"},
		{"paragraphs", "<p>first</p><p>second</p>", "first second"},
		{"line break", "one<br>two<br/>three", "one two three"},
		{"link keeps text", `see <a href="https://example.com">this</a> now`, "see this now"},
		{"entities", "fish &amp; chips &lt;3", "fish & chips <3"},
		{"mention span", `<span class="h-card"><a href="x">@<span>bob</span></a></span> hi`, "@bob hi"},
		{"script dropped", "<script>alert(1)</script>safe", "safe"},
		{"whitespace", "  a \n\n b  ", "a b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToText(tt.in); got != tt.want {
				t.Errorf("ToText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
