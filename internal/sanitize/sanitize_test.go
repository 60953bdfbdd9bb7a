package sanitize

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/filippog/doaddoad/internal/corpus"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"link stripped", "check http://example.com/x out", "check  out"},
		{"https uppercase scheme", "see HTTPS://Example.com/a?b=c now", "see  now"},
		{"bare scheme", "broken http:// link", "broken  link"},
		{"link at end", "read this https://t.co/abc", "read this "},
		{"whitespace collapsed", "a \t\n  b\r\n\vc", "a b c"},
		{"non-ascii dropped", "caffè ☕ latte", "caff latte"},
		{"non-ascii then collapse", "a ☕ b", "a b"},
		{"invalid utf8 dropped", "ok\xffok", "okok"},
		{"plain", "hello world", "hello world"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Sanitize(tt.in))
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func posts(texts ...string) []*corpus.Post {
	out := make([]*corpus.Post, len(texts))
	for i, text := range texts {
		out[i] = &corpus.Post{ID: int64(i + 1), Text: text}
	}
	return out
}

func TestInputsYieldsEveryPostOnce(t *testing.T) {
	ps := posts("one", "two", "three", "four", "five")
	rng := rand.New(rand.NewPCG(1, 2))

	var got []string
	for in := range Inputs(ps, "", rng) {
		got = append(got, string(in))
	}

	slices.Sort(got)
	want := []string{"five", "four", "one", "three", "two"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Inputs mismatch (-want +got):\n%s", diff)
	}
}

func TestInputsDeterministicWithSeed(t *testing.T) {
	ps := posts("a", "b", "c", "d", "e", "f", "g", "h")

	collect := func(seed uint64) []string {
		var out []string
		for in := range Inputs(ps, "", rand.New(rand.NewPCG(seed, seed))) {
			out = append(out, string(in))
		}
		return out
	}

	if diff := cmp.Diff(collect(7), collect(7)); diff != "" {
		t.Errorf("same seed produced different orders:\n%s", diff)
	}
}

func TestInputsLanguageFilter(t *testing.T) {
	ps := posts(
		"The weather today is lovely and I am going for a long walk in the park",
		"Oggi il tempo è bellissimo e vado a fare una lunga passeggiata nel parco",
		"I really enjoyed the concert last night, the band played all my favourite songs",
	)

	var got []string
	for in := range Inputs(ps, "en", rand.New(rand.NewPCG(3, 4))) {
		got = append(got, string(in))
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 english inputs, got %d: %q", len(got), got)
	}
	for _, in := range got {
		if in == string(Sanitize(ps[1].Text)) {
			t.Errorf("italian post leaked through the filter: %q", in)
		}
	}
}

func TestJoin(t *testing.T) {
	ps := posts("a  b", "c")
	got := string(Join(Inputs(ps, "", rand.New(rand.NewPCG(0, 0)))))
	if got != "a b c" && got != "c a b" {
		t.Errorf("Join = %q, want single-space joined inputs", got)
	}

	if got := Join(Inputs(nil, "", nil)); len(got) != 0 {
		t.Errorf("Join of no inputs = %q, want empty", got)
	}
}
