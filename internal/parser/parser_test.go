package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinks(t *testing.T) {
	body := `<p>See <a href="/justreadit/book/42">Note 42</a> and
		<a href="/justreadit/note/7?from=canvas">a note</a>,
		<a href="/justreadit/note/9#top">another</a>,
		<a href="https://example.com/justreadit/book/1">external</a>,
		<a href="/justreadit/book/">empty</a>
		<a>no href</a></p>`

	links := ExtractLinks(body, DefaultLinkPatterns())

	assert.Equal(t, []string{"42"}, links.BookIDs)
	assert.Equal(t, []string{"7", "9"}, links.NoteIDs)
}

func TestExtractLinks_KeepsDuplicates(t *testing.T) {
	body := `<a href="/justreadit/book/3">x</a><a href="/justreadit/book/3">y</a>`
	assert.Equal(t, []string{"3", "3"}, ExtractLinks(body, DefaultLinkPatterns()).BookIDs)
}

func TestExtractLinks_CustomPrefixes(t *testing.T) {
	p := LinkPatterns{BookPrefix: "/b/", NotePrefix: "/n/"}
	links := ExtractLinks(`<a href="/b/x1">b</a><a href="/n/5">n</a><a href="/justreadit/book/2">old</a>`, p)

	assert.Equal(t, []string{"x1"}, links.BookIDs)
	assert.Equal(t, []string{"5"}, links.NoteIDs)
}

func TestExtractLinks_Malformed(t *testing.T) {
	links := ExtractLinks(`<p><a href="/justreadit/note/11">unclosed <b>text`, DefaultLinkPatterns())
	assert.Equal(t, []string{"11"}, links.NoteIDs)
	assert.Empty(t, links.BookIDs)
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "dedup keeps first occurrence",
			body: "<p>Hello world. Second sentence!</p><p>Hello world.</p>",
			want: []string{"Hello world.", "Second sentence!"},
		},
		{
			name: "anchor text is dropped",
			body: `<p><a href="/justreadit/book/42">Note 42</a> Real content.</p>`,
			want: []string{"Real content."},
		},
		{
			name: "anchor splits surrounding text",
			body: `<p>before<a href="/x">label</a>after</p>`,
			want: []string{"before", "after"},
		},
		{
			name: "inline markup stays in sentence",
			body: "<p>This is <b>bold</b> and <em>em</em>. Next?</p>",
			want: []string{"This is bold and em.", "Next?"},
		},
		{
			name: "punctuation runs stay together",
			body: "<p>Wait... Really?! Yes</p>",
			want: []string{"Wait...", "Really?!", "Yes"},
		},
		{
			name: "line breaks",
			body: "<div>one<br>two</div><ul><li>three</li><li>four</li></ul>",
			want: []string{"one", "two", "three", "four"},
		},
		{
			name: "script and style skipped",
			body: "<style>p{}</style><p>Visible.</p><script>var x = 1;</script>",
			want: []string{"Visible."},
		},
		{
			name: "empty body",
			body: "",
			want: nil,
		},
		{
			name: "only whitespace",
			body: "<p>   </p><p>\n</p>",
			want: nil,
		},
		{
			name: "plain text",
			body: "No markup here. None at all.",
			want: []string{"No markup here.", "None at all."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.body))
		})
	}
}

func TestSplitTerminal(t *testing.T) {
	assert.Equal(t, []string{"a.", " b!", " c"}, splitTerminal("a. b! c"))
	assert.Equal(t, []string{"...", "x"}, splitTerminal("...x"))
	assert.Nil(t, splitTerminal(""))
}
