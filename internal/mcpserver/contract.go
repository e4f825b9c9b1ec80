package mcpserver

import (
	"fmt"

	"github.com/starford/justreadit/internal/parser"
)

// NoteFormatURI is the resource URI of the note format description.
const NoteFormatURI = "justreadit://note-format"

// NoteFormat describes the HTML note body that LLM consumers should write
// when saving notes, using the configured link prefixes.
func NoteFormat(p parser.LinkPatterns) string {
	return fmt.Sprintf(`# justreadit Note Format

A note body is an HTML fragment. It is the only source of a note's links and
of the sentences indexed for semantic search, so every save rewrites both.

## Links

- Link to a book with an anchor whose href starts with %[1]q
  followed by the book id: <a href="%[1]sBOOK_ID">Title</a>
- Link to another note with %[2]q followed by its numeric id:
  <a href="%[2]s42">that note</a>
- Query strings and fragments are ignored. Links to unknown books or notes
  are dropped from the graph.
- Anchor text is never indexed as a sentence.

## Sentences

- Paragraphs, headings, list items and <br> start a new sentence.
- Text is also split after ".", "!" or "?" (runs like "?!" stay together).
- Repeated sentences are indexed once.

## Example

<p>Fear is the mind-killer.</p>
<p>Compare <a href="%[1]sanathem">Anathem</a> and <a href="%[2]s7">my earlier note</a>.</p>
`, p.BookPrefix, p.NotePrefix)
}
