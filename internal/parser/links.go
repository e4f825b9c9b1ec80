// Package parser reads a note's HTML body and derives the two inputs of the
// sync pipeline: the ids the note links to, and its deduplicated sentences.
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Default href prefixes for in-app links.
const (
	DefaultBookPrefix = "/justreadit/book/"
	DefaultNotePrefix = "/justreadit/note/"
)

// LinkPatterns holds the href prefixes that mark a book or a note reference.
type LinkPatterns struct {
	BookPrefix string
	NotePrefix string
}

// DefaultLinkPatterns returns the prefixes the editor emits.
func DefaultLinkPatterns() LinkPatterns {
	return LinkPatterns{BookPrefix: DefaultBookPrefix, NotePrefix: DefaultNotePrefix}
}

// Links are the ids referenced by a note body, in document order.
// Duplicates are kept: two anchors to the same book yield two entries.
type Links struct {
	BookIDs []string
	NoteIDs []string
}

// ExtractLinks collects the ids of every anchor whose href matches a book or
// note prefix. Malformed markup never fails; whatever the HTML parser recovers
// is scanned and nothing else.
func ExtractLinks(body string, p LinkPatterns) Links {
	var out Links
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return out
	}
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		switch {
		case p.BookPrefix != "" && strings.HasPrefix(href, p.BookPrefix):
			if id := trailingSegment(href); id != "" {
				out.BookIDs = append(out.BookIDs, id)
			}
		case p.NotePrefix != "" && strings.HasPrefix(href, p.NotePrefix):
			if id := trailingSegment(href); id != "" {
				out.NoteIDs = append(out.NoteIDs, id)
			}
		}
	})
	return out
}

// trailingSegment returns the last path segment of href with any query or
// fragment removed.
func trailingSegment(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	return href[strings.LastIndexByte(href, '/')+1:]
}
