package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var lineBreakRe = regexp.MustCompile(`\s*[\n\r]+\s*`)

// blockElements start a new line of text. Inline elements (b, em, span, ...)
// stay inside the sentence that contains them.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "dd": true,
	"div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"footer": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true, "td": true,
	"th": true, "tr": true, "ul": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// Sentences splits a note body into trimmed, non-empty sentences, deduplicated
// by exact string and kept in order of first occurrence.
//
// Anchors contribute a line break instead of their text, so link labels never
// become sentences and never glue neighbouring text together. Block elements
// and <br> also break lines. Each line is then cut after every run of '.', '!'
// or '?', keeping the punctuation on the preceding sentence.
func Sentences(body string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	var text strings.Builder
	collectText(doc.Selection, &text)

	set := newOrderedSet()
	for _, segment := range lineBreakRe.Split(strings.TrimSpace(text.String()), -1) {
		for _, s := range splitTerminal(segment) {
			if s = strings.TrimSpace(s); s != "" {
				set.add(s)
			}
		}
	}
	return set.items
}

func collectText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			b.WriteString(c.Text())
		case name == "a", name == "br":
			b.WriteByte('\n')
		case strings.HasPrefix(name, "#"), skippedElements[name]:
		case blockElements[name]:
			b.WriteByte('\n')
			collectText(c, b)
			b.WriteByte('\n')
		default:
			collectText(c, b)
		}
	})
}

// splitTerminal cuts s right after each run of terminal punctuation.
func splitTerminal(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if !isTerminal(s[i]) {
			continue
		}
		for i+1 < len(s) && isTerminal(s[i+1]) {
			i++
		}
		out = append(out, s[start:i+1])
		start = i + 1
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func isTerminal(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (o *orderedSet) add(s string) {
	if _, ok := o.seen[s]; ok {
		return
	}
	o.seen[s] = struct{}{}
	o.items = append(o.items, s)
}
