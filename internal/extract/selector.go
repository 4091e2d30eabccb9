package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MinBlockLength is the shortest rendered text kept as a candidate block
const MinBlockLength = 30

const containerSelector = `[class*="event"], [class*="seminar"], [class*="lecture"], ` +
	`[class*="workshop"], [class*="colloquium"], [class*="talk"], ` +
	`[itemtype*="Event"], article, li`

const fallbackSelector = `p, div, span, td, dd, dt, time, h1, h2, h3, h4, h5, h6`

// RawBlock is one candidate element with its plain-text rendering
type RawBlock struct {
	Selection *goquery.Selection
	Text      string
	SourceURL string
}

// SelectCandidates returns candidate event blocks in document order.
// Semantic containers and list items are tried first; when none survive,
// elements carrying a date are located and their parents returned.
func (e *Engine) SelectCandidates(doc *goquery.Document, sourceURL string) []RawBlock {
	blocks := e.structuralBlocks(doc, sourceURL)
	if len(blocks) > 0 {
		return blocks
	}
	return e.dateBlocks(doc, sourceURL)
}

func (e *Engine) structuralBlocks(doc *goquery.Document, sourceURL string) []RawBlock {
	matched := doc.Find(containerSelector)
	kept := make(map[*html.Node]bool)
	var blocks []RawBlock

	matched.Each(func(_ int, sel *goquery.Selection) {
		node := sel.Nodes[0]
		if hasAncestorIn(node, kept) {
			return
		}

		// A container holding several dated containers is a listing wrapper
		dated := sel.Find(containerSelector).FilterFunction(func(_ int, child *goquery.Selection) bool {
			return e.hasDate(renderText(child))
		})
		if dated.Length() >= 2 {
			return
		}

		text := renderText(sel)
		if utf8.RuneCountInString(text) < MinBlockLength {
			return
		}

		kept[node] = true
		blocks = append(blocks, RawBlock{Selection: sel, Text: text, SourceURL: sourceURL})
	})

	return blocks
}

func (e *Engine) dateBlocks(doc *goquery.Document, sourceURL string) []RawBlock {
	seen := make(map[*html.Node]bool)
	var blocks []RawBlock

	doc.Find(fallbackSelector).Each(func(_ int, sel *goquery.Selection) {
		if !e.hasDate(renderText(sel)) {
			return
		}

		// Only the innermost dated element counts
		deeper := sel.Find(fallbackSelector).FilterFunction(func(_ int, child *goquery.Selection) bool {
			return e.hasDate(renderText(child))
		})
		if deeper.Length() > 0 {
			return
		}

		parent := sel.Parent()
		if parent.Length() == 0 || seen[parent.Nodes[0]] {
			return
		}
		seen[parent.Nodes[0]] = true

		text := renderText(parent)
		if utf8.RuneCountInString(text) < MinBlockLength {
			return
		}
		blocks = append(blocks, RawBlock{Selection: parent, Text: text, SourceURL: sourceURL})
	})

	return blocks
}

func hasAncestorIn(n *html.Node, set map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if set[p] {
			return true
		}
	}
	return false
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Table: true, atom.Td: true, atom.Th: true, atom.Tr: true,
	atom.Ul: true,
}

// renderText renders a selection to plain text with one line per block
// element and whitespace collapsed inside each line
func renderText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(&b, n)
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		case atom.Br:
			b.WriteByte('\n')
			return
		}
	case html.CommentNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

// singleLine collapses rendered text onto one line
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
