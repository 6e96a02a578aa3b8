package text

import (
	"html"
	"strings"
	"unicode/utf8"

	nethtml "golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "section": true, "jats:p": true, "jats:sec": true,
}

var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "img": true, "jats:title": true,
}

// Plain converts an HTML (or JATS) fragment into whitespace-normalized text.
// Block elements become paragraph breaks.
func Plain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "<") {
		return normalizeInline(html.UnescapeString(raw))
	}
	doc, err := nethtml.Parse(strings.NewReader("<html><body>" + raw + "</body></html>"))
	if err != nil {
		return normalizeInline(html.UnescapeString(raw))
	}
	body := findBodyNode(doc)
	if body == nil {
		return normalizeInline(html.UnescapeString(raw))
	}

	var b strings.Builder
	collectText(body, &b)
	paragraphs := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = normalizeInline(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "\n\n")
}

// Flatten is Plain collapsed onto a single line.
func Flatten(raw string) string {
	return strings.Join(strings.Fields(Plain(raw)), " ")
}

func collectText(node *nethtml.Node, b *strings.Builder) {
	if node == nil {
		return
	}
	switch node.Type {
	case nethtml.TextNode:
		b.WriteString(node.Data)
		return
	case nethtml.ElementNode:
		tag := strings.ToLower(node.Data)
		if skippedTags[tag] {
			return
		}
		if blockTags[tag] {
			b.WriteString("\n")
			defer b.WriteString("\n")
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, b)
	}
}

func findBodyNode(node *nethtml.Node) *nethtml.Node {
	if node == nil {
		return nil
	}
	if node.Type == nethtml.ElementNode && strings.EqualFold(node.Data, "body") {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findBodyNode(child); found != nil {
			return found
		}
	}
	return nil
}

func normalizeInline(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	replacer := strings.NewReplacer(
		" .", ".",
		" ,", ",",
		" ;", ";",
		" :", ":",
		" )", ")",
		"( ", "(",
	)
	return replacer.Replace(s)
}

// Wrap breaks text into lines of at most width runes, keeping blank lines
// between paragraphs.
func Wrap(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	paragraphs := strings.Split(text, "\n")
	out := make([]string, 0, len(paragraphs))

	for _, p := range paragraphs {
		words := strings.Fields(p)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, word := range words {
			for utf8.RuneCountInString(word) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				runes := []rune(word)
				out = append(out, string(runes[:width]))
				word = string(runes[width:])
			}

			if line == "" {
				line = word
				continue
			}
			if utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= width {
				line += " " + word
				continue
			}
			out = append(out, line)
			line = word
		}
		if line != "" {
			out = append(out, line)
		}
	}

	return out
}
