// Package normalize turns raw newsletter content into clean paragraphed
// plain text. Every downstream evidence check runs against this output, so
// normalization must be deterministic.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Result is the normalized form of an issue's raw content.
type Result struct {
	Text       string   // clean text, paragraphs separated by blank lines
	Paragraphs []string // ordered non-empty paragraphs
}

// blockTags are elements whose boundaries become paragraph breaks, so
// paragraph structure survives tag removal.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "table": true, "tr": true, "section": true,
	"article": true, "header": true, "footer": true,
}

const (
	// minPseudoParagraph drops pseudo-paragraphs too short to carry a
	// claim when falling back from a paragraph-free blob.
	minPseudoParagraph = 50
	sentencesPerGroup  = 3
)

// Normalize converts raw content (HTML or plain text) into clean text plus
// its ordered paragraphs.
func Normalize(raw string) Result {
	text := raw
	if looksLikeHTML(raw) {
		text = stripHTML(raw)
	}

	text = collapseWhitespace(text)
	paragraphs := splitParagraphs(text)

	// The source platform sometimes returns paragraph-free blobs; group
	// sentences into pseudo-paragraphs so context recovery still works.
	if len(paragraphs) < 2 {
		if pseudo := groupSentences(text); len(pseudo) > 0 {
			paragraphs = pseudo
		}
	}

	return Result{Text: text, Paragraphs: paragraphs}
}

// htmlTag matches an actual tag token, so prose with bare angle brackets
// ("5 < x > 2") is not routed through the HTML parser.
var htmlTag = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*(\s[^<>]*)?/?>|<!--|<!doctype`)

func looksLikeHTML(s string) bool {
	return htmlTag.MatchString(s)
}

// stripHTML extracts visible text, dropping script/style subtrees entirely
// and emitting paragraph breaks at block-level boundaries. Entity decoding
// (&nbsp;, &amp;, &lt;, &gt;, &quot;) is handled by the parser.
func stripHTML(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		// Parse errors are rare with the tolerant parser; fall back to a
		// crude tag strip so the pipeline still gets text.
		return regexp.MustCompile(`<[^>]+>`).ReplaceAllString(raw, " ")
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "br":
				buf.WriteString("\n\n")
			}
		}

		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockTags[n.Data] {
			buf.WriteString("\n\n")
		}
	}

	walk(doc)
	return buf.String()
}

var (
	intraLineSpace = regexp.MustCompile(`[ \t\x{00a0}]+`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// collapseWhitespace collapses intra-line whitespace runs and squeezes 3+
// consecutive newlines down to one blank line.
func collapseWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = intraLineSpace.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// groupSentences builds pseudo-paragraphs of roughly three sentences each,
// discarding groups too short to be useful context.
func groupSentences(text string) []string {
	sentences := SplitSentences(text, 1, 0)
	if len(sentences) == 0 {
		return nil
	}

	var paragraphs []string
	for i := 0; i < len(sentences); i += sentencesPerGroup {
		end := i + sentencesPerGroup
		if end > len(sentences) {
			end = len(sentences)
		}
		group := strings.Join(sentences[i:end], " ")
		if len(group) >= minPseudoParagraph {
			paragraphs = append(paragraphs, group)
		}
	}
	return paragraphs
}

// SplitSentences splits text into sentence units on punctuation boundaries,
// keeping only units within [minLen, maxLen]. maxLen <= 0 disables the upper
// bound. Units are returned in original text order.
func SplitSentences(text string, minLen, maxLen int) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	keep := func(s string) bool {
		s = strings.TrimSpace(s)
		if len(s) < minLen {
			return false
		}
		if maxLen > 0 && len(s) > maxLen {
			return false
		}
		return true
	}

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Only split when followed by whitespace, to avoid breaking
			// on abbreviations and version numbers.
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') {
				if s := strings.TrimSpace(current.String()); keep(s) {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); keep(s) {
		sentences = append(sentences, s)
	}

	return sentences
}

// Flatten collapses all whitespace runs to single spaces. Evidence substring
// checks compare flattened forms so quotes spanning a line break still match.
func Flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
