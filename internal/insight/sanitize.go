package insight

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	foreignCurrencyWords   = regexp.MustCompile(`(?i)\b(usd|dollar|dolar|eur|euro|sgd|myr|jpy|yen|gbp|pound)\b`)
	foreignCurrencySymbols = regexp.MustCompile(`[$€£¥]`)
	repeatedWhitespace     = regexp.MustCompile(`\s{2,}`)
	anyTag                 = regexp.MustCompile(`<[^>]+>`)
)

// allowedTags is the full set of tags that may appear in model-generated
// HTML. Everything else is unwrapped or, for the high-risk set, removed with
// its contents.
var allowedTags = map[atom.Atom]struct{}{
	atom.P:      {},
	atom.Strong: {},
	atom.B:      {},
	atom.U:      {},
	atom.Em:     {},
	atom.I:      {},
	atom.Br:     {},
	atom.Ul:     {},
	atom.Ol:     {},
	atom.Li:     {},
}

var droppedTags = map[atom.Atom]struct{}{
	atom.Script: {},
	atom.Style:  {},
	atom.Iframe: {},
	atom.Object: {},
	atom.Embed:  {},
}

// NormalizeCurrencyToRupiah replaces foreign currency tokens and symbols so
// model output always speaks rupiah.
func NormalizeCurrencyToRupiah(text string) string {
	value := foreignCurrencyWords.ReplaceAllString(text, "rupiah")
	value = foreignCurrencySymbols.ReplaceAllString(value, "Rp ")
	value = repeatedWhitespace.ReplaceAllString(value, " ")

	return strings.TrimSpace(value)
}

// SanitizeHTML parses untrusted markup and re-serializes it against the
// allow-list. Attributes never survive, script/style/iframe/object/embed
// disappear with their contents, and unknown tags are unwrapped. The result
// is stable under repeated sanitization.
func SanitizeHTML(text string) string {
	value := NormalizeCurrencyToRupiah(text)
	if value == "" {
		return ""
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(value), body)
	if err != nil {
		return ""
	}

	var out strings.Builder
	for _, node := range nodes {
		renderSanitized(&out, node)
	}

	return strings.TrimSpace(out.String())
}

func renderSanitized(out *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.TextNode:
		out.WriteString(html.EscapeString(node.Data))

	case html.ElementNode:
		if _, dropped := droppedTags[node.DataAtom]; dropped {
			return
		}

		if node.DataAtom == atom.Br {
			out.WriteString("<br>")
			return
		}

		if _, allowed := allowedTags[node.DataAtom]; allowed {
			out.WriteString("<" + node.Data + ">")
			for child := node.FirstChild; child != nil; child = child.NextSibling {
				renderSanitized(out, child)
			}
			out.WriteString("</" + node.Data + ">")
			return
		}

		// Unknown tags are unwrapped so their text survives.
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			renderSanitized(out, child)
		}
	}
}

// StripHTML flattens markup to plain text for contexts that must not carry
// tags at all.
func StripHTML(text string) string {
	value := anyTag.ReplaceAllString(text, " ")
	value = repeatedWhitespace.ReplaceAllString(value, " ")

	return strings.TrimSpace(value)
}
