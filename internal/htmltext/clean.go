// Package htmltext converts help-center article HTML into readable plain text.
package htmltext

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// Options controls how much of the original markup survives cleaning.
type Options struct {
	// PreserveLinks rewrites anchors to "text (url)" instead of dropping the URL.
	PreserveLinks bool
	// PreserveStructure keeps paragraph breaks, bullets for list items, and
	// upper-cased headings. When false the document text is extracted flat.
	PreserveStructure bool
	// KeepImagePlaceholders replaces images carrying alt text with
	// "[Image: alt]" instead of removing them outright.
	KeepImagePlaceholders bool
}

var (
	multiSpace    = regexp.MustCompile(` +`)
	multiNewlines = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// CleanArticleBody cleans a help-center article body with the settings used by
// the ingestion pipeline: links preserved, structure preserved, images removed.
func CleanArticleBody(body string) (string, error) {
	return Clean(body, Options{PreserveLinks: true, PreserveStructure: true})
}

// Clean strips scripts, styles, and images from the markup and extracts the
// remaining text according to the provided options.
func Clean(markup string, opts Options) (string, error) {
	if strings.TrimSpace(markup) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", eris.Wrap(err, "parsing article html")
	}

	doc.Find("script, style").Remove()

	if opts.PreserveLinks {
		doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
			text := strings.TrimSpace(anchor.Text())
			href, _ := anchor.Attr("href")
			if text == "" || href == "" {
				return
			}
			anchor.ReplaceWithHtml(html.EscapeString(fmt.Sprintf("%s (%s)", text, href)))
		})
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		alt := strings.TrimSpace(img.AttrOr("alt", ""))
		if opts.KeepImagePlaceholders && alt != "" {
			img.ReplaceWithHtml(html.EscapeString(fmt.Sprintf("[Image: %s]", alt)))
			return
		}
		img.Remove()
	})

	var text string
	if opts.PreserveStructure {
		text = extractStructuredText(doc)
	} else {
		text = doc.Text()
	}

	return cleanWhitespace(text), nil
}

// extractStructuredText walks block-level elements and renders them one per
// paragraph: bullets for list items, upper-cased headings, plain text
// otherwise. Falls back to flat extraction when no block elements exist.
func extractStructuredText(doc *goquery.Document) string {
	var blocks []string

	doc.Find("p, h1, h2, h3, h4, h5, h6, li").Each(func(_ int, block *goquery.Selection) {
		text := strings.TrimSpace(block.Text())
		if text == "" {
			return
		}

		switch goquery.NodeName(block) {
		case "li":
			blocks = append(blocks, "• "+text)
		case "h1", "h2", "h3", "h4", "h5", "h6":
			blocks = append(blocks, "\n"+strings.ToUpper(text)+"\n")
		default:
			blocks = append(blocks, text)
		}
	})

	if len(blocks) == 0 {
		return doc.Text()
	}

	return strings.Join(blocks, "\n\n")
}

func cleanWhitespace(text string) string {
	text = multiSpace.ReplaceAllString(text, " ")
	text = multiNewlines.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
