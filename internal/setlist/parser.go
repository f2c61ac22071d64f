package setlist

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/nao1215/wikienrich/internal/model"
	"golang.org/x/net/html"
)

// Class names and labels used by setlist pages.
const (
	classHeadline = "setlistHeadline"
	classMonth    = "month"
	classDay      = "day"
	classYear     = "year"
	classSong     = "songLabel"
	tourLabel     = "Tour:"
)

var (
	// artistHrefPattern matches links to an artist's setlist index.
	artistHrefPattern = regexp.MustCompile(`setlists/[^"]+\.html`)

	// venueHrefPattern matches links to a venue page.
	venueHrefPattern = regexp.MustCompile(`venue/[^"]+\.html`)
)

// Parse reads one setlist page and returns the event it describes. Fields the
// page does not carry are left empty; a page with no recognisable content
// yields an empty Event rather than an error.
//
// URL, Path and SizeBytes are not known to Parse and are left for the caller.
func Parse(r io.Reader) (model.Event, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to parse setlist html: %w", err)
	}

	ev := model.Event{Songs: make([]string, 0)}

	if headline := findFirst(doc, func(n *html.Node) bool {
		return isElement(n, "div") && hasClass(n, classHeadline)
	}); headline != nil {
		if a := findFirst(headline, linkMatching(artistHrefPattern)); a != nil {
			ev.Artist = textOf(a)
		}
	}

	if a := findFirst(doc, linkMatching(venueHrefPattern)); a != nil {
		ev.Venue, ev.City, ev.Country = SplitVenueCityCountry(textOf(a))
	}

	ev.Date = parseDate(doc)
	ev.Tour = parseTour(doc)

	for _, a := range findAll(doc, func(n *html.Node) bool {
		return isElement(n, "a") && hasClass(n, classSong)
	}) {
		if song := textOf(a); song != "" {
			ev.Songs = append(ev.Songs, song)
		}
	}
	ev.SongsCount = len(ev.Songs)

	return ev, nil
}

// SplitVenueCityCountry splits a "Venue, City, Country" line. With more than
// three parts the venue is the first and city and country are the last two,
// since venue names themselves may contain commas. Two parts are venue and
// city; a single part is the venue.
func SplitVenueCityCountry(s string) (venue, city, country string) {
	if strings.TrimSpace(s) == "" {
		return "", "", ""
	}

	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch {
	case len(parts) >= 3:
		return parts[0], parts[len(parts)-2], parts[len(parts)-1]
	case len(parts) == 2:
		return parts[0], parts[1], ""
	default:
		return s, "", ""
	}
}

// parseDate reads the month, day and year spans into "Mon D, YYYY".
func parseDate(doc *html.Node) string {
	month := findFirst(doc, spanWithClass(classMonth))
	day := findFirst(doc, spanWithClass(classDay))
	year := findFirst(doc, spanWithClass(classYear))
	if month == nil || day == nil || year == nil {
		return ""
	}
	return fmt.Sprintf("%s %s, %s", textOf(month), textOf(day), textOf(year))
}

// parseTour returns the text of the first link after the "Tour:" label.
func parseTour(doc *html.Node) string {
	label := findFirst(doc, func(n *html.Node) bool {
		return isElement(n, "span") && textOf(n) == tourLabel
	})
	if label == nil {
		return ""
	}
	for sib := label.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.ElementNode {
			continue
		}
		if a := findFirst(sib, func(n *html.Node) bool { return isElement(n, "a") }); a != nil {
			return textOf(a)
		}
		return ""
	}
	return ""
}

// findFirst returns the first node under root, in document order, that
// matches. Root itself is considered.
func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	if match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every node under root that matches, in document order.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// linkMatching matches <a> elements whose href matches pattern.
func linkMatching(pattern *regexp.Regexp) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return isElement(n, "a") && pattern.MatchString(getAttr(n, "href"))
	}
}

// spanWithClass matches <span> elements carrying class.
func spanWithClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return isElement(n, "span") && hasClass(n, class)
	}
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

// hasClass reports whether the class attribute of n lists class.
func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(getAttr(n, "class")), class)
}

// textOf returns the concatenated text under n with whitespace collapsed.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
