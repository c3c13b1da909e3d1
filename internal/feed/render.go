package feed

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	ics "github.com/arran4/golang-ical"
	"github.com/gorilla/feeds"
)

const productID = "-//contentfeeds//newsroom//EN"

type Format string

const (
	FormatRSS  Format = "rss"
	FormatAtom Format = "atom"
)

// Metadata describes the feed as a whole.
type Metadata struct {
	Title       string
	Description string
	Language    string
	Link        string
	// Format defaults to RSS 2.0.
	Format Format
	// Updated defaults to the publish date of the first entry, or the
	// current time for an empty feed.
	Updated time.Time
}

var now = time.Now

// Render writes entries, in order, as an RSS 2.0 or Atom document.
func Render(meta Metadata, entries []Entry) (string, error) {
	if err := checkXMLText(meta.Title, meta.Description, meta.Language, meta.Link); err != nil {
		return "", fmt.Errorf("%w: feed %q: %w", ErrSerialization, meta.Title, err)
	}

	updated := meta.Updated
	if updated.IsZero() && len(entries) > 0 {
		updated = entries[0].Published
	}
	if updated.IsZero() {
		updated = now().UTC()
	}

	f := &feeds.Feed{
		Title:       meta.Title,
		Link:        &feeds.Link{Href: meta.Link},
		Description: meta.Description,
		Id:          meta.Link,
		Updated:     updated,
		Items:       make([]*feeds.Item, 0, len(entries)),
	}
	for _, e := range entries {
		if err := checkXMLText(e.ID, e.Title, e.Link, e.Description); err != nil {
			return "", fmt.Errorf("%w: entry %s: %w", ErrSerialization, e.ID, err)
		}
		f.Items = append(f.Items, &feeds.Item{
			Id:          e.ID,
			Title:       e.Title,
			Link:        &feeds.Link{Href: e.Link},
			Description: e.Description,
			Created:     e.Published,
			Updated:     e.Published,
		})
	}

	var out feeds.XmlFeed
	switch meta.Format {
	case FormatAtom:
		out = &atomFeed{AtomFeed: (&feeds.Atom{Feed: f}).AtomFeed(), Lang: meta.Language}
	case FormatRSS, "":
		rss := (&feeds.Rss{Feed: f}).RssFeed()
		rss.Language = meta.Language
		out = rss
	default:
		return "", fmt.Errorf("%w: unknown feed format %q", ErrSerialization, meta.Format)
	}

	xml, err := feeds.ToXML(out)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	return xml, nil
}

// atomFeed adds the feed language, which feeds.AtomFeed does not carry.
type atomFeed struct {
	*feeds.AtomFeed
	Lang string `xml:"xml:lang,attr,omitempty"`
}

func (a *atomFeed) FeedXml() interface{} {
	return a
}

// RenderICal writes events, in order, as one VCALENDAR.
func RenderICal(events []CalendarEvent) (string, error) {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)

	stamp := now().UTC()
	for _, e := range events {
		if err := checkICalText(e.ID, e.Summary, e.Location, e.Description); err != nil {
			return "", fmt.Errorf("%w: event %s: %w", ErrSerialization, e.ID, err)
		}

		event := cal.AddEvent(e.ID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(e.Start)
		if !e.End.IsZero() {
			event.SetEndAt(e.End)
		}
		if e.Summary != "" {
			event.SetSummary(e.Summary)
		}
		if e.Location != "" {
			event.SetLocation(e.Location)
		}
		if e.Description != "" {
			event.SetDescription(e.Description)
		}
	}

	var b strings.Builder
	if err := cal.SerializeTo(&b); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	return b.String(), nil
}

// checkXMLText rejects strings encoding/xml would silently replace.
func checkXMLText(values ...string) error {
	for _, s := range values {
		if !utf8.ValidString(s) {
			return fmt.Errorf("invalid UTF-8 in %q", s)
		}
		for _, r := range s {
			if !isXMLChar(r) {
				return fmt.Errorf("character %U not allowed in XML", r)
			}
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

// checkICalText rejects control characters other than tab and newline,
// which iCalendar TEXT values cannot carry.
func checkICalText(values ...string) error {
	for _, s := range values {
		if !utf8.ValidString(s) {
			return fmt.Errorf("invalid UTF-8 in %q", s)
		}
		for _, r := range s {
			if (r < 0x20 && r != '\t' && r != '\n') || r == 0x7F {
				return fmt.Errorf("control character %U not allowed in iCalendar text", r)
			}
		}
	}
	return nil
}
