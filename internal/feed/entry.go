// Package feed converts content documents into feed entries and calendar
// events and renders them as RSS, Atom and iCalendar.
package feed

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"github.com/google/uuid"

	"github.com/jgraeger/contentfeeds/internal/content"
)

var (
	// ErrConversion indicates a document missing a required field or
	// holding an unparsable one.
	ErrConversion = errors.New("conversion failed")

	// ErrSerialization indicates output the encoders cannot represent.
	ErrSerialization = errors.New("serialization failed")
)

// Entry is one localized feed item.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Published   time.Time `json:"publishedDate"`
	// PublishedLabel is the publish date written out for the entry locale.
	PublishedLabel string `json:"publishedLabel,omitempty"`
}

// EntryFields names the document fields an Entry is read from.
type EntryFields struct {
	Title       string
	Description string
	Date        string
}

// DefaultEntryFields reads title and description, dated by createdAt.
var DefaultEntryFields = EntryFields{
	Title:       "title",
	Description: "description",
	Date:        "createdAt",
}

// ToEntry converts doc into an Entry for locale. Missing text fields are
// left empty; a missing or malformed date fails the conversion.
func ToEntry(doc content.Document, locale, link string, fields EntryFields) (Entry, error) {
	published, ok, err := content.DateField(doc, fields.Date)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: document %s: %w", ErrConversion, doc.ID, err)
	}
	if !ok {
		return Entry{}, fmt.Errorf("%w: document %s has no %s date", ErrConversion, doc.ID, fields.Date)
	}

	title, _ := content.LocalizedField(doc, fields.Title, locale)
	description, _ := content.LocalizedField(doc, fields.Description, locale)

	return Entry{
		ID:             entryID(link, doc.ID),
		Title:          title,
		Link:           link,
		Description:    description,
		Published:      published,
		PublishedLabel: dateLabel(published, locale),
	}, nil
}

// ToEntries converts every document or none: the first failure aborts.
func ToEntries(docs []content.Document, locale, link string, fields EntryFields) ([]Entry, error) {
	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		entry, err := ToEntry(doc, locale, link, fields)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// entryID derives a stable URN from the entry link and document id. Links
// are shared by all entries of one index, so the link alone is not unique.
func entryID(link, docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(link+"#"+docID)).URN()
}

// dateLabel formats t with the long date layout of locale. A bare
// language uses its main region ("fr" as fr_FR); unsupported locales
// fall back to en_US.
func dateLabel(t time.Time, locale string) string {
	loc := monday.Locale(monday.LocaleEnUS)
	for _, candidate := range []string{locale, locale + "_" + strings.ToUpper(locale)} {
		if _, ok := monday.LongFormatsByLocale[monday.Locale(candidate)]; ok {
			loc = monday.Locale(candidate)
			break
		}
	}

	layout, ok := monday.LongFormatsByLocale[loc]
	if !ok {
		layout = monday.DefaultFormatEnUSLong
	}

	return monday.Format(t, layout, loc)
}
