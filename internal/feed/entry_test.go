package feed_test

import (
	"testing"
	"time"

	"github.com/jgraeger/contentfeeds/internal/content"
	"github.com/jgraeger/contentfeeds/internal/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const newsLink = "https://www.gbif.org/news"

func newsDocument(t *testing.T, id, createdAt string) content.Document {
	t.Helper()
	doc, err := content.NewDocument(id, map[string]any{
		"title":       map[string]any{"en": "Data paper " + id, "fr": "Article " + id},
		"description": map[string]any{"en": "Summary of " + id},
		"body":        map[string]any{"en": "Body of " + id},
		"createdAt":   createdAt,
	})
	require.NoError(t, err)
	return doc
}

func TestToEntry(t *testing.T) {
	doc := newsDocument(t, "n1", "2024-03-01T10:00:00Z")

	entry, err := feed.ToEntry(doc, "en", newsLink, feed.DefaultEntryFields)
	require.NoError(t, err)
	assert.Equal(t, "Data paper n1", entry.Title)
	assert.Equal(t, "Summary of n1", entry.Description)
	assert.Equal(t, newsLink, entry.Link)
	assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(entry.Published))
	assert.Equal(t, "March 1, 2024", entry.PublishedLabel)
	assert.Regexp(t, `^urn:uuid:[0-9a-f-]{36}$`, entry.ID)

	again, err := feed.ToEntry(doc, "en", newsLink, feed.DefaultEntryFields)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, again.ID, "ids are stable")

	other, err := feed.ToEntry(newsDocument(t, "n2", "2024-03-01T10:00:00Z"), "en", newsLink, feed.DefaultEntryFields)
	require.NoError(t, err)
	assert.NotEqual(t, entry.ID, other.ID)
}

func TestToEntryLocaleAndFields(t *testing.T) {
	doc := newsDocument(t, "n1", "2024-03-01T10:00:00Z")

	entry, err := feed.ToEntry(doc, "fr", newsLink, feed.DefaultEntryFields)
	require.NoError(t, err)
	assert.Equal(t, "Article n1", entry.Title)
	assert.Empty(t, entry.Description, "no French description")
	assert.Contains(t, entry.PublishedLabel, "mars")

	fields := feed.DefaultEntryFields
	fields.Description = "body"
	entry, err = feed.ToEntry(doc, "en", newsLink, fields)
	require.NoError(t, err)
	assert.Equal(t, "Body of n1", entry.Description)
}

func TestToEntryMissingTitle(t *testing.T) {
	doc, err := content.NewDocument("n1", map[string]any{"createdAt": "2024-03-01"})
	require.NoError(t, err)

	entry, err := feed.ToEntry(doc, "en", newsLink, feed.DefaultEntryFields)
	require.NoError(t, err)
	assert.Empty(t, entry.Title)
}

func TestToEntryDateFailures(t *testing.T) {
	malformed := newsDocument(t, "bad", "yesterday")
	_, err := feed.ToEntry(malformed, "en", newsLink, feed.DefaultEntryFields)
	assert.ErrorIs(t, err, feed.ErrConversion)
	assert.ErrorIs(t, err, content.ErrMalformedDate)

	undated, err := content.NewDocument("undated", map[string]any{"title": map[string]any{"en": "x"}})
	require.NoError(t, err)
	_, err = feed.ToEntry(undated, "en", newsLink, feed.DefaultEntryFields)
	assert.ErrorIs(t, err, feed.ErrConversion)
}

func TestToEntriesAbortsOnFailure(t *testing.T) {
	docs := []content.Document{
		newsDocument(t, "n1", "2024-03-01T10:00:00Z"),
		newsDocument(t, "bad", "not a date"),
		newsDocument(t, "n3", "2024-01-01T10:00:00Z"),
	}

	entries, err := feed.ToEntries(docs, "en", newsLink, feed.DefaultEntryFields)
	assert.ErrorIs(t, err, feed.ErrConversion)
	assert.Nil(t, entries)

	entries, err = feed.ToEntries([]content.Document{docs[0], docs[2]}, "en", newsLink, feed.DefaultEntryFields)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Data paper n1", entries[0].Title)
	assert.Equal(t, "Data paper n3", entries[1].Title)
}
