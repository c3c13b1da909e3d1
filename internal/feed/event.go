package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jgraeger/contentfeeds/internal/content"
)

const (
	titleField       = "title"
	descriptionField = "description"
	locationField    = "location"
	startField       = "start"
	endField         = "end"
)

// CalendarEvent is one VEVENT. End is the zero time when the event has no
// end.
type CalendarEvent struct {
	ID          string
	Summary     string
	Location    string
	Start       time.Time
	End         time.Time
	Description string
}

// ToCalendarEvent converts doc for locale. The document id and start date
// are required.
func ToCalendarEvent(doc content.Document, locale string) (CalendarEvent, error) {
	if doc.ID == "" {
		return CalendarEvent{}, fmt.Errorf("%w: event without id", ErrConversion)
	}

	start, ok, err := content.DateField(doc, startField)
	if err != nil {
		return CalendarEvent{}, fmt.Errorf("%w: event %s: %w", ErrConversion, doc.ID, err)
	}
	if !ok {
		return CalendarEvent{}, fmt.Errorf("%w: event %s has no start date", ErrConversion, doc.ID)
	}

	end, _, err := content.DateField(doc, endField)
	if err != nil {
		return CalendarEvent{}, fmt.Errorf("%w: event %s: %w", ErrConversion, doc.ID, err)
	}

	summary, _ := content.LocalizedField(doc, titleField, locale)
	location, _ := content.LocationField(doc, locationField)
	description, _ := content.LocalizedField(doc, descriptionField, locale)

	return CalendarEvent{
		ID:          doc.ID,
		Summary:     summary,
		Location:    location,
		Start:       start,
		End:         end,
		Description: description,
	}, nil
}

// ToCalendarEvents converts docs, skipping documents that fail to convert.
// Skips are logged to the context logger and returned as a count.
func ToCalendarEvents(ctx context.Context, docs []content.Document, locale string) ([]CalendarEvent, int) {
	log := zerolog.Ctx(ctx)
	events := make([]CalendarEvent, 0, len(docs))
	skipped := 0
	for _, doc := range docs {
		event, err := ToCalendarEvent(doc, locale)
		if err != nil {
			log.Warn().Err(err).Str("document_id", doc.ID).Msg("skipping calendar event")
			skipped++
			continue
		}
		events = append(events, event)
	}

	return events, skipped
}
