// Package newsroom implements the public feed operations: upcoming events
// and single events as iCalendar, news and data-use feeds as RSS or Atom,
// and programme news as localized JSON entries.
package newsroom

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jgraeger/contentfeeds/internal/config"
	"github.com/jgraeger/contentfeeds/internal/content"
	"github.com/jgraeger/contentfeeds/internal/feed"
	"github.com/jgraeger/contentfeeds/internal/search"
)

const (
	opUpcomingEventsICal = "upcoming_events_ical"
	opUpcomingEventsFeed = "upcoming_events_feed"
	opEventICal          = "event_ical"
	opNews               = "news"
	opNewsByRegion       = "news_by_region"
	opProgrammeNews      = "programme_news"
	opProgrammeNewsJSON  = "programme_news_json"
	opDataUses           = "data_uses"
)

// Service holds no mutable state; every method may run concurrently.
type Service struct {
	cfg        *config.Config
	executor   *search.Executor
	programmes *search.ProgrammeResolver
	metrics    *Metrics
	log        zerolog.Logger
}

func New(cfg *config.Config, store search.Store, metrics *Metrics, log zerolog.Logger) *Service {
	executor := search.NewExecutor(store)
	return &Service{
		cfg:        cfg,
		executor:   executor,
		programmes: search.NewProgrammeResolver(executor, cfg.Indexes.Programme),
		metrics:    metrics,
		log:        log,
	}
}

// IsClientError reports whether err was caused by the request itself (an
// unsupported language or an unknown acronym or id) rather than by the
// service.
func IsClientError(err error) bool {
	return errors.Is(err, content.ErrInvalidLocale) || errors.Is(err, search.ErrNotFound)
}

// UpcomingEventsICal returns events starting today or later as iCalendar.
func (s *Service) UpcomingEventsICal(ctx context.Context) (out string, err error) {
	ctx, done := s.start(ctx, opUpcomingEventsICal)
	defer func() { done(err) }()

	docs, err := s.executor.Execute(ctx, s.upcomingEventsQuery())
	if err != nil {
		return "", err
	}

	return s.calendar(ctx, docs)
}

// UpcomingEventsFeed returns the upcoming events as a feed.
func (s *Service) UpcomingEventsFeed(ctx context.Context) (out string, err error) {
	ctx, done := s.start(ctx, opUpcomingEventsFeed)
	defer func() { done(err) }()

	return s.renderFeed(ctx, s.cfg.Feeds.Events, s.upcomingEventsQuery(), s.cfg.DefaultLocale)
}

// EventICal returns a single event as iCalendar.
func (s *Service) EventICal(ctx context.Context, id string) (out string, err error) {
	ctx, done := s.start(ctx, opEventICal)
	defer func() { done(err) }()

	doc, err := s.executor.Get(ctx, s.cfg.Indexes.Events, id)
	if err != nil {
		return "", err
	}

	event, err := feed.ToCalendarEvent(doc, s.cfg.DefaultLocale)
	if err != nil {
		return "", err
	}

	return feed.RenderICal([]feed.CalendarEvent{event})
}

// News returns the latest news.
func (s *Service) News(ctx context.Context) (out string, err error) {
	ctx, done := s.start(ctx, opNews)
	defer func() { done(err) }()

	return s.renderFeed(ctx, s.cfg.Feeds.News, s.newsQuery(s.cfg.Indexes.News, nil), s.cfg.DefaultLocale)
}

// NewsByRegion returns the latest news of one GBIF region.
func (s *Service) NewsByRegion(ctx context.Context, region string) (out string, err error) {
	ctx, done := s.start(ctx, opNewsByRegion)
	defer func() { done(err) }()

	filter := search.Term{Field: search.RegionField, Value: region}
	return s.renderFeed(ctx, s.cfg.Feeds.News, s.newsQuery(s.cfg.Indexes.News, filter), s.cfg.DefaultLocale)
}

// ProgrammeNews returns the latest news of the programme with the given
// acronym, localized to language.
func (s *Service) ProgrammeNews(ctx context.Context, acronym, language string) (out string, err error) {
	ctx, done := s.start(ctx, opProgrammeNews)
	defer func() { done(err) }()

	locale, q, err := s.programmeNewsQuery(ctx, acronym, language)
	if err != nil {
		return "", err
	}

	meta := s.cfg.Feeds.News
	meta.Language = content.LocaleTag(locale)
	return s.renderFeed(ctx, meta, q, locale)
}

// ProgrammeNewsJSON returns the same entries as ProgrammeNews, unrendered.
func (s *Service) ProgrammeNewsJSON(ctx context.Context, acronym, language string) (entries []feed.Entry, err error) {
	ctx, done := s.start(ctx, opProgrammeNewsJSON)
	defer func() { done(err) }()

	locale, q, err := s.programmeNewsQuery(ctx, acronym, language)
	if err != nil {
		return nil, err
	}

	return s.loadEntries(ctx, q, locale)
}

// DataUses returns the latest data-use stories.
func (s *Service) DataUses(ctx context.Context) (out string, err error) {
	ctx, done := s.start(ctx, opDataUses)
	defer func() { done(err) }()

	return s.renderFeed(ctx, s.cfg.Feeds.News, s.newsQuery(s.cfg.Indexes.DataUse, nil), s.cfg.DefaultLocale)
}

func (s *Service) upcomingEventsQuery() search.Query {
	return search.Query{
		Index:     s.cfg.Indexes.Events,
		Filter:    search.UpcomingEvents,
		SortField: search.StartField,
		Size:      s.cfg.PageSize,
	}
}

func (s *Service) newsQuery(index string, filter search.Clause) search.Query {
	return search.Query{
		Index:     index,
		Filter:    filter,
		SortField: search.CreatedAtField,
		Size:      s.cfg.PageSize,
	}
}

// programmeNewsQuery validates the language before resolving the acronym,
// and resolves the acronym before any news is queried.
func (s *Service) programmeNewsQuery(ctx context.Context, acronym, language string) (string, search.Query, error) {
	locale, err := content.ResolveLocale(language, s.cfg.DefaultLocale)
	if err != nil {
		return "", search.Query{}, err
	}

	filter, err := s.programmes.ProgrammeFilter(ctx, acronym)
	if err != nil {
		return "", search.Query{}, err
	}

	return locale, s.newsQuery(s.cfg.Indexes.News, filter), nil
}

func (s *Service) loadEntries(ctx context.Context, q search.Query, locale string) ([]feed.Entry, error) {
	docs, err := s.executor.Execute(ctx, q)
	if err != nil {
		return nil, err
	}

	fields := feed.EntryFields{
		Title:       feed.DefaultEntryFields.Title,
		Description: s.cfg.DescriptionField,
		Date:        q.SortField,
	}
	return feed.ToEntries(docs, locale, s.cfg.PortalURL+q.Index, fields)
}

func (s *Service) renderFeed(ctx context.Context, meta config.Feed, q search.Query, locale string) (string, error) {
	entries, err := s.loadEntries(ctx, q, locale)
	if err != nil {
		return "", err
	}

	return feed.Render(feed.Metadata{
		Title:       meta.Title,
		Description: meta.Description,
		Language:    meta.Language,
		Link:        meta.Link,
		Format:      feed.Format(meta.Format),
	}, entries)
}

func (s *Service) calendar(ctx context.Context, docs []content.Document) (string, error) {
	events, skipped := feed.ToCalendarEvents(ctx, docs, s.cfg.DefaultLocale)
	if skipped > 0 {
		s.metrics.skippedEvents.Add(float64(skipped))
	}

	return feed.RenderICal(events)
}

// start attaches the operation logger to ctx. The returned func records
// the outcome.
func (s *Service) start(ctx context.Context, operation string) (context.Context, func(error)) {
	log := s.log.With().Str("operation", operation).Logger()
	ctx = log.WithContext(ctx)
	started := time.Now()

	return ctx, func(err error) {
		s.metrics.observe(operation, started, err)
		switch {
		case err == nil:
			log.Debug().Dur("took", time.Since(started)).Msg("operation finished")
		case IsClientError(err):
			log.Info().Err(err).Msg("rejected request")
		default:
			log.Error().Err(err).Msg("operation failed")
		}
	}
}
