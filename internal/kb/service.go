package kb

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"kbsearch/app/internal/helpcenter"
	"kbsearch/app/internal/htmltext"
	"kbsearch/app/internal/llm"
)

// Service defines higher-level knowledge-base operations built on top of the
// help-center client, the repository, and the answerer.
type Service interface {
	Search(ctx context.Context, query string) (*helpcenter.Envelope, error)
	Ask(ctx context.Context, question string) (*AskResult, error)
	Ingest(ctx context.Context, query string) (int, error)
	ListArticles(ctx context.Context) ([]Article, error)
}

// AskResult carries a generated answer together with the sources it was
// grounded in.
type AskResult struct {
	Answer  string
	Sources []helpcenter.Source
}

// ErrAnswererUnavailable indicates the service was built without an answer
// model, so Ask cannot be served.
var ErrAnswererUnavailable = eris.New("answer generation is not configured")

type service struct {
	repo      Repository
	searcher  helpcenter.Searcher
	answerer  llm.Answerer
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

var _ Service = (*service)(nil)

// NewService wires the knowledge-base service with its dependencies. The
// answerer is optional; without it the service is search-only.
func NewService(repo Repository, searcher helpcenter.Searcher, answerer llm.Answerer, logger *logrus.Logger, hub *sentry.Hub) (Service, error) {
	if repo == nil {
		return nil, eris.New("article repository is required")
	}
	if searcher == nil {
		return nil, eris.New("help center searcher is required")
	}

	return &service{
		repo:      repo,
		searcher:  searcher,
		answerer:  answerer,
		logger:    logger,
		sentryHub: hub,
	}, nil
}

// Search forwards the query to the help center and returns the envelope as-is.
// A failure envelope is a valid outcome, not a Go error; callers branch on the
// embedded status marker.
func (s *service) Search(ctx context.Context, query string) (*helpcenter.Envelope, error) {
	envelope, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.recordError(logrus.Fields{"query": query}, err, "searching help center")
		return nil, eris.Wrap(err, "searching help center")
	}

	if !envelope.Succeeded() && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"query": query, "error": envelope.Error}).Warn("help center search failed")
	}

	return envelope, nil
}

// Ask retrieves sources for the question and generates a grounded answer.
func (s *service) Ask(ctx context.Context, question string) (*AskResult, error) {
	trimmedQuestion := strings.TrimSpace(question)
	if trimmedQuestion == "" {
		return nil, eris.New("question is required")
	}

	if s.answerer == nil {
		return nil, ErrAnswererUnavailable
	}

	envelope, err := s.Search(ctx, trimmedQuestion)
	if err != nil {
		return nil, err
	}

	if !envelope.Succeeded() {
		err := eris.Errorf("help center search failed: %s", envelope.Error)
		s.recordError(logrus.Fields{"question": trimmedQuestion}, err, "retrieving sources for answer")
		return nil, err
	}

	answer, err := s.answerer.Answer(ctx, trimmedQuestion, envelope.Sources)
	if err != nil {
		s.recordError(logrus.Fields{"question": trimmedQuestion}, err, "generating answer")
		return nil, eris.Wrap(err, "generating answer")
	}

	return &AskResult{Answer: answer, Sources: envelope.Sources}, nil
}

// Ingest searches the help center for the query, cleans each retained article
// body, and upserts the articles into the store. Returns the stored count.
func (s *service) Ingest(ctx context.Context, query string) (int, error) {
	envelope, err := s.Search(ctx, query)
	if err != nil {
		return 0, err
	}

	if !envelope.Succeeded() {
		err := eris.Errorf("help center search failed: %s", envelope.Error)
		s.recordError(logrus.Fields{"query": query}, err, "retrieving articles for ingest")
		return 0, err
	}

	stored := 0
	for _, source := range envelope.Sources {
		cleaned, cleanErr := htmltext.CleanArticleBody(source.Body)
		if cleanErr != nil {
			s.recordError(logrus.Fields{"remote_id": source.ID}, cleanErr, "cleaning article body")
			return stored, eris.Wrapf(cleanErr, "cleaning article body: %s", source.ID)
		}

		article := &Article{
			RemoteID:        source.ID,
			Title:           source.Title,
			Body:            cleaned,
			RawBody:         source.Body,
			HTMLURL:         source.HTMLURL,
			SectionID:       source.SectionID,
			RemoteCreatedAt: source.CreatedAt,
			RemoteUpdatedAt: source.UpdatedAt,
		}

		if upsertErr := s.repo.Upsert(ctx, article); upsertErr != nil {
			s.recordError(logrus.Fields{"remote_id": source.ID}, upsertErr, "storing ingested article")
			return stored, eris.Wrapf(upsertErr, "storing ingested article: %s", source.ID)
		}
		stored++
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"query": query, "stored": stored}).Info("article ingest complete")
	}

	return stored, nil
}

// ListArticles returns every stored article.
func (s *service) ListArticles(ctx context.Context) ([]Article, error) {
	articles, err := s.repo.ListArticles(ctx)
	if err != nil {
		s.recordError(nil, err, "listing stored articles")
		return nil, eris.Wrap(err, "listing stored articles")
	}

	return articles, nil
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
