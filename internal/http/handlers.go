package http

import (
	"context"
	stdhttp "net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"kbsearch/app/internal/db"
	"kbsearch/app/internal/helpcenter"
	"kbsearch/app/internal/kb"
)

type searchInput struct {
	Query string `query:"q" doc:"Free-text search query, forwarded verbatim to the help center"`
}

type searchResponse struct {
	Body helpcenter.Envelope
}

type askInput struct {
	Body struct {
		Question string `json:"question" doc:"Question to answer from the knowledge base"`
	}
}

type askResponse struct {
	Body struct {
		Answer  string              `json:"answer"`
		Sources []helpcenter.Source `json:"sources"`
	}
}

type ingestInput struct {
	Body struct {
		Query string `json:"query" doc:"Search query selecting the articles to ingest"`
	}
}

type ingestResponse struct {
	Body struct {
		Stored int `json:"stored"`
	}
}

type storedArticle struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	HTMLURL   string `json:"html_url"`
	SectionID string `json:"section_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type articlesResponse struct {
	Body struct {
		Articles []storedArticle `json:"articles"`
	}
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Answerer string `json:"answerer"`
	}
}

func (s *Server) registerSearchRoute() {
	huma.Get(s.api, "/search", s.searchHandler, func(op *huma.Operation) {
		op.Summary = "Search the knowledge base"
		op.Description = "Queries the help-center search endpoint and returns the normalized envelope. The embedded status marker distinguishes success from transport failure."
	})
}

func (s *Server) registerAskRoute() {
	huma.Post(s.api, "/ask", s.askHandler, func(op *huma.Operation) {
		op.Summary = "Answer a question from the knowledge base"
	})
}

func (s *Server) registerIngestRoute() {
	huma.Post(s.api, "/ingest", s.ingestHandler, func(op *huma.Operation) {
		op.Summary = "Ingest matching articles into the local store"
	})
}

func (s *Server) registerArticlesRoute() {
	huma.Get(s.api, "/articles", s.articlesHandler, func(op *huma.Operation) {
		op.Summary = "List stored articles"
	})
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) searchHandler(ctx context.Context, input *searchInput) (*searchResponse, error) {
	envelope, err := s.kb.Search(ctx, input.Query)
	if err != nil {
		s.recordError(ctx, err, "search request failed", logrus.Fields{"query": input.Query})
		return nil, huma.Error500InternalServerError("search failed")
	}

	return &searchResponse{Body: *envelope}, nil
}

func (s *Server) askHandler(ctx context.Context, input *askInput) (*askResponse, error) {
	question := strings.TrimSpace(input.Body.Question)
	if question == "" {
		return nil, huma.Error400BadRequest("question is required")
	}

	result, err := s.kb.Ask(ctx, question)
	if err != nil {
		if eris.Is(err, kb.ErrAnswererUnavailable) {
			return nil, huma.Error503ServiceUnavailable("answer generation is not configured")
		}
		s.recordError(ctx, err, "ask request failed", logrus.Fields{"question": question})
		return nil, huma.Error500InternalServerError("answer generation failed")
	}

	resp := &askResponse{}
	resp.Body.Answer = result.Answer
	resp.Body.Sources = result.Sources
	if resp.Body.Sources == nil {
		resp.Body.Sources = []helpcenter.Source{}
	}

	return resp, nil
}

func (s *Server) ingestHandler(ctx context.Context, input *ingestInput) (*ingestResponse, error) {
	query := strings.TrimSpace(input.Body.Query)
	if query == "" {
		return nil, huma.Error400BadRequest("query is required")
	}

	stored, err := s.kb.Ingest(ctx, query)
	if err != nil {
		s.recordError(ctx, err, "ingest request failed", logrus.Fields{"query": query})
		return nil, huma.Error500InternalServerError("ingest failed")
	}

	resp := &ingestResponse{}
	resp.Body.Stored = stored

	return resp, nil
}

func (s *Server) articlesHandler(ctx context.Context, _ *struct{}) (*articlesResponse, error) {
	articles, err := s.kb.ListArticles(ctx)
	if err != nil {
		s.recordError(ctx, err, "listing articles failed", nil)
		return nil, huma.Error500InternalServerError("listing articles failed")
	}

	resp := &articlesResponse{}
	resp.Body.Articles = make([]storedArticle, 0, len(articles))
	for _, article := range articles {
		resp.Body.Articles = append(resp.Body.Articles, storedArticle{
			ID:        article.RemoteID,
			Title:     article.Title,
			Body:      article.Body,
			HTMLURL:   article.HTMLURL,
			SectionID: article.SectionID,
			CreatedAt: article.RemoteCreatedAt,
			UpdatedAt: article.RemoteUpdatedAt,
		})
	}

	return resp, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"
	resp.Body.Answerer = "ready"

	if pingErr := db.Ping(s.db); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if !s.answerAvailable {
		resp.Body.Answerer = "unconfigured"
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}
