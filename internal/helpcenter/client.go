package helpcenter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL  = "https://nequi.zendesk.com"
	defaultPageSize = 5

	searchPath = "/api/v2/help_center/articles/search"
)

// projectedFields are the attributes extracted from every retained article,
// in the order they appear in the source payload.
var projectedFields = [...]string{"id", "title", "body", "html_url", "section_id", "created_at", "updated_at"}

// Searcher performs a knowledge-base lookup and returns a result envelope.
type Searcher interface {
	Search(ctx context.Context, query string) (*Envelope, error)
}

// ClientOptions controls how the help-center search client is initialised.
type ClientOptions struct {
	BaseURL    string
	PageSize   int
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client queries a help-center search endpoint and normalizes its results.
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
	logger     *logrus.Logger
}

var _ Searcher = (*Client)(nil)

// NewClient constructs a help-center search client. Zero-valued options fall
// back to the public endpoint and a page size of 5.
func NewClient(opts ClientOptions) (*Client, error) {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing help center base URL: %s", baseURL)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, eris.Errorf("help center base URL must be absolute: %s", baseURL)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   pageSize,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// BaseURL returns the configured help-center base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PageSize returns the configured result page size.
func (c *Client) PageSize() int {
	return c.pageSize
}

// Search issues a single help-center lookup for the query and returns a
// normalized envelope. The query is forwarded verbatim, empty or not.
//
// Transport failures (network errors and non-2xx responses) are recovered and
// surfaced as a failure envelope with a nil error. A malformed success body or
// a retained article missing a projected field is returned as a non-nil error
// instead; that class of fault is deliberately not folded into the envelope.
func (c *Client) Search(ctx context.Context, query string) (*Envelope, error) {
	requestURL := fmt.Sprintf("%s%s?query=%s&per_page=%d", c.baseURL, searchPath, url.QueryEscape(query), c.pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "building help center search request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logError(logrus.Fields{"query": query}, err, "help center search request failed")
		return &Envelope{Status: StatusFailed, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := eris.Errorf("help center search returned status %d", resp.StatusCode)
		c.logError(logrus.Fields{"query": query, "status": resp.StatusCode}, err, "help center search rejected")
		return &Envelope{Status: StatusFailed, Error: err.Error()}, nil
	}

	var payload struct {
		Results []map[string]any `json:"results"`
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		c.logError(logrus.Fields{"query": query}, err, "decoding help center search response")
		return nil, eris.Wrap(err, "decoding help center search response")
	}

	sources := make([]Source, 0, len(payload.Results))
	for _, result := range payload.Results {
		if renderText(result["body"]) == "" {
			continue
		}

		source, err := projectSource(result)
		if err != nil {
			c.logError(logrus.Fields{"query": query}, err, "projecting help center article")
			return nil, err
		}
		sources = append(sources, source)
	}

	return &Envelope{Status: StatusOK, Sources: sources}, nil
}

// projectSource extracts the seven projected fields from a raw article,
// coercing each value to text. Every field must be present.
func projectSource(result map[string]any) (Source, error) {
	values := make(map[string]string, len(projectedFields))
	for _, field := range projectedFields {
		value, ok := result[field]
		if !ok {
			return Source{}, eris.Errorf("help center article is missing field: %s", field)
		}
		values[field] = renderText(value)
	}

	return Source{
		ID:        values["id"],
		Title:     values["title"],
		Body:      values["body"],
		HTMLURL:   values["html_url"],
		SectionID: values["section_id"],
		CreatedAt: values["created_at"],
		UpdatedAt: values["updated_at"],
	}, nil
}

func (c *Client) logError(fields logrus.Fields, err error, message string) {
	if c.logger == nil {
		return
	}
	c.logger.WithFields(fields).WithError(err).Error(message)
}
