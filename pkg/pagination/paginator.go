package pagination

import (
	"context"
	"iter"
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/schubergphilis/oktalib-go/pkg/transport"
)

// Prometheus metrics for page walks.
var (
	oktaPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "okta_pages_fetched_total",
		Help: "Total number of collection pages fetched",
	})

	oktaPageRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "okta_page_records",
		Help:    "Number of records per fetched page",
		Buckets: []float64{1, 10, 50, 100, 200, 500},
	})
)

// Record is an untyped JSON object as returned by the provider, keys in
// the provider's camelCase vocabulary (id, created, lastUpdated, profile,
// _links, ...).
type Record map[string]any

// Requester fetches a single URL. *transport.Transport satisfies it.
type Requester interface {
	Get(ctx context.Context, rawurl string, params url.Values) (*transport.Response, error)
}

// Config holds paginator configuration.
type Config struct {
	// PageSize is the limit parameter sent with the first page request.
	PageSize int
}

// DefaultConfig returns the default paginator configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: 100,
	}
}

// Paginator walks Link-header paginated collections.
type Paginator struct {
	client Requester
	config Config
	logger zerolog.Logger
}

// New creates a paginator over the given requester.
func New(client Requester, config Config, logger zerolog.Logger) *Paginator {
	if config.PageSize <= 0 {
		config.PageSize = 100
	}
	return &Paginator{
		client: client,
		config: config,
		logger: logger,
	}
}

// Pages returns a lazy sequence of the collection's records in response
// order. The first page request carries the configured limit parameter;
// subsequent pages follow the rel="next" link verbatim. A missing next
// link terminates the sequence normally. A non-success page or an
// unparsable page body yields a single fatal error and ends the walk.
//
// Each call starts a fresh walk from the first page; the sequence is not
// a resumable cursor.
func (p *Paginator) Pages(ctx context.Context, rawurl string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		next := rawurl
		params := url.Values{"limit": []string{strconv.Itoa(p.config.PageSize)}}

		for next != "" {
			resp, err := p.client.Get(ctx, next, params)
			if err != nil {
				yield(nil, err)
				return
			}
			params = nil

			if !resp.OK() {
				yield(nil, transport.NewServerError(resp))
				return
			}

			var records []Record
			if err := resp.JSON(&records); err != nil {
				// Unparsable page bodies are fatal at this boundary.
				yield(nil, &transport.ServerError{
					StatusCode: resp.StatusCode,
					Message:    "malformed page body",
					Body:       resp.Text(),
				})
				return
			}

			oktaPagesTotal.Inc()
			oktaPageRecords.Observe(float64(len(records)))

			p.logger.Debug().
				Str("url", next).
				Int("records", len(records)).
				Msg("Fetched collection page")

			for _, record := range records {
				if !yield(record, nil) {
					return
				}
			}

			link, ok := resp.NextLink()
			if !ok {
				return
			}
			next = link
		}
	}
}

// Collect exhausts a page walk into a slice. It is a convenience for
// callers that want the whole collection; laziness is lost.
func (p *Paginator) Collect(ctx context.Context, rawurl string) ([]Record, error) {
	var records []Record
	for record, err := range p.Pages(ctx, rawurl) {
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
