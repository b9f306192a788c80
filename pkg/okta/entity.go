package okta

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/schubergphilis/oktalib-go/pkg/pagination"
)

// Record is an untyped provider object.
type Record = pagination.Record

// Entity wraps a raw record together with a back-reference to the owning
// client. The reference is only used to issue further calls; the entity
// does not own the client's lifetime.
type Entity struct {
	client *Client
	data   Record
	logger zerolog.Logger
}

// newEntity materializes an entity from raw provider data. Input that is
// not a JSON object degrades to an empty record rather than failing;
// this is intentionally permissive for compatibility with callers that
// wrap error-response bodies.
func newEntity(client *Client, data any) Entity {
	logger := client.logger.With().Str("component", "entity").Logger()
	return Entity{
		client: client,
		data:   coerceRecord(data, logger),
		logger: logger,
	}
}

// coerceRecord narrows raw data to a Record, degrading anything else to
// an empty record.
func coerceRecord(data any, logger zerolog.Logger) Record {
	switch v := data.(type) {
	case Record:
		if v == nil {
			return Record{}
		}
		return v
	case map[string]any:
		if v == nil {
			return Record{}
		}
		return v
	default:
		logger.Error().Interface("data", data).Msg("Invalid entity data, degrading to empty record")
		return Record{}
	}
}

// Raw returns the backing record.
func (e *Entity) Raw() Record {
	return e.data
}

// ID returns the provider identifier, or the empty string for degraded
// entities.
func (e *Entity) ID() string {
	return e.stringField("id")
}

// CreatedAt returns the creation timestamp, or nil when the field is
// missing or unparsable.
func (e *Entity) CreatedAt() *time.Time {
	return e.dateField("created")
}

// LastUpdatedAt returns the last-update timestamp, or nil when the field
// is missing or unparsable.
func (e *Entity) LastUpdatedAt() *time.Time {
	return e.dateField("lastUpdated")
}

// stringField reads a top-level string field, empty when absent.
func (e *Entity) stringField(name string) string {
	value, _ := e.data[name].(string)
	return value
}

// mapField reads a top-level object field, nil when absent.
func (e *Entity) mapField(name string) Record {
	switch v := e.data[name].(type) {
	case map[string]any:
		return v
	case Record:
		return v
	default:
		return nil
	}
}

// profileString reads a string field nested under profile.
func (e *Entity) profileString(name string) string {
	profile := e.mapField("profile")
	if profile == nil {
		return ""
	}
	value, _ := profile[name].(string)
	return value
}

// dateField parses an RFC3339 timestamp field. Parsing failures are
// swallowed and degrade to nil, never an error.
func (e *Entity) dateField(name string) *time.Time {
	raw := e.stringField(name)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

// linkHref returns the href of the first matching link relation under
// _links, empty when none matches.
func (e *Entity) linkHref(rels ...string) string {
	return linkFrom(e.data, rels...)
}

// linkFrom extracts a link href from a record's _links object, trying
// the given relations in order.
func linkFrom(data Record, rels ...string) string {
	links, ok := data["_links"].(map[string]any)
	if !ok {
		return ""
	}
	for _, rel := range rels {
		link, ok := links[rel].(map[string]any)
		if !ok {
			continue
		}
		if href, ok := link["href"].(string); ok && href != "" {
			return href
		}
	}
	return ""
}

// refresh refetches the entity's backing data from the given URL after a
// mutation. Failures are logged and leave the current data in place.
func (e *Entity) refresh(ctx context.Context, rawurl string) bool {
	resp, err := e.client.transport.Get(ctx, rawurl, nil)
	if err != nil {
		e.logger.Error().Err(err).Str("url", rawurl).Msg("Error refreshing entity data")
		return false
	}
	if !resp.OK() {
		e.logger.Error().
			Int("status", resp.StatusCode).
			Str("response", resp.Text()).
			Msg("Error refreshing entity data")
		return false
	}
	var body any
	if err := resp.JSON(&body); err != nil {
		e.logger.Error().Err(err).Str("url", rawurl).Msg("Unparsable entity data on refresh")
		return false
	}
	e.data = coerceRecord(body, e.logger)
	return true
}
