// Package okta models the Okta identity-management API: an authenticated
// client session, lazily paginated collections, and materialized entities
// for groups, users, applications and their assignments.
package okta

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/schubergphilis/oktalib-go/pkg/cache"
	"github.com/schubergphilis/oktalib-go/pkg/logging"
	"github.com/schubergphilis/oktalib-go/pkg/pagination"
	"github.com/schubergphilis/oktalib-go/pkg/ratelimit"
	"github.com/schubergphilis/oktalib-go/pkg/transport"
)

// SessionState tracks the client's construction lifecycle. There is no
// transition back to Authenticating; a failed session is terminal.
type SessionState int

const (
	// StateUninitialized is the zero state before construction starts.
	StateUninitialized SessionState = iota

	// StateAuthenticating is set while the identity probe is in flight.
	StateAuthenticating

	// StateReady is set once the identity probe succeeds.
	StateReady

	// StateFailed is the terminal state after a failed probe.
	StateFailed
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Config holds the client configuration.
type Config struct {
	// Host is the Okta org base URL, e.g. "https://example.okta.com".
	Host string

	// Token is the API token sent as "Authorization: SSWS <token>".
	Token string

	// HTTPClient overrides the underlying HTTP client (for testing).
	HTTPClient transport.Doer

	// Redis enables the shared rate-limit tracker and the GET response
	// cache. Both stay disabled when nil.
	Redis *redis.Client

	// CacheTTL is the response cache entry lifetime. Only used when
	// Redis is set; a non-positive value disables the cache.
	CacheTTL time.Duration

	// PageSize is the limit parameter for collection pages.
	PageSize int

	// Backoff configures 429 retry behavior.
	Backoff transport.BackoffConfig

	// MemoCapacity and MemoTTL bound the per-assignment memo cache.
	MemoCapacity int
	MemoTTL      time.Duration

	// Logger receives client events. Defaults to a component logger
	// derived from the process-wide zerolog logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(host, token string) Config {
	return Config{
		Host:         host,
		Token:        token,
		CacheTTL:     60 * time.Second,
		PageSize:     100,
		Backoff:      transport.DefaultBackoffConfig(),
		MemoCapacity: 16,
		MemoTTL:      5 * time.Minute,
	}
}

// Client is an authenticated Okta API session. It owns the transport and
// is immutable after construction, apart from the transport's internal
// retry bookkeeping. Not designed for concurrent use from multiple
// goroutines without external synchronization.
type Client struct {
	host      string
	api       string
	config    Config
	transport *transport.Transport
	paginator *pagination.Paginator
	state     SessionState
	logger    zerolog.Logger
}

// New creates a client session. It derives the API root, wires the
// backoff middleware (and optional cache and rate-limit gate) into the
// transport, and probes the identity endpoint. A failed probe returns
// ErrAuthFailed; the session must then be discarded.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("token is required")
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = logging.NewLogger("okta-client")
	}

	var tracker *ratelimit.Tracker
	var responseCache *cache.Manager
	if cfg.Redis != nil {
		tracker = ratelimit.NewTracker(cfg.Redis, logger)
		if cfg.CacheTTL > 0 {
			responseCache = cache.NewManager(cfg.Redis, cfg.CacheTTL)
		}
	}

	tx := transport.New(transport.Config{
		Token:       cfg.Token,
		HTTPClient:  cfg.HTTPClient,
		Backoff:     cfg.Backoff,
		RateLimiter: tracker,
		Cache:       responseCache,
		Logger:      logger,
	})

	c := &Client{
		host:      strings.TrimRight(cfg.Host, "/"),
		config:    cfg,
		transport: tx,
		state:     StateUninitialized,
		logger:    logger,
	}
	c.api = c.host + "/api/v1"
	c.paginator = pagination.New(tx, pagination.Config{PageSize: cfg.PageSize}, logger)

	c.state = StateAuthenticating
	resp, err := tx.Get(ctx, c.api+"/users/me/", nil)
	if err != nil {
		c.state = StateFailed
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if !resp.OK() {
		c.state = StateFailed
		return nil, fmt.Errorf("%w: %s", ErrAuthFailed, resp.Text())
	}
	c.state = StateReady

	c.logger.Info().Str("host", c.host).Msg("Okta session established")
	return c, nil
}

// Host returns the org base URL.
func (c *Client) Host() string {
	return c.host
}

// API returns the derived API root (host + "/api/v1").
func (c *Client) API() string {
	return c.api
}

// State returns the session lifecycle state.
func (c *Client) State() SessionState {
	return c.state
}

// Paginate walks a collection URL lazily. Each invocation starts a fresh
// page walk from the first page.
func (c *Client) Paginate(ctx context.Context, rawurl string) iter.Seq2[Record, error] {
	return c.paginator.Pages(ctx, rawurl)
}

// Materialize wraps a raw record as an entity. Non-object input degrades
// to an entity over an empty record.
func (c *Client) Materialize(data any) *Entity {
	e := newEntity(c, data)
	return &e
}

// resolveStub follows the canonical-parent link embedded in an assignment
// stub with one synchronous fetch. Fetch failures are logged and degrade
// to whatever body was returned; a missing link leaves the stub itself as
// the backing data.
func (c *Client) resolveStub(ctx context.Context, stub Record, rels ...string) Record {
	href := linkFrom(stub, append(rels, "self")...)
	if href == "" {
		c.logger.Debug().Msg("Assignment stub carries no resolvable link, using stub data")
		return stub
	}

	resp, err := c.transport.Get(ctx, href, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("url", href).Msg("Error resolving assignment stub")
		return Record{}
	}
	if !resp.OK() {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("url", href).
			Str("response", resp.Text()).
			Msg("Error resolving assignment stub")
	}

	var body any
	if err := resp.JSON(&body); err != nil {
		c.logger.Error().Err(err).Str("url", href).Msg("Unparsable canonical record")
		return Record{}
	}
	return coerceRecord(body, c.logger)
}

// Groups walks the groups configured in the org.
func (c *Client) Groups(ctx context.Context) iter.Seq2[*Group, error] {
	return iterEntities(c.Paginate(ctx, c.api+"/groups"), func(r Record) *Group {
		return newGroup(c, r)
	})
}

// ListGroups collects the full group collection.
func (c *Client) ListGroups(ctx context.Context) ([]*Group, error) {
	return collect(c.Groups(ctx))
}

// CreateGroup creates a group.
func (c *Client) CreateGroup(ctx context.Context, name, description string) (*Group, error) {
	payload := Record{
		"profile": Record{
			"name":        name,
			"description": description,
		},
	}
	resp, err := c.transport.Post(ctx, c.api+"/groups", payload)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		c.logger.Error().Str("response", resp.Text()).Msg("Creating group failed")
		return nil, transport.NewServerError(resp)
	}
	var body any
	if err := resp.JSON(&body); err != nil {
		return nil, fmt.Errorf("decode created group: %w", err)
	}
	return newGroup(c, body), nil
}

// SearchGroupsByName retrieves the groups of any type matching name.
func (c *Client) SearchGroupsByName(ctx context.Context, name string) ([]*Group, error) {
	resp, err := c.transport.Get(ctx, c.api+"/groups", url.Values{"q": []string{name}})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		c.logger.Error().Str("response", resp.Text()).Msg("Searching groups failed")
		return nil, transport.NewServerError(resp)
	}
	var records []Record
	if err := resp.JSON(&records); err != nil {
		return nil, fmt.Errorf("decode group search results: %w", err)
	}
	groups := make([]*Group, 0, len(records))
	for _, record := range records {
		groups = append(groups, newGroup(c, record))
	}
	return groups, nil
}

// GroupByName retrieves the first group of any type with an exactly
// matching name. A nil group with a nil error means no match.
func (c *Client) GroupByName(ctx context.Context, name string) (*Group, error) {
	groups, err := c.SearchGroupsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		if group.Name() == name {
			return group, nil
		}
	}
	return nil, nil
}

// GroupTypeByName retrieves a group by name constrained to a group type
// (e.g. "OKTA_GROUP"). A nil group with a nil error means no match.
func (c *Client) GroupTypeByName(ctx context.Context, name, groupType string) (*Group, error) {
	groups, err := c.SearchGroupsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		if group.Type() == groupType {
			return group, nil
		}
	}
	return nil, nil
}

// DeleteGroup deletes a group by name. Returns InvalidGroupError when the
// group does not exist.
func (c *Client) DeleteGroup(ctx context.Context, name string) error {
	group, err := c.GroupByName(ctx, name)
	if err != nil {
		return err
	}
	if group == nil {
		return &InvalidGroupError{Name: name}
	}
	return group.Delete(ctx)
}

// Users walks the users configured in the org.
func (c *Client) Users(ctx context.Context) iter.Seq2[*User, error] {
	return iterEntities(c.Paginate(ctx, c.api+"/users"), func(r Record) *User {
		return newUser(c, r)
	})
}

// ListUsers collects the full user collection.
func (c *Client) ListUsers(ctx context.Context) ([]*User, error) {
	return collect(c.Users(ctx))
}

// CreateUserRequest carries the inputs for CreateUser.
type CreateUserRequest struct {
	FirstName string
	LastName  string
	Email     string
	Login     string

	// Password is optional; when empty the user is created without
	// credentials.
	Password string

	// Activate controls whether the user is activated on creation.
	Activate bool
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	payload := Record{
		"profile": Record{
			"firstName": req.FirstName,
			"lastName":  req.LastName,
			"email":     req.Email,
			"login":     req.Login,
		},
	}
	if req.Password != "" {
		payload["credentials"] = Record{
			"password": Record{"value": req.Password},
		}
	}

	target := fmt.Sprintf("%s/users?activate=%t", c.api, req.Activate)
	resp, err := c.transport.Post(ctx, target, payload)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		c.logger.Error().Str("response", resp.Text()).Msg("Creating user failed")
		return nil, transport.NewServerError(resp)
	}
	var body any
	if err := resp.JSON(&body); err != nil {
		return nil, fmt.Errorf("decode created user: %w", err)
	}
	return newUser(c, body), nil
}

// UserByLogin retrieves a user by login. A nil user with a nil error
// means no match.
func (c *Client) UserByLogin(ctx context.Context, login string) (*User, error) {
	filter := fmt.Sprintf(`profile.login eq "%s"`, login)
	users, err := c.filterUsers(ctx, url.Values{"filter": []string{filter}})
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if user.Login() == login {
			return user, nil
		}
	}
	return nil, nil
}

// SearchUsers retrieves users matching value in name, last name or email.
func (c *Client) SearchUsers(ctx context.Context, value string) ([]*User, error) {
	return c.filterUsers(ctx, url.Values{"q": []string{value}})
}

// SearchUsersByEmail retrieves users by email.
func (c *Client) SearchUsersByEmail(ctx context.Context, email string) ([]*User, error) {
	filter := fmt.Sprintf(`profile.email eq "%s"`, email)
	return c.filterUsers(ctx, url.Values{"filter": []string{filter}})
}

func (c *Client) filterUsers(ctx context.Context, params url.Values) ([]*User, error) {
	resp, err := c.transport.Get(ctx, c.api+"/users", params)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		c.logger.Error().Str("response", resp.Text()).Msg("Searching users failed")
		return nil, transport.NewServerError(resp)
	}
	var records []Record
	if err := resp.JSON(&records); err != nil {
		return nil, fmt.Errorf("decode user search results: %w", err)
	}
	users := make([]*User, 0, len(records))
	for _, record := range records {
		users = append(users, newUser(c, record))
	}
	return users, nil
}

// Applications walks the applications configured in the org.
func (c *Client) Applications(ctx context.Context) iter.Seq2[*Application, error] {
	return iterEntities(c.Paginate(ctx, c.api+"/apps"), func(r Record) *Application {
		return newApplication(c, r)
	})
}

// ListApplications collects the full application collection.
func (c *Client) ListApplications(ctx context.Context) ([]*Application, error) {
	return collect(c.Applications(ctx))
}

// ApplicationByID retrieves an application by id. A nil application with
// a nil error means no match.
func (c *Client) ApplicationByID(ctx context.Context, id string) (*Application, error) {
	for app, err := range c.Applications(ctx) {
		if err != nil {
			return nil, err
		}
		if app.ID() == id {
			return app, nil
		}
	}
	return nil, nil
}

// ApplicationByLabel retrieves an application by label, case-insensitive.
// A nil application with a nil error means no match.
func (c *Client) ApplicationByLabel(ctx context.Context, label string) (*Application, error) {
	for app, err := range c.Applications(ctx) {
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(app.Label(), label) {
			return app, nil
		}
	}
	return nil, nil
}

// AssignGroupToApplication assigns a group to an application, both
// referenced by their human labels.
func (c *Client) AssignGroupToApplication(ctx context.Context, applicationLabel, groupName string) error {
	application, err := c.ApplicationByLabel(ctx, applicationLabel)
	if err != nil {
		return err
	}
	if application == nil {
		return &InvalidApplicationError{Label: applicationLabel}
	}
	group, err := c.GroupByName(ctx, groupName)
	if err != nil {
		return err
	}
	if group == nil {
		return &InvalidGroupError{Name: groupName}
	}
	return application.AddGroupByID(ctx, group.ID())
}

// RemoveGroupFromApplication removes a group from an application, both
// referenced by their human labels.
func (c *Client) RemoveGroupFromApplication(ctx context.Context, applicationLabel, groupName string) error {
	application, err := c.ApplicationByLabel(ctx, applicationLabel)
	if err != nil {
		return err
	}
	if application == nil {
		return &InvalidApplicationError{Label: applicationLabel}
	}
	group, err := c.GroupByName(ctx, groupName)
	if err != nil {
		return err
	}
	if group == nil {
		return &InvalidGroupError{Name: groupName}
	}
	return application.RemoveGroupByID(ctx, group.ID())
}

// execute performs a mutation call and reduces the outcome to an error:
// nil on 2xx, the provider's error otherwise. Failures are logged with
// the provider body.
func (c *Client) execute(ctx context.Context, method, rawurl string, payload any, action string) error {
	resp, err := c.transport.Request(ctx, method, rawurl, &transport.RequestOptions{Body: payload})
	if err != nil {
		return err
	}
	if !resp.OK() {
		c.logger.Error().
			Str("url", rawurl).
			Str("response", resp.Text()).
			Msg(action + " failed")
		return transport.NewServerError(resp)
	}
	return nil
}

// iterEntities maps a raw record sequence into a typed entity sequence,
// preserving laziness.
func iterEntities[T any](seq iter.Seq2[Record, error], build func(Record) T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for record, err := range seq {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(build(record), nil) {
				return
			}
		}
	}
}

// collect exhausts a typed sequence into a slice.
func collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var items []T
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
