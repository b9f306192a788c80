package okta

import (
	"context"
	"fmt"
)

// AppGroupAssignment models a group assigned to an application. It is
// constructed from a link stub rather than a full record: construction
// performs one secondary fetch through the stub's embedded link to
// obtain the canonical group record, which becomes the entity's backing
// data. The stub is retained for assignment-only fields (priority,
// assignment profile) that the canonical record does not carry.
type AppGroupAssignment struct {
	Entity
	stub Record
	memo *memoCache
}

func newAppGroupAssignment(ctx context.Context, c *Client, data any) *AppGroupAssignment {
	stub := coerceRecord(data, c.logger)
	canonical := c.resolveStub(ctx, stub, "group")

	a := &AppGroupAssignment{
		Entity: newEntity(c, canonical),
		stub:   stub,
		memo:   newMemoCache(c.config.MemoCapacity, c.config.MemoTTL),
	}
	return a
}

// Stub returns the original assignment record.
func (a *AppGroupAssignment) Stub() Record {
	return a.stub
}

// Priority returns the assignment priority, or -1 when absent.
func (a *AppGroupAssignment) Priority() int {
	if priority, ok := a.stub["priority"].(float64); ok {
		return int(priority)
	}
	return -1
}

// AssignmentProfile returns the assignment-specific profile attributes
// from the stub.
func (a *AppGroupAssignment) AssignmentProfile() Record {
	profile, _ := a.stub["profile"].(map[string]any)
	return profile
}

// Group returns the assigned group, freshly fetched through the stub's
// canonical link. The result is memoized for the configured window;
// within it, repeated reads reuse the cached value without a fetch.
func (a *AppGroupAssignment) Group(ctx context.Context) (*Group, error) {
	if cached, ok := a.memo.get("group"); ok {
		return cached.(*Group), nil
	}
	record, err := a.fetchLinked(ctx, "group", "self")
	if err != nil {
		return nil, err
	}
	group := newGroup(a.client, record)
	a.memo.put("group", group)
	return group, nil
}

// App returns the owning application, fetched through the stub's app
// link. Memoized like Group.
func (a *AppGroupAssignment) App(ctx context.Context) (*Application, error) {
	if cached, ok := a.memo.get("app"); ok {
		return cached.(*Application), nil
	}
	record, err := a.fetchLinked(ctx, "app")
	if err != nil {
		return nil, err
	}
	application := newApplication(a.client, record)
	a.memo.put("app", application)
	return application, nil
}

func (a *AppGroupAssignment) fetchLinked(ctx context.Context, rels ...string) (Record, error) {
	return fetchLinked(ctx, a.client, a.stub, rels...)
}

// AppUserAssignment models a user assigned to an application,
// constructed from a link stub the same way as AppGroupAssignment.
type AppUserAssignment struct {
	Entity
	stub Record
	memo *memoCache
}

func newAppUserAssignment(ctx context.Context, c *Client, data any) *AppUserAssignment {
	stub := coerceRecord(data, c.logger)
	canonical := c.resolveStub(ctx, stub, "user")

	return &AppUserAssignment{
		Entity: newEntity(c, canonical),
		stub:   stub,
		memo:   newMemoCache(c.config.MemoCapacity, c.config.MemoTTL),
	}
}

// Stub returns the original assignment record.
func (a *AppUserAssignment) Stub() Record {
	return a.stub
}

// Scope returns the assignment scope ("USER" or "GROUP").
func (a *AppUserAssignment) Scope() string {
	scope, _ := a.stub["scope"].(string)
	return scope
}

// AssignmentProfile returns the assignment-specific profile attributes
// from the stub.
func (a *AppUserAssignment) AssignmentProfile() Record {
	profile, _ := a.stub["profile"].(map[string]any)
	return profile
}

// User returns the assigned user, freshly fetched through the stub's
// canonical link. Memoized for the configured window.
func (a *AppUserAssignment) User(ctx context.Context) (*User, error) {
	if cached, ok := a.memo.get("user"); ok {
		return cached.(*User), nil
	}
	record, err := fetchLinked(ctx, a.client, a.stub, "user", "self")
	if err != nil {
		return nil, err
	}
	user := newUser(a.client, record)
	a.memo.put("user", user)
	return user, nil
}

// App returns the owning application. Memoized like User.
func (a *AppUserAssignment) App(ctx context.Context) (*Application, error) {
	if cached, ok := a.memo.get("app"); ok {
		return cached.(*Application), nil
	}
	record, err := fetchLinked(ctx, a.client, a.stub, "app")
	if err != nil {
		return nil, err
	}
	application := newApplication(a.client, record)
	a.memo.put("app", application)
	return application, nil
}

// fetchLinked fetches the record behind a stub's link relation. Unlike
// the construction-time stub resolution, failures here are surfaced:
// callers asked for the linked entity explicitly.
func fetchLinked(ctx context.Context, c *Client, stub Record, rels ...string) (Record, error) {
	href := linkFrom(stub, rels...)
	if href == "" {
		return nil, fmt.Errorf("stub carries no %v link", rels)
	}
	resp, err := c.transport.Get(ctx, href, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetch %s: status %d: %s", href, resp.StatusCode, resp.Text())
	}
	var body any
	if err := resp.JSON(&body); err != nil {
		return nil, fmt.Errorf("decode %s: %w", href, err)
	}
	return coerceRecord(body, c.logger), nil
}
