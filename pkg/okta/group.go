package okta

import (
	"context"
	"iter"
	"net/http"
	"time"
)

// Group models an Okta group.
type Group struct {
	Entity
}

func newGroup(c *Client, data any) *Group {
	return &Group{Entity: newEntity(c, data)}
}

// URL returns the canonical URL of the group.
func (g *Group) URL() string {
	return g.client.api + "/groups/" + g.ID()
}

// Type returns the group type, e.g. "OKTA_GROUP".
func (g *Group) Type() string {
	return g.stringField("type")
}

// Profile returns the group's profile object.
func (g *Group) Profile() Record {
	return g.mapField("profile")
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.profileString("name")
}

// Description returns the group description.
func (g *Group) Description() string {
	return g.profileString("description")
}

// LastMembershipUpdatedAt returns when the group's memberships were last
// updated, or nil when missing or unparsable.
func (g *Group) LastMembershipUpdatedAt() *time.Time {
	return g.dateField("lastMembershipUpdated")
}

// ObjectClasses returns the group's object classes.
func (g *Group) ObjectClasses() []string {
	raw, ok := g.data["objectClass"].([]any)
	if !ok {
		return nil
	}
	classes := make([]string, 0, len(raw))
	for _, item := range raw {
		if class, ok := item.(string); ok {
			classes = append(classes, class)
		}
	}
	return classes
}

// SetName renames the group, keeping the current description.
func (g *Group) SetName(ctx context.Context, name string) error {
	return g.setProfile(ctx, name, g.Description())
}

// SetDescription updates the group description, keeping the current name.
func (g *Group) SetDescription(ctx context.Context, description string) error {
	return g.setProfile(ctx, g.Name(), description)
}

func (g *Group) setProfile(ctx context.Context, name, description string) error {
	payload := Record{
		"profile": Record{
			"name":        name,
			"description": description,
		},
	}
	if err := g.client.execute(ctx, http.MethodPut, g.URL(), payload, "Updating group profile"); err != nil {
		return err
	}
	g.refresh(ctx, g.URL())
	return nil
}

// Users walks the members of the group.
func (g *Group) Users(ctx context.Context) iter.Seq2[*User, error] {
	target := g.linkHref("users")
	return iterEntities(g.client.Paginate(ctx, target), func(r Record) *User {
		return newUser(g.client, r)
	})
}

// Applications walks the applications the group is assigned to.
func (g *Group) Applications(ctx context.Context) iter.Seq2[*Application, error] {
	target := g.linkHref("apps")
	return iterEntities(g.client.Paginate(ctx, target), func(r Record) *Application {
		return newApplication(g.client, r)
	})
}

// Delete deletes the group.
func (g *Group) Delete(ctx context.Context) error {
	return g.client.execute(ctx, http.MethodDelete, g.URL(), nil, "Deleting group")
}

// AddUserByID adds a user to the group.
func (g *Group) AddUserByID(ctx context.Context, userID string) error {
	target := g.URL() + "/users/" + userID
	return g.client.execute(ctx, http.MethodPut, target, nil, "Adding user to group")
}

// RemoveUserByID removes a user from the group.
func (g *Group) RemoveUserByID(ctx context.Context, userID string) error {
	target := g.URL() + "/users/" + userID
	return g.client.execute(ctx, http.MethodDelete, target, nil, "Removing user from group")
}

// AddUserByLogin adds a user to the group by login. Returns
// InvalidUserError when no user matches.
func (g *Group) AddUserByLogin(ctx context.Context, login string) error {
	user, err := g.client.UserByLogin(ctx, login)
	if err != nil {
		return err
	}
	if user == nil {
		return &InvalidUserError{Login: login}
	}
	return g.AddUserByID(ctx, user.ID())
}

// RemoveUserByLogin removes a user from the group by login. Returns
// InvalidUserError when no user matches.
func (g *Group) RemoveUserByLogin(ctx context.Context, login string) error {
	user, err := g.client.UserByLogin(ctx, login)
	if err != nil {
		return err
	}
	if user == nil {
		return &InvalidUserError{Login: login}
	}
	return g.RemoveUserByID(ctx, user.ID())
}

// AddToApplicationWithLabel assigns the group to an application by label.
func (g *Group) AddToApplicationWithLabel(ctx context.Context, label string) error {
	application, err := g.client.ApplicationByLabel(ctx, label)
	if err != nil {
		return err
	}
	if application == nil {
		return &InvalidApplicationError{Label: label}
	}
	return application.AddGroupByID(ctx, g.ID())
}

// RemoveFromApplicationWithLabel removes the group from an application by
// label.
func (g *Group) RemoveFromApplicationWithLabel(ctx context.Context, label string) error {
	application, err := g.client.ApplicationByLabel(ctx, label)
	if err != nil {
		return err
	}
	if application == nil {
		return &InvalidApplicationError{Label: label}
	}
	return application.RemoveGroupByID(ctx, g.ID())
}
