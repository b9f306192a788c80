package okta

import (
	"context"
	"iter"
	"net/http"
)

// Application models an Okta application.
type Application struct {
	Entity
}

func newApplication(c *Client, data any) *Application {
	return &Application{Entity: newEntity(c, data)}
}

// URL returns the canonical URL of the application.
func (a *Application) URL() string {
	return a.client.api + "/apps/" + a.ID()
}

// Name returns the application name.
func (a *Application) Name() string {
	return a.stringField("name")
}

// Label returns the application label.
func (a *Application) Label() string {
	return a.stringField("label")
}

// Status returns the application status, e.g. "ACTIVE".
func (a *Application) Status() string {
	return a.stringField("status")
}

// SignOnMode returns the application sign-on mode.
func (a *Application) SignOnMode() string {
	return a.stringField("signOnMode")
}

// Accessibility returns the application accessibility object.
func (a *Application) Accessibility() Record {
	return a.mapField("accessibility")
}

// Visibility returns the application visibility object.
func (a *Application) Visibility() Record {
	return a.mapField("visibility")
}

// Features returns the application features.
func (a *Application) Features() []string {
	raw, ok := a.data["features"].([]any)
	if !ok {
		return nil
	}
	features := make([]string, 0, len(raw))
	for _, item := range raw {
		if feature, ok := item.(string); ok {
			features = append(features, feature)
		}
	}
	return features
}

// Credentials returns the application credentials object.
func (a *Application) Credentials() Record {
	return a.mapField("credentials")
}

// Settings returns the application-specific settings.
func (a *Application) Settings() Record {
	settings := a.mapField("settings")
	if settings == nil {
		return nil
	}
	app, _ := settings["app"].(map[string]any)
	return app
}

// NotificationSettings returns the application notification settings.
func (a *Application) NotificationSettings() Record {
	settings := a.mapField("settings")
	if settings == nil {
		return nil
	}
	notifications, _ := settings["notifications"].(map[string]any)
	return notifications
}

// SignOnSettings returns the application sign-on settings.
func (a *Application) SignOnSettings() Record {
	settings := a.mapField("settings")
	if settings == nil {
		return nil
	}
	signOn, _ := settings["signOn"].(map[string]any)
	return signOn
}

// Users walks the users assigned to the application.
func (a *Application) Users(ctx context.Context) iter.Seq2[*User, error] {
	target := a.linkHref("users")
	return iterEntities(a.client.Paginate(ctx, target), func(r Record) *User {
		return newUser(a.client, r)
	})
}

// Groups walks the groups assigned to the application.
func (a *Application) Groups(ctx context.Context) iter.Seq2[*Group, error] {
	target := a.linkHref("groups")
	return iterEntities(a.client.Paginate(ctx, target), func(r Record) *Group {
		return newGroup(a.client, r)
	})
}

// GroupAssignments walks the application's group assignments as
// stub-resolved assignment entities. Each materialization issues one
// secondary fetch for the canonical group record.
func (a *Application) GroupAssignments(ctx context.Context) iter.Seq2[*AppGroupAssignment, error] {
	target := a.URL() + "/groups"
	return iterEntities(a.client.Paginate(ctx, target), func(r Record) *AppGroupAssignment {
		return newAppGroupAssignment(ctx, a.client, r)
	})
}

// UserAssignments walks the application's user assignments as
// stub-resolved assignment entities.
func (a *Application) UserAssignments(ctx context.Context) iter.Seq2[*AppUserAssignment, error] {
	target := a.URL() + "/users"
	return iterEntities(a.client.Paginate(ctx, target), func(r Record) *AppUserAssignment {
		return newAppUserAssignment(ctx, a.client, r)
	})
}

// Activate activates the application. Already-active applications are a
// no-op.
func (a *Application) Activate(ctx context.Context) error {
	if a.Status() == "ACTIVE" {
		return nil
	}
	target := a.linkHref("activate")
	if err := a.client.execute(ctx, http.MethodPost, target, nil, "Activating application"); err != nil {
		return err
	}
	a.refresh(ctx, a.URL())
	return nil
}

// Deactivate deactivates the application. Already-inactive applications
// are a no-op.
func (a *Application) Deactivate(ctx context.Context) error {
	if a.Status() == "INACTIVE" {
		return nil
	}
	target := a.linkHref("deactivate")
	if err := a.client.execute(ctx, http.MethodPost, target, nil, "Deactivating application"); err != nil {
		return err
	}
	a.refresh(ctx, a.URL())
	return nil
}

// AddGroupByID assigns a group to the application.
func (a *Application) AddGroupByID(ctx context.Context, groupID string) error {
	target := a.URL() + "/groups/" + groupID
	return a.client.execute(ctx, http.MethodPut, target, Record{}, "Adding group to application")
}

// RemoveGroupByID removes a group from the application.
func (a *Application) RemoveGroupByID(ctx context.Context, groupID string) error {
	target := a.URL() + "/groups/" + groupID
	return a.client.execute(ctx, http.MethodDelete, target, nil, "Removing group from application")
}

// AddGroupByName assigns a group to the application by name. Returns
// InvalidGroupError when no group matches.
func (a *Application) AddGroupByName(ctx context.Context, name string) error {
	group, err := a.client.GroupByName(ctx, name)
	if err != nil {
		return err
	}
	if group == nil {
		return &InvalidGroupError{Name: name}
	}
	return a.AddGroupByID(ctx, group.ID())
}

// RemoveGroupByName removes a group from the application by name. Returns
// InvalidGroupError when no group matches.
func (a *Application) RemoveGroupByName(ctx context.Context, name string) error {
	group, err := a.client.GroupByName(ctx, name)
	if err != nil {
		return err
	}
	if group == nil {
		return &InvalidGroupError{Name: name}
	}
	return a.RemoveGroupByID(ctx, group.ID())
}
