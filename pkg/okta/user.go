package okta

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"time"
)

// User models an Okta user.
type User struct {
	Entity
}

func newUser(c *Client, data any) *User {
	return &User{Entity: newEntity(c, data)}
}

// URL returns the canonical URL of the user, preferring the self link.
func (u *User) URL() string {
	if href := u.linkHref("self"); href != "" {
		return href
	}
	return u.client.api + "/users/" + u.ID()
}

// Status returns the user status, e.g. "ACTIVE".
func (u *User) Status() string {
	return u.stringField("status")
}

// ActivatedAt returns when the user was activated.
func (u *User) ActivatedAt() *time.Time {
	return u.dateField("activated")
}

// StatusChangedAt returns when the user last changed status.
func (u *User) StatusChangedAt() *time.Time {
	return u.dateField("statusChanged")
}

// LastLoginAt returns when the user last logged in.
func (u *User) LastLoginAt() *time.Time {
	return u.dateField("lastLogin")
}

// PasswordChangedAt returns when the user last changed password.
func (u *User) PasswordChangedAt() *time.Time {
	return u.dateField("passwordChanged")
}

// FirstName returns the user's first name.
func (u *User) FirstName() string { return u.profileString("firstName") }

// LastName returns the user's last name.
func (u *User) LastName() string { return u.profileString("lastName") }

// DisplayName returns the user's display name.
func (u *User) DisplayName() string { return u.profileString("displayName") }

// Title returns the user's title.
func (u *User) Title() string { return u.profileString("title") }

// Manager returns the user's manager.
func (u *User) Manager() string { return u.profileString("manager") }

// Locale returns the user's locale.
func (u *User) Locale() string { return u.profileString("locale") }

// EmployeeNumber returns the user's employee number.
func (u *User) EmployeeNumber() string { return u.profileString("employeeNumber") }

// Organization returns the user's organization.
func (u *User) Organization() string { return u.profileString("organization") }

// Department returns the user's department.
func (u *User) Department() string { return u.profileString("department") }

// City returns the user's city.
func (u *User) City() string { return u.profileString("city") }

// StreetAddress returns the user's street address.
func (u *User) StreetAddress() string { return u.profileString("streetAddress") }

// ZipCode returns the user's zip code.
func (u *User) ZipCode() string { return u.profileString("zipCode") }

// CountryCode returns the user's country code.
func (u *User) CountryCode() string { return u.profileString("countryCode") }

// PrimaryPhone returns the user's primary phone.
func (u *User) PrimaryPhone() string { return u.profileString("primaryPhone") }

// MobilePhone returns the user's mobile phone.
func (u *User) MobilePhone() string { return u.profileString("mobilePhone") }

// Email returns the user's email.
func (u *User) Email() string { return u.profileString("email") }

// SecondEmail returns the user's second email.
func (u *User) SecondEmail() string { return u.profileString("secondEmail") }

// Login returns the user's login.
func (u *User) Login() string { return u.profileString("login") }

// Credentials returns the user's credentials object.
func (u *User) Credentials() Record {
	return u.mapField("credentials")
}

// Groups walks the groups the user is a member of.
func (u *User) Groups(ctx context.Context) iter.Seq2[*Group, error] {
	target := u.client.api + "/users/" + u.ID() + "/groups"
	return iterEntities(u.client.Paginate(ctx, target), func(r Record) *Group {
		return newGroup(u.client, r)
	})
}

// Delete deletes the user. Okta requires two calls: the first
// deactivates, the second deletes.
func (u *User) Delete(ctx context.Context) error {
	if err := u.client.execute(ctx, http.MethodDelete, u.URL(), nil, "Deactivating user"); err != nil {
		return err
	}
	return u.client.execute(ctx, http.MethodDelete, u.URL(), nil, "Deleting user")
}

// postLifecycle issues a lifecycle transition and refreshes the backing
// data on success.
func (u *User) postLifecycle(ctx context.Context, target, action string) error {
	if err := u.client.execute(ctx, http.MethodPost, target, nil, action); err != nil {
		return err
	}
	u.refresh(ctx, u.URL())
	return nil
}

func (u *User) lifecycleURL(transition string) string {
	return u.client.api + "/users/" + u.ID() + "/lifecycle/" + transition
}

// Activate activates the user without sending the activation email.
func (u *User) Activate(ctx context.Context) error {
	return u.postLifecycle(ctx, u.lifecycleURL("activate?sendEmail=false"), "Activating user")
}

// Deactivate deactivates the user.
func (u *User) Deactivate(ctx context.Context) error {
	return u.postLifecycle(ctx, u.lifecycleURL("deactivate"), "Deactivating user")
}

// Unlock unlocks the user.
func (u *User) Unlock(ctx context.Context) error {
	return u.postLifecycle(ctx, u.lifecycleURL("unlock"), "Unlocking user")
}

// Suspend suspends the user.
func (u *User) Suspend(ctx context.Context) error {
	return u.postLifecycle(ctx, u.lifecycleURL("suspend"), "Suspending user")
}

// Unsuspend unsuspends the user.
func (u *User) Unsuspend(ctx context.Context) error {
	return u.postLifecycle(ctx, u.lifecycleURL("unsuspend"), "Unsuspending user")
}

// ExpirePassword expires the user's password.
func (u *User) ExpirePassword(ctx context.Context) error {
	return u.postLifecycle(ctx, u.lifecycleURL("expire_password"), "Expiring user password")
}

// ResetPassword resets the user's password without sending the reset
// email.
func (u *User) ResetPassword(ctx context.Context) error {
	return u.postLifecycle(ctx, u.lifecycleURL("reset_password?sendEmail=false"), "Resetting user password")
}

// SetTemporaryPassword expires the password and returns the temporary
// one generated by the provider.
func (u *User) SetTemporaryPassword(ctx context.Context) (string, error) {
	target := u.lifecycleURL("expire_password?tempPassword=true")
	resp, err := u.client.transport.Post(ctx, target, nil)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		u.logger.Error().Str("response", resp.Text()).Msg("Setting temporary password failed")
		return "", fmt.Errorf("setting temporary password: %s", resp.Text())
	}
	u.refresh(ctx, u.URL())

	var body struct {
		TempPassword string `json:"tempPassword"`
	}
	if err := resp.JSON(&body); err != nil {
		return "", fmt.Errorf("decode temporary password: %w", err)
	}
	return body.TempPassword, nil
}

// UpdatePassword changes the user's password.
func (u *User) UpdatePassword(ctx context.Context, oldPassword, newPassword string) error {
	target := u.client.api + "/users/" + u.ID() + "/credentials/change_password"
	payload := Record{
		"oldPassword": Record{"value": oldPassword},
		"newPassword": Record{"value": newPassword},
	}
	return u.client.execute(ctx, http.MethodPost, target, payload, "Changing user password")
}

// UpdateProfile updates the user's profile with the given attributes,
// e.g. {"profile": {"firstName": "Test"}}.
func (u *User) UpdateProfile(ctx context.Context, profile Record) error {
	target := u.client.api + "/users/" + u.ID()
	return u.client.execute(ctx, http.MethodPost, target, profile, "Updating user profile")
}

// UpdateSecurityQuestion changes the user's recovery question and answer.
func (u *User) UpdateSecurityQuestion(ctx context.Context, password, question, answer string) error {
	target := u.client.api + "/users/" + u.ID() + "/credentials/change_recovery_question"
	payload := Record{
		"password": Record{"value": password},
		"recovery_question": Record{
			"question": question,
			"answer":   answer,
		},
	}
	return u.client.execute(ctx, http.MethodPost, target, payload, "Changing security question")
}
