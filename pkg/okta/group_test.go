package okta

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/schubergphilis/oktalib-go/internal/testutil"
)

func TestGroup_MembershipByID(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	var methods []string
	mock.SetHandler("/api/v1/groups/g1/users/u1", func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, mock)
	g := newGroup(c, Record{"id": "g1", "profile": map[string]any{"name": "Admins"}})
	ctx := context.Background()

	if err := g.AddUserByID(ctx, "u1"); err != nil {
		t.Fatalf("AddUserByID() error = %v", err)
	}
	if err := g.RemoveUserByID(ctx, "u1"); err != nil {
		t.Fatalf("RemoveUserByID() error = %v", err)
	}

	if len(methods) != 2 || methods[0] != http.MethodPut || methods[1] != http.MethodDelete {
		t.Errorf("methods = %v, want [PUT DELETE]", methods)
	}
}

func TestGroup_AddUserByLoginUnknownUser(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	mock.SetJSONResponse("/api/v1/users", 200, `[]`)

	c := newTestClient(t, mock)
	g := newGroup(c, Record{"id": "g1"})

	err := g.AddUserByLogin(context.Background(), "nobody@example.com")
	var invalid *InvalidUserError
	if !errors.As(err, &invalid) {
		t.Fatalf("AddUserByLogin() error = %v, want InvalidUserError", err)
	}
	if invalid.Login != "nobody@example.com" {
		t.Errorf("InvalidUserError.Login = %q", invalid.Login)
	}
}

func TestGroup_SetNameRefreshesData(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	updates := 0
	mock.SetHandler("/api/v1/groups/g1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodPut {
			updates++
			w.Write([]byte(`{"id": "g1"}`))
			return
		}
		w.Write([]byte(`{"id": "g1", "profile": {"name": "Renamed", "description": "Administrators"}}`))
	})

	c := newTestClient(t, mock)
	g := newGroup(c, Record{"id": "g1", "profile": map[string]any{
		"name":        "Admins",
		"description": "Administrators",
	}})

	if err := g.SetName(context.Background(), "Renamed"); err != nil {
		t.Fatalf("SetName() error = %v", err)
	}
	if updates != 1 {
		t.Errorf("updates = %d, want 1", updates)
	}
	if g.Name() != "Renamed" {
		t.Errorf("Name() = %q, want the refreshed value", g.Name())
	}
}

func TestGroup_MutationFailureSurfacesProviderError(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	mock.SetJSONResponse("/api/v1/groups/g1", 403,
		`{"errorCode": "E0000006", "errorSummary": "You do not have permission"}`)

	c := newTestClient(t, mock)
	g := newGroup(c, Record{"id": "g1"})

	err := g.Delete(context.Background())
	if err == nil {
		t.Fatal("Delete() error = nil")
	}
}

func TestUser_LifecycleTransitions(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	var paths []string
	for _, transition := range []string{"activate", "deactivate", "unlock", "suspend", "unsuspend", "expire_password", "reset_password"} {
		path := "/api/v1/users/u1/lifecycle/" + transition
		mock.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		})
	}
	mock.SetJSONResponse("/api/v1/users/u1", 200, `{"id": "u1", "status": "ACTIVE"}`)

	c := newTestClient(t, mock)
	u := newUser(c, Record{"id": "u1", "status": "STAGED"})
	ctx := context.Background()

	steps := []struct {
		name string
		call func() error
		want string
	}{
		{"activate", func() error { return u.Activate(ctx) }, "/api/v1/users/u1/lifecycle/activate?sendEmail=false"},
		{"suspend", func() error { return u.Suspend(ctx) }, "/api/v1/users/u1/lifecycle/suspend?"},
		{"unsuspend", func() error { return u.Unsuspend(ctx) }, "/api/v1/users/u1/lifecycle/unsuspend?"},
		{"reset password", func() error { return u.ResetPassword(ctx) }, "/api/v1/users/u1/lifecycle/reset_password?sendEmail=false"},
	}
	for i, step := range steps {
		if err := step.call(); err != nil {
			t.Fatalf("%s error = %v", step.name, err)
		}
		if paths[i] != step.want {
			t.Errorf("%s path = %q, want %q", step.name, paths[i], step.want)
		}
	}

	if u.Status() != "ACTIVE" {
		t.Errorf("Status() = %q, want the refreshed value", u.Status())
	}
}

func TestUser_SetTemporaryPassword(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	var gotQuery string
	mock.SetHandler("/api/v1/users/u1/lifecycle/expire_password", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"tempPassword": "hunter2!"}`))
	})
	mock.SetJSONResponse("/api/v1/users/u1", 200, `{"id": "u1", "status": "PASSWORD_EXPIRED"}`)

	c := newTestClient(t, mock)
	u := newUser(c, Record{"id": "u1"})

	password, err := u.SetTemporaryPassword(context.Background())
	if err != nil {
		t.Fatalf("SetTemporaryPassword() error = %v", err)
	}
	if password != "hunter2!" {
		t.Errorf("password = %q", password)
	}
	if gotQuery != "tempPassword=true" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestUser_DeleteIssuesTwoCalls(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	deletes := 0
	mock.SetHandler("/api/v1/users/u1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletes++
		}
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, mock)
	u := newUser(c, Record{"id": "u1"})

	if err := u.Delete(context.Background()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deletes != 2 {
		t.Errorf("DELETE calls = %d, want deactivate then delete", deletes)
	}
}

func TestApplication_ActivateIsNoOpWhenActive(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	c := newTestClient(t, mock)
	before := mock.RequestCount()

	a := newApplication(c, Record{"id": "a1", "status": "ACTIVE"})
	if err := a.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if mock.RequestCount() != before {
		t.Error("Activate() on an active application must not call the API")
	}
}

func TestApplication_DeactivateFollowsLink(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	deactivated := false
	mock.SetHandler("/api/v1/apps/a1/lifecycle/deactivate", func(w http.ResponseWriter, r *http.Request) {
		deactivated = true
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	})
	mock.SetJSONResponse("/api/v1/apps/a1", 200, `{"id": "a1", "status": "INACTIVE"}`)

	c := newTestClient(t, mock)
	a := newApplication(c, Record{
		"id":     "a1",
		"status": "ACTIVE",
		"_links": map[string]any{
			"deactivate": map[string]any{"href": mock.URL() + "/api/v1/apps/a1/lifecycle/deactivate"},
		},
	})

	if err := a.Deactivate(context.Background()); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if !deactivated {
		t.Error("deactivate link was not called")
	}
	if a.Status() != "INACTIVE" {
		t.Errorf("Status() = %q, want the refreshed value", a.Status())
	}
}
