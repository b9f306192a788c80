package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/rs/zerolog"

	"github.com/schubergphilis/oktalib-go/internal/testutil"
)

func newTestTransport(mock *testutil.MockOkta) *Transport {
	return New(Config{
		Token:  "test-token",
		Logger: zerolog.Nop(),
	})
}

func TestTransport_HeaderInjection(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	tr := newTestTransport(mock)
	resp, err := tr.Get(context.Background(), mock.URL()+"/api/v1/users/me/", nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !resp.OK() {
		t.Fatalf("StatusCode = %d, want 2xx", resp.StatusCode)
	}

	header := mock.LastRequestHeader()
	if got := header.Get("Authorization"); got != "SSWS test-token" {
		t.Errorf("Authorization = %q, want %q", got, "SSWS test-token")
	}
	if got := header.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q, want %q", got, "application/json")
	}
	if got := header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json")
	}
}

func TestTransport_ParamsMergedIntoQuery(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	var gotQuery url.Values
	mock.SetHandler("/api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[]`))
	})

	tr := newTestTransport(mock)
	params := url.Values{}
	params.Set("limit", "100")
	params.Set("filter", `status eq "ACTIVE"`)

	if _, err := tr.Get(context.Background(), mock.URL()+"/api/v1/users", params); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if gotQuery.Get("limit") != "100" {
		t.Errorf("limit = %q, want %q", gotQuery.Get("limit"), "100")
	}
	if gotQuery.Get("filter") != `status eq "ACTIVE"` {
		t.Errorf("filter = %q", gotQuery.Get("filter"))
	}
}

func TestTransport_ParamsOverrideExistingQuery(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	var gotQuery url.Values
	mock.SetHandler("/api/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[]`))
	})

	tr := newTestTransport(mock)
	params := url.Values{}
	params.Set("limit", "50")

	if _, err := tr.Get(context.Background(), mock.URL()+"/api/v1/groups?limit=10", params); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if gotQuery.Get("limit") != "50" {
		t.Errorf("limit = %q, want explicit params to win", gotQuery.Get("limit"))
	}
}

func TestTransport_PostEncodesJSONBody(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	var gotBody string
	mock.SetHandler("/api/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id": "g1"}`))
	})

	tr := newTestTransport(mock)
	payload := map[string]any{"profile": map[string]any{"name": "Admins"}}
	resp, err := tr.Post(context.Background(), mock.URL()+"/api/v1/groups", payload)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if !resp.OK() {
		t.Fatalf("StatusCode = %d", resp.StatusCode)
	}
	if gotBody != `{"profile":{"name":"Admins"}}` {
		t.Errorf("body = %q", gotBody)
	}
}

func TestTransport_NonSuccessReturnedAsResponse(t *testing.T) {
	mock := testutil.NewMockOkta()
	defer mock.Close()

	mock.SetJSONResponse("/api/v1/groups/missing", 404,
		`{"errorCode": "E0000007", "errorSummary": "Not found: missing"}`)

	tr := newTestTransport(mock)
	resp, err := tr.Get(context.Background(), mock.URL()+"/api/v1/groups/missing", nil)
	if err != nil {
		t.Fatalf("Get() error = %v, non-2xx must not be a transport error", err)
	}
	if resp.OK() {
		t.Fatal("OK() = true for a 404")
	}

	serr := NewServerError(resp)
	if serr.StatusCode != 404 || serr.Message != "Not found: missing" {
		t.Errorf("ServerError = %+v", serr)
	}
}
