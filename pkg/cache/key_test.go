package cache

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "plain path",
			url:  "https://example.okta.com/api/v1/groups",
			want: "okta:example.okta.com/api/v1/groups",
		},
		{
			name: "trailing slash normalized",
			url:  "https://example.okta.com/api/v1/users/me/",
			want: "okta:example.okta.com/api/v1/users/me",
		},
		{
			name: "query parameters sorted",
			url:  "https://example.okta.com/api/v1/users?limit=100&after=abc",
			want: "okta:example.okta.com/api/v1/users:after=abc:limit=100",
		},
		{
			name: "same params different order",
			url:  "https://example.okta.com/api/v1/users?after=abc&limit=100",
			want: "okta:example.okta.com/api/v1/users:after=abc:limit=100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Key{URL: tt.url}).String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	a := Key{URL: "https://example.okta.com/api/v1/users?limit=100&filter=x"}
	b := Key{URL: "https://example.okta.com/api/v1/users?filter=x&limit=100"}
	if a.String() != b.String() {
		t.Errorf("equivalent URLs map to different keys: %q vs %q", a.String(), b.String())
	}
}
