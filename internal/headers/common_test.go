package headers

import (
	"net/http"
	"testing"
)

// This check is important because, otherwise, index expressions
// involving a http.Header and one of those names would yield
// unexpected results.
func TestThatAllRelevantHeaderNamesAreInCanonicalFormat(t *testing.T) {
	headerNames := []string{
		Origin,
		Connection,
		Upgrade,
		ACRM,
		ACRH,
		ACAO,
		ACAC,
		ACAM,
		ACAH,
		ACMA,
		Vary,
	}
	for _, name := range headerNames {
		if http.CanonicalHeaderKey(name) != name {
			t.Errorf("header name %q is not in canonical format", name)
		}
	}
}

func TestIsValid(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{name: "", want: false},
		{name: "authorization", want: true},
		{name: "X-Abd-auth_token", want: true},
		{name: "()", want: false},
		{name: "résumé", want: false},
	}
	for _, tc := range cases {
		f := func(t *testing.T) {
			got := IsValid(tc.name)
			if got != tc.want {
				const tmpl = "%q: got %t; want %t"
				t.Errorf(tmpl, tc.name, got, tc.want)
			}
		}
		t.Run(tc.name, f)
	}
}

func TestFirst(t *testing.T) {
	cases := []struct {
		desc      string
		hdrs      http.Header
		wantValue string
		wantFound bool
	}{
		{
			desc: "absent",
			hdrs: http.Header{},
		}, {
			desc: "present but empty slice",
			hdrs: http.Header{Origin: {}},
		}, {
			desc:      "single value",
			hdrs:      http.Header{Origin: {"https://example.com"}},
			wantValue: "https://example.com",
			wantFound: true,
		}, {
			desc:      "multiple values",
			hdrs:      http.Header{Origin: {"https://example.com", "https://example.org"}},
			wantValue: "https://example.com",
			wantFound: true,
		},
	}
	for _, tc := range cases {
		f := func(t *testing.T) {
			v, sgl, found := First(tc.hdrs, Origin)
			if v != tc.wantValue || found != tc.wantFound {
				const tmpl = "got %q, %t; want %q, %t"
				t.Fatalf(tmpl, v, found, tc.wantValue, tc.wantFound)
			}
			if found && (len(sgl) != 1 || sgl[0] != v) {
				t.Errorf("got singleton %q; want [%q]", sgl, v)
			}
		}
		t.Run(tc.desc, f)
	}
}

func TestIsWebSocketUpgrade(t *testing.T) {
	cases := []struct {
		desc string
		hdrs http.Header
		want bool
	}{
		{
			desc: "no headers",
			hdrs: http.Header{},
		}, {
			desc: "canonical handshake",
			hdrs: http.Header{
				Connection: {"Upgrade"},
				Upgrade:    {"websocket"},
			},
			want: true,
		}, {
			desc: "mixed case",
			hdrs: http.Header{
				Connection: {"upgrade"},
				Upgrade:    {"WebSocket"},
			},
			want: true,
		}, {
			desc: "connection list",
			hdrs: http.Header{
				Connection: {"keep-alive, Upgrade"},
				Upgrade:    {"websocket"},
			},
			want: true,
		}, {
			desc: "multiple connection lines",
			hdrs: http.Header{
				Connection: {"keep-alive", "Upgrade"},
				Upgrade:    {"websocket"},
			},
			want: true,
		}, {
			desc: "upgrade to something else",
			hdrs: http.Header{
				Connection: {"Upgrade"},
				Upgrade:    {"h2c"},
			},
		}, {
			desc: "upgrade header without connection upgrade",
			hdrs: http.Header{
				Connection: {"keep-alive"},
				Upgrade:    {"websocket"},
			},
		}, {
			desc: "connection upgrade without upgrade header",
			hdrs: http.Header{
				Connection: {"Upgrade"},
			},
		},
	}
	for _, tc := range cases {
		f := func(t *testing.T) {
			if got := IsWebSocketUpgrade(tc.hdrs); got != tc.want {
				t.Errorf("got %t; want %t", got, tc.want)
			}
		}
		t.Run(tc.desc, f)
	}
}
