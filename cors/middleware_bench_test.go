package cors_test

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brunoabdon/abdedge/cors"
)

func BenchmarkMiddleware(b *testing.B) {
	wildcards := []string{
		"https://app.example.com",
		"https://*.example.com",
		"http://localhost:*",
		"https://*.staging.example.org:8443",
	}
	var many []string
	for i := range 100 {
		many = append(many,
			fmt.Sprintf("https://tenant%d.example.com", i),
			fmt.Sprintf("https://*.tenant%d.example.net", i),
		)
	}
	preflight := func(origin, acrh string) http.Header {
		return http.Header{
			headerOrigin: {origin},
			headerACRM:   {http.MethodPut},
			headerACRH:   {acrh},
		}
	}
	actual := func(origin string) http.Header {
		return http.Header{headerOrigin: {origin}}
	}
	cases := []struct {
		desc    string
		origins []string
		method  string
		hdrs    http.Header
	}{
		{"exact origin actual", wildcards, http.MethodGet, actual("https://app.example.com")},
		{"wildcard origin actual", wildcards, http.MethodGet, actual("https://a.b.example.com")},
		{"wildcard port actual", wildcards, http.MethodPost, actual("http://localhost:3000")},
		{"disallowed actual", wildcards, http.MethodGet, actual("https://example.com.evil.org")},
		{"wildcard origin preflight", wildcards, http.MethodOptions, preflight("https://a.example.com", "content-type,accept")},
		{"preflight with disallowed header", wildcards, http.MethodOptions, preflight("https://a.example.com", "x-secret")},
		{"many patterns, last matches", many, http.MethodGet, actual("https://x.tenant99.example.net")},
		{"many patterns, none match", many, http.MethodGet, actual("https://example.computer")},
		{
			"adversarial origin list", wildcards, http.MethodGet,
			actual(strings.Repeat("https://example.computer ", 100)),
		},
		{
			"adversarial ACRH", wildcards, http.MethodOptions,
			preflight("https://a.example.com", strings.Repeat("accept,", http.DefaultMaxHeaderBytes/len("accept,"))),
		},
		{
			"websocket upgrade", wildcards, http.MethodGet,
			http.Header{
				headerOrigin: {"https://evil.org"},
				"Connection": {"Upgrade"},
				"Upgrade":    {"websocket"},
			},
		},
	}
	discard := cors.WithLogger(slog.New(slog.DiscardHandler))
	for _, bc := range cases {
		mw, err := cors.NewMiddleware(cors.Config{Origins: bc.origins}, discard)
		if err != nil {
			b.Fatal(err)
		}
		handler := mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		f := func(b *testing.B) {
			req := newRequest(bc.method, bc.hdrs)
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					handler.ServeHTTP(httptest.NewRecorder(), req)
				}
			})
		}
		b.Run(bc.desc, f)
	}
}

func BenchmarkNewMiddleware(b *testing.B) {
	cfg := cors.Config{Origins: []string{
		"https://*.example.com",
		"https://bücher.example",
		"http://localhost:*",
	}}
	discard := cors.WithLogger(slog.New(slog.DiscardHandler))
	b.ReportAllocs()
	for b.Loop() {
		if _, err := cors.NewMiddleware(cfg, discard); err != nil {
			b.Fatal(err)
		}
	}
}
