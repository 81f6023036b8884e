package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"
)

func requestWithHeaders(headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/pricing", nil)
	req.RemoteAddr = "203.0.113.4:80"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		fallback string
		country  string
		want     string
	}{
		{name: "explicit locale beats country", headers: map[string]string{"X-Locale": "ID"}, country: "US", want: "id"},
		{name: "explicit locale beats browser", headers: map[string]string{"X-Locale": "es", "Accept-Language": "de-DE"}, want: "es"},
		{name: "browser language", headers: map[string]string{"Accept-Language": "en-US,en;q=0.9"}, want: "en"},
		{name: "highest q wins", headers: map[string]string{"Accept-Language": "en;q=0.5,de-AT;q=0.9"}, want: "de"},
		{name: "regional variant", headers: map[string]string{"Accept-Language": "fr-CA"}, want: "fr"},
		{name: "malformed explicit locale skipped", headers: map[string]string{"X-Locale": "not a tag", "Accept-Language": "es-MX"}, want: "es"},
		{name: "indonesian sign-up country", country: "ID", want: "id"},
		{name: "country without a supported language", country: "US", want: "en"},
		{name: "site default", fallback: "id", want: "id"},
		{name: "nothing known", want: "en"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := detectLocale(requestWithHeaders(tc.headers), tc.fallback, tc.country); got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCountry(t *testing.T) {
	lookupCalls := 0
	lookup := func(ip string) (string, error) {
		lookupCalls++
		if ip != "203.0.113.4" {
			return "", errors.New("unexpected ip " + ip)
		}
		return "my", nil
	}
	failing := func(string) (string, error) { return "", errors.New("no database") }

	tests := []struct {
		name    string
		headers map[string]string
		lookup  CountryLookup
		want    string
	}{
		{name: "first edge header wins", headers: map[string]string{"X-Country-Code": "us", "CF-IPCountry": "id"}, lookup: lookup, want: "US"},
		{name: "cloudflare header", headers: map[string]string{"CF-IPCountry": "id"}, lookup: lookup, want: "ID"},
		{name: "region from explicit locale", headers: map[string]string{"X-Locale": "en-AU"}, lookup: lookup, want: "AU"},
		{name: "region from browser", headers: map[string]string{"Accept-Language": "en-GB,en;q=0.9"}, lookup: lookup, want: "GB"},
		{name: "geoip fallback", lookup: lookup, want: "MY"},
		{name: "geoip failure", lookup: failing, want: ""},
		{name: "no lookup configured", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveCountry(requestWithHeaders(tc.headers), tc.lookup); got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
	if lookupCalls != 1 {
		t.Fatalf("geoip consulted %d times, want only when no hint exists", lookupCalls)
	}
}

func TestI18NStoresLocaleAndCountry(t *testing.T) {
	var locale, country string
	var tag language.Tag
	h := I18N("en", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		tag = LanguageFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithHeaders(map[string]string{"Accept-Language": "id-ID", "CF-IPCountry": "id"}))

	if locale != "id" || tag != language.Indonesian || country != "ID" {
		t.Fatalf("locale = %q, tag = %v, country = %q", locale, tag, country)
	}
	if got := rec.Header().Get("Content-Language"); got != "id" {
		t.Fatalf("Content-Language = %q", got)
	}
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	if got := LocaleFromContext(ctx); got != "en" {
		t.Fatalf("LocaleFromContext() = %q, want en", got)
	}
	if got := LanguageFromContext(ctx); got != language.English {
		t.Fatalf("LanguageFromContext() = %v, want English", got)
	}
	if got := CountryFromContext(ctx); got != "" {
		t.Fatalf("CountryFromContext() = %q, want empty", got)
	}
}
