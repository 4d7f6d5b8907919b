package portal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tamreport/internal/config"
	"tamreport/internal/domain"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func basicPortal(envs ...config.Environment) config.Portal {
	return config.Portal{
		Environments: envs,
		Username:     "svc",
		Password:     "secret",
		AuthPath:     "/api/v1/auth/login",
		GroupsPath:   "/customers/%s/groups",
		PostPath:     "/groups/%s/posts",
		Timeout:      5 * time.Second,
	}
}

// portalHandler is a minimal fake portal speaking the login, profile,
// groups and post endpoints.
func portalHandler(t *testing.T, rejectAuth bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			if rejectAuth {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var creds map[string]string
			json.NewDecoder(r.Body).Decode(&creds)
			if creds["username"] != "svc" || creds["grant_type"] != "password" {
				t.Errorf("login payload = %v", creds)
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
		case "/user/profile":
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		case "/customers/123456/groups":
			json.NewEncoder(w).Encode(map[string]any{
				"groups": []map[string]string{
					{"nid": "42", "name": "ACME Private", "description": "weekly reports"},
				},
			})
		case "/groups/42/posts":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["content_type"] != "markdown" || body["title"] == "" {
				t.Errorf("post payload = %v", body)
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "d-777"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestConnectAndPost(t *testing.T) {
	srv := httptest.NewServer(portalHandler(t, false))
	defer srv.Close()

	c := NewClient(basicPortal(config.Environment{Name: "qa", BaseURL: srv.URL}), quiet())
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.Environment() != srv.URL {
		t.Fatalf("environment = %q", c.Environment())
	}

	r := &domain.Report{
		Title:        "Weekly Troubleshooting Case Report - March 9, 2026 (1 Active Cases)",
		MarkdownBody: "# report",
		GeneratedAt:  time.Now(),
	}
	cust := domain.Customer{Key: "acme", PortalGroupID: "42", GroupIDConfidence: domain.ConfidenceConfirmed}
	res, err := c.Post(context.Background(), cust, r)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if res.DiscussionID != "d-777" || res.GroupID != "42" || res.Environment != srv.URL {
		t.Fatalf("result = %+v", res)
	}
}

func TestEnvironmentFallback(t *testing.T) {
	qa := httptest.NewServer(portalHandler(t, true))
	defer qa.Close()
	prod := httptest.NewServer(portalHandler(t, false))
	defer prod.Close()

	c := NewClient(basicPortal(
		config.Environment{Name: "qa", BaseURL: qa.URL},
		config.Environment{Name: "production", BaseURL: prod.URL},
	), quiet())
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.Environment() != prod.URL {
		t.Fatalf("fallback picked %q, want %q", c.Environment(), prod.URL)
	}
}

func TestAllEnvironmentsRejected(t *testing.T) {
	srv := httptest.NewServer(portalHandler(t, true))
	defer srv.Close()

	c := NewClient(basicPortal(config.Environment{Name: "qa", BaseURL: srv.URL}), quiet())
	err := c.Connect(context.Background())
	if err == nil {
		t.Fatal("expected auth failure")
	}
	var perr *domain.PostError
	if !errors.As(err, &perr) {
		t.Fatalf("error type %T: %v", err, err)
	}
}

func TestGroupsLookupByAccountNumber(t *testing.T) {
	srv := httptest.NewServer(portalHandler(t, false))
	defer srv.Close()

	c := NewClient(basicPortal(config.Environment{Name: "qa", BaseURL: srv.URL}), quiet())
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	cust := domain.Customer{Key: "acme", AccountNumber: "123456"}
	groups, err := c.Groups(context.Background(), cust)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != "42" {
		t.Fatalf("groups = %+v", groups)
	}
}

func TestGroupsCached(t *testing.T) {
	var groupCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
		case "/user/profile":
			w.WriteHeader(http.StatusOK)
		case "/customers/acme/groups":
			// No account number configured, so the slug is the lookup key.
			groupCalls++
			json.NewEncoder(w).Encode([]map[string]string{{"id": "9", "name": "g"}})
		}
	}))
	defer srv.Close()

	c := NewClient(basicPortal(config.Environment{Name: "qa", BaseURL: srv.URL}), quiet())
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	for i := 0; i < 3; i++ {
		groups, err := c.Groups(context.Background(), domain.Customer{Key: "acme"})
		if err != nil {
			t.Fatalf("Groups: %v", err)
		}
		if len(groups) != 1 || groups[0].ID != "9" {
			t.Fatalf("groups = %+v", groups)
		}
	}
	if groupCalls != 1 {
		t.Fatalf("group endpoint hit %d times, want 1", groupCalls)
	}
}

func TestPostWithoutGroupID(t *testing.T) {
	srv := httptest.NewServer(portalHandler(t, false))
	defer srv.Close()

	c := NewClient(basicPortal(config.Environment{Name: "qa", BaseURL: srv.URL}), quiet())
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, err := c.Post(context.Background(), domain.Customer{Key: "acme"}, &domain.Report{Title: "t"})
	var cerr *domain.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %v", err)
	}
}

func TestPostNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
		case "/user/profile":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	c := NewClient(basicPortal(config.Environment{Name: "qa", BaseURL: srv.URL}), quiet())
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	cust := domain.Customer{Key: "acme", PortalGroupID: "42", GroupIDConfidence: domain.ConfidenceConfirmed}
	_, err := c.Post(context.Background(), cust, &domain.Report{Title: "t", GeneratedAt: time.Now()})
	var perr *domain.PostError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v", err)
	}
	if perr.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d", perr.StatusCode)
	}
}
