package main

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/swaggo/swag"

	"github.com/fkhayef/thinglibrary/internal/config"
	"github.com/fkhayef/thinglibrary/internal/metrics"
	"github.com/fkhayef/thinglibrary/pkg/logging"
)

var paramName = regexp.MustCompile(`\{[^}]+\}`)

func routeKey(method, path string) string {
	path = strings.TrimSuffix(path, "/")
	return strings.ToUpper(method) + " " + paramName.ReplaceAllString(path, "{}")
}

func TestSwaggerDocumentsEveryRoute(t *testing.T) {
	raw, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("ReadDoc failed: %v", err)
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("swagger document is not valid JSON: %v", err)
	}

	documented := map[string]bool{}
	for path, ops := range doc.Paths {
		for method := range ops {
			documented[routeKey(method, "/api/v1"+path)] = true
		}
	}

	cfg := &config.Config{JWTSecret: "test", TokenTTL: time.Hour, MetricsEnabled: true}
	r := newRouter(cfg, nil, logging.Discard(), metrics.New())

	served := map[string]bool{}
	err = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if strings.HasPrefix(route, "/api/v1/") {
			served[routeKey(method, route)] = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if len(served) == 0 {
		t.Fatal("no API routes mounted")
	}
	for key := range served {
		if !documented[key] {
			t.Errorf("%s is served but not documented", key)
		}
	}
	for key := range documented {
		if !served[key] {
			t.Errorf("%s is documented but not served", key)
		}
	}
}
