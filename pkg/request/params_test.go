package request

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestIDList(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    []int64
		wantNil bool
		wantErr bool
	}{
		{name: "missing", url: "/", wantNil: true},
		{name: "empty", url: "/?ids=", want: []int64{}},
		{name: "comma list", url: "/?ids=1,2,3", want: []int64{1, 2, 3}},
		{name: "repeated", url: "/?ids=4&ids=5", want: []int64{4, 5}},
		{name: "garbage", url: "/?ids=1,x", wantErr: true},
		{name: "zero", url: "/?ids=0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IDList(httptest.NewRequest(http.MethodGet, tt.url, nil), "ids")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("expected nil, got %v", got)
				}
				return
			}
			if got == nil || len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: expected %d, got %d", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestPathID(t *testing.T) {
	r := chi.NewRouter()
	var got int64
	var gotErr error
	r.Get("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		got, gotErr = PathID(req, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	if gotErr != nil || got != 42 {
		t.Errorf("expected 42, got %d (%v)", got, gotErr)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/abc", nil))
	if gotErr == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestStringList(t *testing.T) {
	got := StringList(httptest.NewRequest(http.MethodGet, "/?user_id=a,%20b,,c", nil), "user_id")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("unexpected list %v", got)
	}
	if StringList(httptest.NewRequest(http.MethodGet, "/", nil), "user_id") != nil {
		t.Error("expected nil for missing parameter")
	}
}
