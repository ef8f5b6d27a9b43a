package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"travelops/internal/store"
)

const textSearchBody = `{"status":"OK","results":[
{"name":"Louvre Museum","formatted_address":"Rue de Rivoli","rating":4.7,"place_id":"p1",
 "photos":[{"photo_reference":"ref1","width":800,"height":600,"html_attributions":["<a href=\"https://maps.google.com/x\">Jane</a>"]}]},
{"name":"Eiffel Tower","formatted_address":"Champ de Mars","rating":4.6,"place_id":"p2","photos":[]},
{"name":"Musée d'Orsay","formatted_address":"Rue de la Légion","rating":4.8,"place_id":"p3"}
]}`

func newTestServer(t *testing.T, searches *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/maps/api/place/textsearch/json":
			atomic.AddInt32(searches, 1)
			if r.URL.Query().Get("query") != "Paris top attractions" {
				t.Errorf("query = %q", r.URL.Query().Get("query"))
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(textSearchBody))
		case "/maps/api/place/photo":
			if r.URL.Query().Get("photoreference") == "missing" {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xd9})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestSearchAttractions(t *testing.T) {
	var searches int32
	server := newTestServer(t, &searches)
	defer server.Close()

	cache := store.NewCache(store.NewMemoryStore())
	client, err := NewClient(Config{APIKey: "k", BaseURL: server.URL, ImagesDir: t.TempDir()}, cache)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	got, err := client.SearchAttractions(context.Background(), "Paris", 2)
	if err != nil {
		t.Fatalf("SearchAttractions() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("SearchAttractions() len = %d, want 2", len(got))
	}
	if got[0].Name != "Louvre Museum" || got[0].PlaceID != "p1" {
		t.Errorf("first = %+v", got[0])
	}
	if len(got[0].Photos) != 1 || got[0].Photos[0].Reference != "ref1" || len(got[0].Photos[0].Attributions) != 1 {
		t.Errorf("photos = %+v", got[0].Photos)
	}

	again, err := client.SearchAttractions(context.Background(), "Paris", 2)
	if err != nil {
		t.Fatalf("SearchAttractions() cached error: %v", err)
	}
	if len(again) != 2 {
		t.Errorf("cached len = %d, want 2", len(again))
	}
	if n := atomic.LoadInt32(&searches); n != 1 {
		t.Errorf("search requests = %d, want 1", n)
	}

	names := Names(got)
	if len(names) != 2 || names[1] != "Eiffel Tower" {
		t.Errorf("Names() = %v", names)
	}
}

func TestDownloadPhoto(t *testing.T) {
	var searches int32
	server := newTestServer(t, &searches)
	defer server.Close()

	imagesDir := t.TempDir()
	client, err := NewClient(Config{APIKey: "k", BaseURL: server.URL, ImagesDir: imagesDir}, store.NewCache(store.NewMemoryStore()))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	path, err := client.DownloadPhoto(context.Background(), "ref1", "Louvre Museum", 900)
	if err != nil {
		t.Fatalf("DownloadPhoto() error: %v", err)
	}
	if path != filepath.Join(imagesDir, "Louvre_Museum_ref1.jpg") {
		t.Errorf("DownloadPhoto() path = %q", path)
	}
	if data, err := os.ReadFile(path); err != nil || len(data) != 4 {
		t.Errorf("photo file = %v, err %v", data, err)
	}

	missing, err := client.DownloadPhoto(context.Background(), "missing", "Nowhere", 900)
	if err != nil || missing != "" {
		t.Errorf("DownloadPhoto(missing) = %q, %v, want empty path", missing, err)
	}

	empty, err := client.DownloadPhoto(context.Background(), "", "Nowhere", 900)
	if err != nil || empty != "" {
		t.Errorf("DownloadPhoto(empty ref) = %q, %v", empty, err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}, nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("NewClient() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Louvre Museum", "Louvre_Museum"},
		{"Musée d'Orsay", "Mus_e_d_Orsay"},
		{"  ", "place"},
		{"São Paulo, Brazil", "S_o_Paulo_Brazil"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SafeName(tt.input); got != tt.want {
				t.Errorf("SafeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
