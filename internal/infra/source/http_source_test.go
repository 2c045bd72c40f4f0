package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"substitution_bot/internal/domain/schedule"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

func newTestSource(t *testing.T, url string, creds Credentials) *HTTPSource {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	urls, err := URLsFromTemplate(url + "/plan_{day}.pdf")
	if err != nil {
		t.Fatalf("URLsFromTemplate: %v", err)
	}
	s := NewHTTPSource(urls, creds, 2*time.Second, logger.WithField("component", "source"))
	s.retryDelay = time.Millisecond
	return s
}

func TestFetchSendsBasicAuthAndReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "schule" || pass != "geheim" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/plan_Mittwoch.pdf" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.4 wednesday"))
	}))
	defer server.Close()

	s := newTestSource(t, server.URL, Credentials{User: "schule", Password: "geheim"})
	body, err := s.Fetch(context.Background(), schedule.Wednesday)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "%PDF-1.4 wednesday" {
		t.Errorf("Fetch() body = %q", body)
	}
}

func TestFetchClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	s := newTestSource(t, server.URL, Credentials{})
	_, err := s.Fetch(context.Background(), schedule.Monday)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Fetch() error = %v, want FetchError", err)
	}
	if fetchErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", fetchErr.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, want 1", got)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	s := newTestSource(t, server.URL, Credentials{})
	body, err := s.Fetch(context.Background(), schedule.Friday)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "ok" || calls.Load() != 3 {
		t.Errorf("body = %q after %d calls", body, calls.Load())
	}
}

func TestFetchGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := newTestSource(t, server.URL, Credentials{})
	if _, err := s.Fetch(context.Background(), schedule.Tuesday); !IsFetchError(err) {
		t.Fatalf("Fetch() error = %v, want FetchError", err)
	}
	if got := calls.Load(); got != defaultAttempts {
		t.Errorf("server called %d times, want %d", got, defaultAttempts)
	}
}

func TestFetchRejectsOversizedDocument(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("%PDF-1.4 0123456789"))
	}))
	defer server.Close()

	s := newTestSource(t, server.URL, Credentials{})
	s.maxSize = 10
	if _, err := s.Fetch(context.Background(), schedule.Monday); !IsFetchError(err) {
		t.Fatalf("Fetch() error = %v, want FetchError", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, want 1", got)
	}

	s.maxSize = 19
	body, err := s.Fetch(context.Background(), schedule.Monday)
	if err != nil {
		t.Fatalf("Fetch() at exactly the limit error = %v", err)
	}
	if len(body) != 19 {
		t.Errorf("body length = %d, want 19", len(body))
	}
}

func TestFetchUnknownWeekday(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	s := NewHTTPSource(URLs{}, Credentials{}, time.Second, logger.WithField("component", "source"))
	if _, err := s.Fetch(context.Background(), schedule.Monday); !IsFetchError(err) {
		t.Errorf("Fetch() error = %v, want FetchError", err)
	}
}

func TestURLsFromTemplate(t *testing.T) {
	urls, err := URLsFromTemplate("https://buessing.schule/plaene/VertretungsplanA4_{day}.pdf")
	if err != nil {
		t.Fatalf("URLsFromTemplate() error = %v", err)
	}
	if got, want := urls[schedule.Thursday], "https://buessing.schule/plaene/VertretungsplanA4_Donnerstag.pdf"; got != want {
		t.Errorf("Thursday URL = %q, want %q", got, want)
	}
	if len(urls) != 5 {
		t.Errorf("got %d URLs, want 5", len(urls))
	}

	if _, err := URLsFromTemplate("https://example.org/plan.pdf"); err == nil {
		t.Error("expected error for template without placeholder")
	}
}

func TestLoadSourcesFile(t *testing.T) {
	fallback, err := URLsFromTemplate("https://example.org/{day}.pdf")
	if err != nil {
		t.Fatalf("URLsFromTemplate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := "monday: https://mirror.example.org/mo.pdf\nFreitag: https://mirror.example.org/fr.pdf\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	urls, err := LoadSourcesFile(path, fallback)
	if err != nil {
		t.Fatalf("LoadSourcesFile() error = %v", err)
	}
	if urls[schedule.Monday] != "https://mirror.example.org/mo.pdf" {
		t.Errorf("Monday = %q", urls[schedule.Monday])
	}
	if urls[schedule.Friday] != "https://mirror.example.org/fr.pdf" {
		t.Errorf("Friday = %q", urls[schedule.Friday])
	}
	if urls[schedule.Tuesday] != "https://example.org/Dienstag.pdf" {
		t.Errorf("Tuesday = %q, want fallback", urls[schedule.Tuesday])
	}
}

func TestLoadSourcesFileErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		fallback URLs
	}{
		{"unknown day", "saturday: https://example.org/sa.pdf\n", URLs{}},
		{"empty url", "monday: \"\"\n", URLs{}},
		{"not a mapping", "- monday\n", URLs{}},
		{"missing days without fallback", "monday: https://example.org/mo.pdf\n", URLs{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sources.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadSourcesFile(path, tt.fallback); err == nil {
				t.Error("expected error")
			}
		})
	}
}
