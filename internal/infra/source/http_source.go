// Package source downloads the per-weekday substitution plan documents.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"substitution_bot/internal/domain/schedule"

	"github.com/codeGROOVE-dev/retry"
	"github.com/sirupsen/logrus"
)

const (
	defaultAttempts = 3
	maxDocumentSize = 32 << 20
)

// FetchError is returned when a document could not be retrieved.
type FetchError struct {
	Weekday    schedule.Weekday
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s document from %s: HTTP %d", e.Weekday, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s document from %s: %v", e.Weekday, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError checks if an error is a FetchError.
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

// Credentials for HTTP basic auth. Empty User disables auth.
type Credentials struct {
	User     string
	Password string
}

// HTTPSource fetches documents over HTTP.
type HTTPSource struct {
	client     *http.Client
	urls       URLs
	creds      Credentials
	attempts   uint
	retryDelay time.Duration
	maxSize    int64
	logger     *logrus.Entry
}

func NewHTTPSource(urls URLs, creds Credentials, timeout time.Duration, logger *logrus.Entry) *HTTPSource {
	return &HTTPSource{
		client:     &http.Client{Timeout: timeout},
		urls:       urls,
		creds:      creds,
		attempts:   defaultAttempts,
		retryDelay: time.Second,
		maxSize:    maxDocumentSize,
		logger:     logger,
	}
}

// Fetch downloads the document for weekday. Transport errors and 5xx
// responses are retried; 4xx responses fail immediately.
func (s *HTTPSource) Fetch(ctx context.Context, weekday schedule.Weekday) ([]byte, error) {
	url, ok := s.urls[weekday]
	if !ok {
		return nil, &FetchError{Weekday: weekday, Err: errors.New("no URL configured")}
	}
	log := s.logger.WithFields(logrus.Fields{"weekday": weekday.String(), "url": url})

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(&FetchError{Weekday: weekday, URL: url, Err: err})
			}
			if s.creds.User != "" {
				req.SetBasicAuth(s.creds.User, s.creds.Password)
			}

			startTime := time.Now()
			resp, err := s.client.Do(req)
			if err != nil {
				return &FetchError{Weekday: weekday, URL: url, Err: err}
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					log.WithError(closeErr).Warn("Failed to close response body")
				}
			}()

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				fetchErr := &FetchError{Weekday: weekday, URL: url, StatusCode: resp.StatusCode}
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return retry.Unrecoverable(fetchErr)
				}
				return fetchErr
			}

			data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSize+1))
			if err != nil {
				return &FetchError{Weekday: weekday, URL: url, Err: err}
			}
			if int64(len(data)) > s.maxSize {
				return retry.Unrecoverable(&FetchError{
					Weekday: weekday,
					URL:     url,
					Err:     fmt.Errorf("document exceeds %d bytes", s.maxSize),
				})
			}
			body = data

			log.WithFields(logrus.Fields{
				"bytes":       len(data),
				"duration_ms": time.Since(startTime).Milliseconds(),
			}).Debug("Document fetched")
			return nil
		},
		retry.Attempts(s.attempts),
		retry.Delay(s.retryDelay),
		retry.MaxDelay(10*time.Second),
		retry.MaxJitter(s.retryDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).WithField("attempt", n+1).Info("Retrying document fetch")
		}),
	)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			return nil, fetchErr
		}
		return nil, &FetchError{Weekday: weekday, URL: url, Err: err}
	}

	return body, nil
}
