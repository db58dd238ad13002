package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const sessionCookieName = "reviewMe_token"

type sessionData struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// envelope mirrors the server's response body.
type envelope struct {
	Success      bool            `json:"success"`
	StatusCode   int             `json:"statusCode,omitempty"`
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data,omitempty"`
	TotalReviews *int64          `json:"totalReviews,omitempty"`
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

type apiClient struct {
	HTTP        *http.Client
	BaseURL     string
	SessionPath string
}

func (c *apiClient) endpoint(path string, query url.Values) string {
	u := strings.TrimRight(c.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends payload as JSON, attaching the saved session cookie when withSession
// is set. It returns the decoded envelope and the raw response.
func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, payload any, withSession bool) (*envelope, *http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withSession {
		sess, err := readSession(c.SessionPath)
		if err != nil {
			return nil, nil, fmt.Errorf("no session, sign in first: %w", err)
		}
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.Token})
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, err
	}
	var env envelope
	if len(data) > 0 {
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, resp, fmt.Errorf("%s %s: unexpected body %q", method, path, strings.TrimSpace(string(data)))
		}
	}
	if resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &env, resp, &apiError{Status: resp.StatusCode, Message: msg}
	}
	return &env, resp, nil
}

func sessionFromResponse(resp *http.Response) (sessionData, bool) {
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookieName && ck.Value != "" {
			return sessionData{Token: ck.Value, ExpiresAt: ck.Expires}, true
		}
	}
	return sessionData{}, false
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.reviewme-session.json"
	}
	return filepath.Join(home, ".reviewme", "session.json")
}

func saveSession(path string, sess sessionData) error {
	if sess.Token == "" {
		return errors.New("empty session token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readSession(path string) (sessionData, error) {
	var sess sessionData
	data, err := os.ReadFile(path)
	if err != nil {
		return sess, err
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return sess, err
	}
	sess.Token = strings.TrimSpace(sess.Token)
	if sess.Token == "" {
		return sess, errors.New("session file holds no token")
	}
	if !sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt) {
		return sess, errors.New("session expired")
	}
	return sess, nil
}

func clearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   strings.TrimRight(u.Path, "/") + path,
	}).String(), nil
}
