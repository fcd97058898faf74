// Package gauth produces authenticated HTTP clients for the Google Sheets
// API. Credentials come from a downloaded OAuth client file; the obtained
// token is cached next to it and refreshed transparently.
package gauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

const (
	// CredentialsFile is the OAuth client file downloaded from the Google
	// Cloud console, placed in the data directory.
	CredentialsFile = "credentials.json"

	// TokenFile caches the user's access and refresh tokens.
	TokenFile = "token.json"

	// callbackPort is the loopback port that captures the OAuth redirect.
	callbackPort = "8437"

	authTimeout = 5 * time.Minute
)

// Client returns an HTTP client authorized for spreadsheet access. A cached
// token is used when present; otherwise the browser consent flow runs once
// and the token is cached for subsequent runs.
func Client(ctx context.Context, baseDir string) (*http.Client, error) {
	config, err := loadConfig(baseDir)
	if err != nil {
		return nil, err
	}

	tokenPath := filepath.Join(baseDir, TokenFile)
	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		tok, err = tokenFromWeb(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("authorize: %w", err)
		}
		if err := saveToken(tokenPath, tok); err != nil {
			return nil, err
		}
	}

	// Persist refreshed tokens so the next run skips the consent flow even
	// after the cached access token expired.
	source := &savingSource{
		path:     tokenPath,
		last:     tok.AccessToken,
		delegate: config.TokenSource(ctx, tok),
	}
	return oauth2.NewClient(ctx, source), nil
}

// HasCredentials reports whether the OAuth client file is in place.
func HasCredentials(baseDir string) bool {
	_, err := os.Stat(filepath.Join(baseDir, CredentialsFile))
	return err == nil
}

// HasToken reports whether a cached token exists.
func HasToken(baseDir string) bool {
	_, err := os.Stat(filepath.Join(baseDir, TokenFile))
	return err == nil
}

func loadConfig(baseDir string) (*oauth2.Config, error) {
	path := filepath.Join(baseDir, CredentialsFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file %s: %w", path, err)
	}
	config, err := google.ConfigFromJSON(raw, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", path, err)
	}
	config.RedirectURL = fmt.Sprintf("http://localhost:%s/callback", callbackPort)
	return config, nil
}

// savingSource wraps a token source and rewrites the cache file whenever the
// access token changes.
type savingSource struct {
	path     string
	last     string
	delegate oauth2.TokenSource
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.delegate.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := saveToken(s.path, tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// tokenFromWeb runs the authorization code flow against a loopback server.
func tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "localhost:"+callbackPort)
	if err != nil {
		return nil, fmt.Errorf("listen on callback port %s: %w", callbackPort, err)
	}
	defer listener.Close()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "authorization code missing", http.StatusBadRequest)
				errCh <- fmt.Errorf("redirect carried no authorization code")
				return
			}
			fmt.Fprint(w, "Authorization complete. You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Open this URL in your browser to authorize spreadsheet access:\n\n  %s\n\n", authURL)

	select {
	case code := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exchangeCtx, code)
		if err != nil {
			return nil, fmt.Errorf("exchange authorization code: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("authorization timed out after %s", authTimeout)
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(raw, tok); err != nil {
		return nil, fmt.Errorf("decode token file %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	raw, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}
