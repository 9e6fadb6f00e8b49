package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// githubAPI is the base URL of the GitHub REST API.
var githubAPI = "https://api.github.com"

// GitHubSource reads a file from a GitHub repository through the contents API.
type GitHubSource struct {
	owner       string
	repo        string
	path        string
	ref         string
	token       string
	client      *http.Client
	log         *slog.Logger
	locationURI string
}

// GitHubContent is the subset of a contents API response used here.
type GitHubContent struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
}

// NewGitHubSource creates a source for path in owner/repo at ref (default branch when empty).
// token is optional and raises the API rate limit.
func NewGitHubSource(owner, repo, path, ref, token string, log *slog.Logger) *GitHubSource {
	uri := fmt.Sprintf("github://%s/%s/%s", owner, repo, path)
	if ref != "" {
		uri += "?ref=" + ref
	}
	return &GitHubSource{
		owner:       owner,
		repo:        repo,
		path:        strings.TrimPrefix(path, "/"),
		ref:         ref,
		token:       token,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         log,
		locationURI: uri,
	}
}

func (s *GitHubSource) header() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/vnd.github.v3+json")
	if s.token != "" {
		h.Set("Authorization", "Bearer "+s.token)
	}
	return h
}

// Fetch retrieves the file content.
func (s *GitHubSource) Fetch(ctx context.Context) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", githubAPI, s.owner, s.repo, s.path)
	if s.ref != "" {
		endpoint += "?ref=" + url.QueryEscape(s.ref)
	}

	body, err := httpGet(ctx, s.client, endpoint, s.header())
	if err != nil {
		return nil, err
	}

	var content GitHubContent
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, fmt.Errorf("failed to decode contents response: %w", err)
	}
	if content.Type != "file" {
		return nil, fmt.Errorf("%s is a %s, not a file", s.path, content.Type)
	}
	if content.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected content encoding: %s", content.Encoding)
	}

	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}

	s.log.Debug("Fetched content from GitHub",
		slog.String("path", s.path),
		slog.String("sha", content.SHA),
		slog.Int("size", len(data)))

	return data, nil
}

// Available checks if the repository is accessible.
func (s *GitHubSource) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/repos/%s/%s", githubAPI, s.owner, s.repo), nil)
	if err != nil {
		s.log.Debug("Failed to create request", "err", err)
		return false
	}
	req.Header = s.header()

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug("GitHub source unavailable", "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Debug("GitHub source unavailable", slog.Int("status", resp.StatusCode))
		return false
	}
	return true
}

// Name returns a unique identifier for this source.
func (s *GitHubSource) Name() string {
	return fmt.Sprintf("github-%s-%s", s.owner, s.repo)
}

// LocationURI returns the URI that identifies this source.
func (s *GitHubSource) LocationURI() string {
	return s.locationURI
}
