package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/market-views/internal/common"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond paces calls to the contents API.
	DefaultRequestsPerSecond = 2.0
)

var _ BlobStore = (*GitHubStore)(nil)

// GitHubConfig locates the catalog file in a repository.
type GitHubConfig struct {
	Token   string
	Owner   string
	Repo    string
	Branch  string // empty means the default branch
	Path    string
	BaseURL string // API root; empty means api.github.com

	RequestsPerSecond float64
}

// GitHubStore keeps the catalog in a repository file through the contents API.
// The version token is the file's blob sha.
type GitHubStore struct {
	client  *gh.Client
	cfg     GitHubConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewGitHubStore(ctx context.Context, cfg GitHubConfig, logger *slog.Logger) (*GitHubStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Owner == "" || cfg.Repo == "" || cfg.Path == "" {
		return nil, common.NewAppError(common.KindConfig, "github store needs owner, repo and path", common.ErrInvalidInput)
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	var hc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		hc = oauth2.NewClient(ctx, ts)
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = DefaultTimeout

	client := gh.NewClient(hc)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, common.NewAppError(common.KindConfig, "parse github base url", err)
		}
		client.BaseURL = u
	}

	return &GitHubStore{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger,
	}, nil
}

func (s *GitHubStore) Describe() string {
	ref := s.cfg.Branch
	if ref == "" {
		ref = "HEAD"
	}
	return fmt.Sprintf("github://%s/%s/%s@%s", s.cfg.Owner, s.cfg.Repo, s.cfg.Path, ref)
}

func (s *GitHubStore) Get(ctx context.Context) (Blob, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Blob{}, common.NewAppError(common.KindRemoteReadError, "rate limit wait", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: s.cfg.Branch}
	file, dir, resp, err := s.client.Repositories.GetContents(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.Path, opts)
	if err != nil {
		if statusOf(resp, err) == http.StatusNotFound {
			return Blob{}, notFound(s.Describe(), err)
		}
		s.logger.Error("store.github.get_error", "path", s.cfg.Path, "status", statusOf(resp, err), "error", err)
		return Blob{}, common.NewAppError(common.KindRemoteReadError, "get "+s.Describe(), err)
	}
	if file == nil {
		return Blob{}, common.NewAppError(common.KindRemoteReadError,
			fmt.Sprintf("%s is a directory with %d entries", s.Describe(), len(dir)), nil)
	}

	content, err := s.decode(ctx, file)
	if err != nil {
		return Blob{}, common.NewAppError(common.KindRemoteReadError, "decode "+s.Describe(), err)
	}

	s.logger.Debug("store.github.get", "path", s.cfg.Path, "sha", file.GetSHA(), "bytes", len(content))
	return Blob{Content: content, Version: file.GetSHA()}, nil
}

// decode returns the file text. Files over 1 MB come back without inline content,
// so those are fetched through the git blobs API.
func (s *GitHubStore) decode(ctx context.Context, file *gh.RepositoryContent) (string, error) {
	if file.GetEncoding() != "none" {
		return file.GetContent()
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	raw, _, err := s.client.Git.GetBlobRaw(ctx, s.cfg.Owner, s.cfg.Repo, file.GetSHA())
	if err != nil {
		return "", fmt.Errorf("get blob %s: %w", file.GetSHA(), err)
	}
	return string(raw), nil
}

func (s *GitHubStore) Put(ctx context.Context, content, version, message string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", common.NewAppError(common.KindRemoteWriteError, "rate limit wait", err)
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		Content: []byte(content),
	}
	if s.cfg.Branch != "" {
		opts.Branch = gh.Ptr(s.cfg.Branch)
	}

	var (
		res  *gh.RepositoryContentResponse
		resp *gh.Response
		err  error
	)
	if version == "" {
		res, resp, err = s.client.Repositories.CreateFile(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.Path, opts)
	} else {
		opts.SHA = gh.Ptr(version)
		res, resp, err = s.client.Repositories.UpdateFile(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.Path, opts)
	}
	if err != nil {
		status := statusOf(resp, err)
		// a create that loses the race reports 422 because no sha was supplied
		if status == http.StatusConflict || (version == "" && status == http.StatusUnprocessableEntity) {
			s.logger.Warn("store.github.conflict", "path", s.cfg.Path, "status", status, "sha", version)
			return "", conflict(s.Describe(), err)
		}
		s.logger.Error("store.github.put_error", "path", s.cfg.Path, "status", status, "error", err)
		return "", common.NewAppError(common.KindRemoteWriteError, "put "+s.Describe(), err)
	}

	newSHA := res.GetContent().GetSHA()
	s.logger.Info("store.github.put", "path", s.cfg.Path, "old_sha", version, "new_sha", newSHA, "commit", res.Commit.GetSHA())
	return newSHA, nil
}

func statusOf(resp *gh.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}
