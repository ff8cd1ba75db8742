package repository

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"secrules/internal/logging"
	"secrules/pkg/fileops"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
)

// checkoutState classifies what already sits at the clone path.
type checkoutState int

const (
	checkoutMissing   checkoutState = iota // absent or empty, safe to clone
	checkoutSameRepo                       // same remote, safe to pull
	checkoutOtherRepo                      // different remote, needs manual resolution
	checkoutNotARepo                       // non-git content, needs manual resolution
)

func (cs checkoutState) String() string {
	switch cs {
	case checkoutMissing:
		return "empty or missing"
	case checkoutSameRepo:
		return "same repository"
	case checkoutOtherRepo:
		return "different repository"
	case checkoutNotARepo:
		return "non-git content"
	default:
		return "unknown"
	}
}

// GitSource is a git-hosted corpus upstream. Prepare clones the repository
// on first use and pulls on subsequent runs, preserving any local changes
// in the checkout rather than discarding them.
type GitSource struct {
	RemoteURL string // HTTPS or SSH form; SSH is converted to HTTPS
	Branch    string // empty means the remote's default branch
	Path      string // local checkout location
}

func NewGitSource(remoteURL, branch, localPath string) GitSource {
	return GitSource{RemoteURL: remoteURL, Branch: branch, Path: localPath}
}

// Prepare resolves the checkout to a usable corpus tree. Public access is
// tried first; a stored Personal Access Token is used only when the remote
// rejects anonymous access.
func (gs GitSource) Prepare(logger *logging.AppLogger) (string, SyncInfo, error) {
	if logger != nil {
		logger.Info("Preparing git corpus source",
			"url", gs.RemoteURL, "branch", gs.Branch, "path", gs.Path)
	}

	if strings.TrimSpace(gs.RemoteURL) == "" {
		return "", SyncInfo{}, fmt.Errorf("remote URL cannot be empty")
	}
	if strings.TrimSpace(gs.Path) == "" {
		return "", SyncInfo{}, fmt.Errorf("local path cannot be empty")
	}

	parsed, err := ParseGitURL(gs.RemoteURL)
	if err != nil {
		return "", SyncInfo{}, fmt.Errorf("invalid remote URL: %w", err)
	}
	remote := parsed.HTTPS()

	clean := filepath.Clean(fileops.ExpandPath(gs.Path))
	if err := fileops.ValidatePathSecurity(clean); err != nil {
		return "", SyncInfo{}, fmt.Errorf("invalid local path: %w", err)
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", SyncInfo{}, fmt.Errorf("cannot resolve absolute path: %w", err)
	}

	state, err := gs.checkoutState(abs, remote)
	if err != nil {
		return "", SyncInfo{}, err
	}

	switch state {
	case checkoutMissing:
		if err := gs.cloneWithAuth(abs, remote, logger); err != nil {
			return "", SyncInfo{}, err
		}
		return abs, SyncInfo{Cloned: true, Message: fmt.Sprintf("Cloned %s", remote)}, nil

	case checkoutSameRepo:
		info, err := gs.pullWithAuth(abs, logger)
		if err != nil {
			return "", SyncInfo{}, err
		}
		return abs, info, nil

	default:
		return "", SyncInfo{}, fmt.Errorf("checkout conflict at %s (%s): remove or relocate the directory and sync again", abs, state)
	}
}

// checkoutState inspects the clone path without touching the network.
func (gs GitSource) checkoutState(path, wantRemote string) (checkoutState, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return checkoutMissing, nil
	}
	if err != nil {
		return checkoutNotARepo, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.IsDir() {
		return checkoutNotARepo, fmt.Errorf("checkout path exists but is not a directory: %s", path)
	}

	empty, err := fileops.IsDirEmpty(path)
	if err != nil {
		return checkoutNotARepo, fmt.Errorf("cannot inspect %s: %w", path, err)
	}
	if empty {
		return checkoutMissing, nil
	}

	current, err := originURL(path)
	if err != nil {
		if strings.Contains(err.Error(), "not a git repository") {
			return checkoutNotARepo, nil
		}
		return checkoutNotARepo, err
	}

	if sameRemote(current, wantRemote) {
		return checkoutSameRepo, nil
	}
	return checkoutOtherRepo, nil
}

func (gs GitSource) cloneWithAuth(path, remote string, logger *logging.AppLogger) error {
	err := gs.clone(path, remote, nil, logger)
	if err == nil {
		return nil
	}
	if !isAuthError(err) {
		return err
	}

	if logger != nil {
		logger.Debug("Public clone failed, retrying with stored token")
	}
	auth, authErr := storedAuth(logger)
	if authErr != nil {
		return authErr
	}
	if auth == nil {
		return fmt.Errorf("authentication required for %s: store a Personal Access Token with 'secrules token set'", remote)
	}
	return gs.clone(path, remote, auth, logger)
}

func (gs GitSource) clone(path, remote string, auth *http.BasicAuth, logger *logging.AppLogger) error {
	parent := filepath.Dir(path)
	if err := fileops.ValidatePathSecurity(parent); err != nil {
		return fmt.Errorf("invalid checkout parent directory: %w", err)
	}
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("cannot create checkout parent directory: %w", err)
	}

	opts := &git.CloneOptions{
		URL:   remote,
		Auth:  auth,
		Depth: 1,
	}
	if gs.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(gs.Branch)
		opts.SingleBranch = true
	}

	if logger != nil {
		logger.Info("Cloning corpus repository", "url", remote, "path", path)
	}
	if _, err := git.PlainClone(path, opts); err != nil {
		return translateGitError("clone", remote, err)
	}
	return nil
}

func (gs GitSource) pullWithAuth(path string, logger *logging.AppLogger) (SyncInfo, error) {
	info, err := gs.pull(path, nil, logger)
	if err == nil {
		return info, nil
	}
	if !isAuthError(err) {
		return SyncInfo{}, err
	}

	if logger != nil {
		logger.Debug("Public pull failed, retrying with stored token")
	}
	auth, authErr := storedAuth(logger)
	if authErr != nil {
		return SyncInfo{}, authErr
	}
	if auth == nil {
		return SyncInfo{}, fmt.Errorf("authentication required: store a Personal Access Token with 'secrules token set'")
	}
	return gs.pull(path, auth, logger)
}

// pull fast-forwards an existing checkout. A dirty working tree is left
// untouched and reported instead of synced.
func (gs GitSource) pull(path string, auth *http.BasicAuth, logger *logging.AppLogger) (SyncInfo, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return SyncInfo{}, fmt.Errorf("cannot open checkout at %s: %w", path, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return SyncInfo{}, fmt.Errorf("cannot read working tree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return SyncInfo{}, fmt.Errorf("cannot read working tree status: %w", err)
	}
	if !status.IsClean() {
		if logger != nil {
			logger.Warn("Checkout has local changes, skipping pull", "path", path)
		}
		return SyncInfo{Dirty: true, Message: "Checkout has local changes; pull skipped, local content kept"}, nil
	}

	if gs.Branch != "" {
		head, err := repo.Head()
		if err != nil {
			return SyncInfo{}, fmt.Errorf("cannot read checkout HEAD: %w", err)
		}
		if head.Name().Short() != gs.Branch {
			return SyncInfo{}, fmt.Errorf("checkout at %s is on branch %q but %q is configured: remove the directory to re-clone", path, head.Name().Short(), gs.Branch)
		}
	}

	opts := &git.PullOptions{
		RemoteName: "origin",
		Auth:       auth,
	}
	if gs.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(gs.Branch)
		opts.SingleBranch = true
	}

	if logger != nil {
		logger.Info("Pulling corpus updates", "path", path)
	}
	err = worktree.Pull(opts)
	if err == git.NoErrAlreadyUpToDate {
		return SyncInfo{Message: "Already up to date"}, nil
	}
	if err != nil {
		return SyncInfo{}, translateGitError("pull", gs.RemoteURL, err)
	}
	return SyncInfo{Updated: true, Message: "Pulled new corpus commits"}, nil
}

// IsDirty reports whether the checkout at path has uncommitted changes.
func IsDirty(path string) (bool, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return false, fmt.Errorf("cannot open repository at %s: %w", path, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("cannot read working tree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("cannot read working tree status: %w", err)
	}
	return !status.IsClean(), nil
}

// storedAuth builds PAT authentication from the keyring, or nil when no
// token is stored. GitHub expects the token as the basic-auth password.
func storedAuth(logger *logging.AppLogger) (*http.BasicAuth, error) {
	creds := NewCredentialManager()
	if !creds.HasToken() {
		return nil, nil
	}
	token, err := creds.Token()
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debug("Using stored Personal Access Token")
	}
	return &http.BasicAuth{Username: "token", Password: token}, nil
}

// originURL returns the origin remote URL of the repository at path.
func originURL(path string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return "", fmt.Errorf("directory is not a git repository: %s", path)
		}
		return "", fmt.Errorf("cannot open git repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("cannot read origin remote: %w", err)
	}
	cfg := remote.Config()
	if cfg == nil || len(cfg.URLs) == 0 {
		return "", fmt.Errorf("origin remote has no URL configured")
	}
	return cfg.URLs[0], nil
}

// sameRemote reports whether two URLs name the same repository, treating
// SSH and HTTPS forms of one repo as equal.
func sameRemote(a, b string) bool {
	return canonicalRemote(a) == canonicalRemote(b)
}

var sshRemotePattern = regexp.MustCompile(`^git@([^:]+):(.+)$`)

func canonicalRemote(gitURL string) string {
	gitURL = strings.TrimSuffix(strings.TrimSpace(gitURL), ".git")

	if m := sshRemotePattern.FindStringSubmatch(gitURL); m != nil {
		return m[1] + "/" + m[2]
	}
	if after, found := strings.CutPrefix(gitURL, "https://"); found {
		return after
	}
	if after, found := strings.CutPrefix(gitURL, "http://"); found {
		return after
	}
	return gitURL
}

// GitURLInfo is a parsed git repository URL.
type GitURLInfo struct {
	Host  string
	Owner string
	Repo  string // without the .git suffix
}

// HTTPS renders the URL in the normalized https form used for cloning.
func (i GitURLInfo) HTTPS() string {
	return fmt.Sprintf("https://%s/%s/%s.git", i.Host, i.Owner, i.Repo)
}

var sshURLPattern = regexp.MustCompile(`^git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)

// ParseGitURL extracts host, owner, and repo from an SSH
// (git@host:owner/repo.git) or HTTPS (https://host/owner/repo.git) URL.
func ParseGitURL(gitURL string) (GitURLInfo, error) {
	gitURL = strings.TrimSpace(gitURL)

	if m := sshURLPattern.FindStringSubmatch(gitURL); m != nil {
		return GitURLInfo{Host: m[1], Owner: m[2], Repo: m[3]}, nil
	}

	parsed, err := url.Parse(gitURL)
	if err != nil {
		return GitURLInfo{}, fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Host == "" {
		return GitURLInfo{}, fmt.Errorf("URL missing host: %s", gitURL)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 {
		return GitURLInfo{}, fmt.Errorf("URL path should be owner/repo: %s", parsed.Path)
	}
	owner := parts[0]
	repo := strings.TrimSuffix(parts[1], ".git")
	if owner == "" || repo == "" {
		return GitURLInfo{}, fmt.Errorf("cannot extract owner/repo from URL path: %s", parsed.Path)
	}

	return GitURLInfo{Host: parsed.Host, Owner: owner, Repo: repo}, nil
}

// isAuthError recognizes remote responses that mean credentials are
// missing or rejected, driving the public-first PAT fallback.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"authentication required", "401", "unauthorized", "403", "forbidden"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// translateGitError rewrites common transport failures into messages that
// say what to do next.
func translateGitError(op, remote string, err error) error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "403") || strings.Contains(msg, "forbidden"):
		return fmt.Errorf("access denied for %s: the stored token may lack repo scope, update it with 'secrules token set'", remote)
	case isAuthError(err):
		return fmt.Errorf("authentication failed for %s: update the token with 'secrules token set'", remote)
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		return fmt.Errorf("repository not found: check the URL or your access to %s", remote)
	case strings.Contains(msg, "network") || strings.Contains(msg, "connection") || strings.Contains(msg, "timeout"):
		return fmt.Errorf("network error during %s: %w", op, err)
	default:
		return fmt.Errorf("%s failed: %w", op, err)
	}
}
