package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ecomdash/backoffice/internal/logger"
)

// TokenSource yields the bearer token attached to remote API requests.
// An empty token means requests go out unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed token, typically loaded from configuration.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// FileToken reads the bearer token from a file and reloads it when the file
// changes, so operators can rotate credentials without a restart.
type FileToken struct {
	path string
	dir  string
	base string

	mu    sync.RWMutex
	token string
}

// NewFileToken creates a token source backed by the given file. The file must
// exist and contain the token, surrounding whitespace ignored.
func NewFileToken(path string) (*FileToken, error) {
	if path == "" {
		return nil, errors.New("token file path is required")
	}

	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}

	f := &FileToken{path: path, dir: dir, base: filepath.Base(path)}
	if err := f.reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Token returns the most recently loaded token.
func (f *FileToken) Token() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.token
}

func (f *FileToken) reload() error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}
	f.mu.Lock()
	f.token = strings.TrimSpace(string(raw))
	f.mu.Unlock()
	return nil
}

// StartWatcher listens for changes to the token file and reloads after a
// debounce. It watches the parent directory (not the file) so atomic replace
// sequences (temp+rename) are still observed. The caller owns the provided
// context: cancel it to stop the goroutine and close the watcher cleanly.
func (f *FileToken) StartWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(f.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		// debounce coalesces bursty fsnotify events (write+chmod/rename) into
		// a single reload.
		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				if err := f.reload(); err != nil {
					logger.WithComponent("token").Errorf("token reload failed: %v", err)
					return
				}
				logger.WithComponent("token").Info("bearer token reloaded from file")
			})
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != f.base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithComponent("token").Errorf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

type ctxKey string

const tokenKey ctxKey = "bearer_token"

// WithToken returns a context carrying a per-request bearer token, e.g. one
// forwarded from the UI's Authorization header. It overrides the client's
// TokenSource for that request only.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext extracts a per-request bearer token, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}
