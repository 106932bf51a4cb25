package accounts

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultAvatarURL derives a deterministic gravatar-style URL from an email,
// used as the avatar for accounts that never uploaded one.
func DefaultAvatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x", sum)
}

// DiskAvatarStore finalizes staged uploads on the local filesystem. The asset
// lands at <dir>/<accountID><ext> via a single atomic rename, so a failed move
// never leaves the account pointing at a missing file.
type DiskAvatarStore struct {
	dir       string
	publicDir string
	logger    Logger
}

// NewDiskAvatarStore creates a store writing under dir. publicDir is the URL
// path prefix recorded on the account (e.g. "avatars").
func NewDiskAvatarStore(dir, publicDir string) *DiskAvatarStore {
	return &DiskAvatarStore{
		dir:       dir,
		publicDir: publicDir,
		logger:    defLogger{},
	}
}

func (s *DiskAvatarStore) WithLogger(logger Logger) *DiskAvatarStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Put moves the staged asset into place and returns its public URL. The
// filename is derived from the account id to avoid collisions across accounts.
func (s *DiskAvatarStore) Put(ctx context.Context, accountID uuid.UUID, asset Asset) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if asset.TempPath == "" {
		return "", errors.New("avatar asset has no staged file", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	name := accountID.String() + strings.ToLower(filepath.Ext(asset.OriginalName))
	target := filepath.Join(s.dir, name)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to prepare avatar directory")
	}

	if err := os.Rename(asset.TempPath, target); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to finalize avatar upload")
	}

	s.logger.Debug("avatar stored", "account", accountID.String(), "path", target)

	return path.Join(s.publicDir, name), nil
}

var _ AvatarStore = (*DiskAvatarStore)(nil)
