package state

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gravitational/trace"
	jsoniter "github.com/json-iterator/go"
	"github.com/peterbourgon/diskv/v3"
	log "github.com/sirupsen/logrus"
)

const (
	// credentialsKey holds the whole record as a single JSON document.
	credentialsKey = "credentials"

	// Legacy layout: one plain-text file per field.
	legacyAccessTokenKey  = "access_token"
	legacyRefreshTokenKey = "refresh_token"
	legacyExpiresAtKey    = "access_token_expiration_date"

	tempDirName = ".tmp"
	appDirName  = "fum"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// record is the on-disk representation of Credentials.
type record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is seconds since the Unix epoch.
	ExpiresAt int64 `json:"expires_at"`
}

// FileState keeps the credentials in a per-user configuration directory.
// Writes go to a temporary file first and are renamed into place, so a
// crash never leaves a partially written record behind.
type FileState struct {
	dir string
	dv  *diskv.Diskv
}

// DefaultDir returns the per-user configuration directory, e.g. ~/.config/fum.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", trace.Wrap(err, "failed to find the user configuration directory")
	}
	return filepath.Join(base, appDirName), nil
}

// NewFileState returns a store rooted at dir. The directory is created on first save.
func NewFileState(dir string) (*FileState, error) {
	if dir == "" {
		return nil, trace.BadParameter("storage directory is required")
	}

	// Simplest transform function: put all the data files into the base dir.
	flatTransform := func(s string) []string { return []string{} }

	dv := diskv.New(diskv.Options{
		BasePath:  dir,
		TempDir:   filepath.Join(dir, tempDirName),
		Transform: flatTransform,
		PathPerm:  0700,
		FilePerm:  0600,
	})
	return &FileState{dir: dir, dv: dv}, nil
}

// Dir returns the storage directory.
func (f *FileState) Dir() string {
	return f.dir
}

// GetCredentials implements State. It returns trace.NotFound when nothing usable is stored.
func (f *FileState) GetCredentials(_ context.Context) (*Credentials, error) {
	if !f.dv.Has(credentialsKey) {
		return f.getLegacyCredentials()
	}

	payload, err := f.dv.Read(credentialsKey)
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}

	var r record
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, trace.BadParameter("malformed credentials record in %s: %v", f.dir, err)
	}

	creds := r.credentials()
	if err := creds.Check(); err != nil {
		return nil, trace.Wrap(err)
	}
	return creds, nil
}

// PutCredentials implements State.
func (f *FileState) PutCredentials(_ context.Context, creds *Credentials) error {
	if err := creds.Check(); err != nil {
		return trace.BadParameter("refusing to store incomplete credentials: %v", err)
	}

	payload, err := json.Marshal(record{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    creds.ExpiresAt.Unix(),
	})
	if err != nil {
		return trace.Wrap(err)
	}

	return trace.ConvertSystemError(f.dv.Write(credentialsKey, payload))
}

// getLegacyCredentials reads the three-file layout. It is only used until the
// next PutCredentials replaces it with a single record.
func (f *FileState) getLegacyCredentials() (*Credentials, error) {
	for _, key := range []string{legacyAccessTokenKey, legacyRefreshTokenKey, legacyExpiresAtKey} {
		if !f.dv.Has(key) {
			return nil, trace.NotFound("no credentials stored in %s", f.dir)
		}
	}

	accessToken, err := f.readString(legacyAccessTokenKey)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	refreshToken, err := f.readString(legacyRefreshTokenKey)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	rawExpiresAt, err := f.readString(legacyExpiresAtKey)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	expiresAt, err := strconv.ParseInt(rawExpiresAt, 10, 64)
	if err != nil {
		return nil, trace.BadParameter("malformed %s in %s: %v", legacyExpiresAtKey, f.dir, err)
	}

	creds := record{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}.credentials()
	if err := creds.Check(); err != nil {
		return nil, trace.Wrap(err)
	}

	log.WithField("dir", f.dir).Debug("Loaded credentials from the legacy layout")
	return creds, nil
}

func (f *FileState) readString(key string) (string, error) {
	b, err := f.dv.Read(key)
	if err != nil {
		return "", trace.ConvertSystemError(err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (r record) credentials() *Credentials {
	creds := &Credentials{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
	if r.ExpiresAt != 0 {
		creds.ExpiresAt = time.Unix(r.ExpiresAt, 0).UTC()
	}
	return creds
}

var _ State = &FileState{}
