package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"notesum-backend/internal/shared/storage/object"
	"notesum-backend/internal/shared/util"
)

// BlobRoutePrefix is where the API serves signed local blobs.
const BlobRoutePrefix = "/api/v1/blobs/"

var errInvalidKey = errors.New("invalid storage key")

// Store implements ObjectStore on the local filesystem. Download URLs point
// back at the API's blob route and carry an HMAC signature.
type Store struct {
	baseDir    string
	publicBase string
	signingKey string
	now        func() time.Time
}

// New creates a local object store rooted at baseDir.
func New(baseDir, publicBaseURL, signingKey string) *Store {
	if strings.TrimSpace(signingKey) == "" {
		signingKey = "dev-blob-key"
	}
	return &Store{
		baseDir:    baseDir,
		publicBase: strings.TrimRight(publicBaseURL, "/"),
		signingKey: signingKey,
		now:        time.Now,
	}
}

// Save writes the reader under the user's namespace with a random prefix.
func (s *Store) Save(ctx context.Context, userID string, fileName string, r io.Reader) (string, int64, string, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", 0, "", fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", 0, "", err
	}

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return "", 0, "", fmt.Errorf("read sniff: %w", readErr)
	}
	mimeType := http.DetectContentType(sniff[:n])

	key := filepath.ToSlash(filepath.Join(util.HashUserKey(userID), randomID()+"_"+sanitizedName))
	size, err := s.write(key, io.MultiReader(strings.NewReader(string(sniff[:n])), r))
	if err != nil {
		return "", 0, "", err
	}
	return key, size, mimeType, nil
}

// SaveWithKey writes the reader at a caller-chosen key.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, _ string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.write(storageKey, r)
}

func (s *Store) write(storageKey string, r io.Reader) (int64, error) {
	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("write body: %w", err)
	}
	return written, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, object.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// SignedURL returns PUBLIC_BASE_URL/api/v1/blobs/<key>?exp=<unix>&sig=<hmac>.
func (s *Store) SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := s.resolve(storageKey); err != nil {
		return "", err
	}
	exp := strconv.FormatInt(s.now().Add(ttl).Unix(), 10)
	q := url.Values{}
	q.Set("exp", exp)
	q.Set("sig", util.SignParts(s.signingKey, storageKey, exp))
	return s.PublicURL(storageKey) + "?" + q.Encode(), nil
}

// PublicURL returns the unsigned blob URL; the blob route rejects it without a signature.
func (s *Store) PublicURL(storageKey string) string {
	return s.publicBase + BlobRoutePrefix + strings.TrimLeft(storageKey, "/")
}

// Verify checks a signature produced by SignedURL.
func (s *Store) Verify(storageKey, exp, sig string) bool {
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil || s.now().Unix() > unix {
		return false
	}
	return util.VerifyParts(s.signingKey, sig, storageKey, exp)
}

func (s *Store) resolve(storageKey string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(storageKey))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errInvalidKey
	}
	return filepath.Join(s.baseDir, clean), nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

var _ object.ObjectStore = (*Store)(nil)
