package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yokitheyo/imagelinker/internal/domain"
)

const FilesRoute = "/files/"

// LinkSigner issues and verifies HMAC signed read links served by the API's
// files route. Unlike S3 presigning it has no upper bound on expiry.
type LinkSigner struct {
	baseURL string
	secret  []byte
	now     func() time.Time
}

func NewLinkSigner(baseURL, secret string) *LinkSigner {
	return &LinkSigner{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		now:     time.Now,
	}
}

// Sign returns {base}/files/{key}?expires={unix}&signature={hex}.
func (s *LinkSigner) Sign(key string, expiry time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	if expiry <= 0 {
		return "", fmt.Errorf("expiry must be positive, got %s", expiry)
	}
	if len(s.secret) == 0 {
		return "", fmt.Errorf("link secret is not configured")
	}

	expires := s.now().Add(expiry).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", s.signature(key, expires))

	return s.baseURL + FilesRoute + escapeKey(key) + "?" + q.Encode(), nil
}

// Verify checks a signature produced by Sign for key.
func (s *LinkSigner) Verify(key, expires, signature string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad expires %q", domain.ErrLinkInvalid, expires)
	}
	given, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: bad signature encoding", domain.ErrLinkInvalid)
	}
	want, _ := hex.DecodeString(s.signature(key, exp))
	if !hmac.Equal(given, want) {
		return domain.ErrLinkInvalid
	}
	if s.now().Unix() > exp {
		return domain.ErrLinkExpired
	}
	return nil
}

func (s *LinkSigner) signature(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(key))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
