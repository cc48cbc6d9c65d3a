// Package signing issues expiring HMAC signatures for client-facing URLs.
// The SCORM wrapper URL is handed to a browser and embeds its credential as
// query parameters; the signature binds the extracted content path to one
// learner for a limited time so a leaked URL goes stale.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Signer struct {
	Secret []byte
}

type Signed struct {
	Resource string
	Exp      int64
	UID      string
	Sig      string
}

func New(secret string) *Signer {
	return &Signer{Secret: []byte(secret)}
}

func (s *Signer) Sign(resource, userID string, exp time.Time) Signed {
	sig := s.signValue(resource, userID, exp.Unix())
	return Signed{Resource: resource, Exp: exp.Unix(), UID: userID, Sig: sig}
}

func (s *Signer) Verify(resource, userID string, exp int64, sig string) bool {
	if time.Now().Unix() > exp {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(s.signValue(resource, userID, exp)))
}

func (s *Signer) signValue(resource, userID string, exp int64) string {
	mac := hmac.New(sha256.New, s.Secret)
	mac.Write([]byte(resource))
	mac.Write([]byte("|"))
	mac.Write([]byte(userID))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Attach adds the signature parameters to an existing query.
func Attach(q url.Values, signed Signed) {
	q.Set("exp", strconv.FormatInt(signed.Exp, 10))
	q.Set("sig", signed.Sig)
}

// ExtractSigned pulls the signature parameters back out of a query.
// The resource and uid arrive through their own domain parameters, so only
// exp and sig live here.
func ExtractSigned(query url.Values) (int64, string, error) {
	expStr := strings.TrimSpace(query.Get("exp"))
	sig := strings.TrimSpace(query.Get("sig"))
	if expStr == "" || sig == "" {
		return 0, "", fmt.Errorf("missing signed params")
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return 0, "", err
	}
	return exp, sig, nil
}
