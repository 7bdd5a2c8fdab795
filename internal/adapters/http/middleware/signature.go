package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
)

const SignatureHeader = "X-Hub-Signature-256"

const maxSignedBody = 5 << 20

// WebhookSignature verifies the sha256 HMAC a git host sends with each
// delivery. An empty secret disables the check.
func WebhookSignature(secret string) Middleware {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBody+1))
			r.Body.Close()
			if err != nil {
				http.Error(w, "unreadable body", http.StatusBadRequest)
				return
			}
			if len(body) > maxSignedBody {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}

			if !ValidSignature(secret, body, r.Header.Get(SignatureHeader)) {
				http.Error(w, "Unauthorized: Invalid signature", http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func ValidSignature(secret string, body []byte, header string) bool {
	if !strings.HasPrefix(header, "sha256=") {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(header))
}
