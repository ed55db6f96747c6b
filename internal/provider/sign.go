package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// sign produces a TC3-HMAC-SHA256 Authorization header for a JSON POST to
// the given service host. The canonical request is fixed to the shape this
// client always sends: POST /, content-type and host signed headers.
func sign(secretID, secretKey, service, host string, payload []byte, t time.Time) string {
	const algorithm = "TC3-HMAC-SHA256"

	payloadHash := sha256.Sum256(payload)
	canonicalRequest := fmt.Sprintf(
		"POST\n/\n\ncontent-type:application/json\nhost:%s\n\ncontent-type;host\n%s",
		host, hex.EncodeToString(payloadHash[:]))

	date := t.UTC().Format("2006-01-02")
	scope := fmt.Sprintf("%s/%s/tc3_request", date, service)
	requestHash := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := fmt.Sprintf("%s\n%d\n%s\n%s",
		algorithm, t.Unix(), scope, hex.EncodeToString(requestHash[:]))

	dateKey := hmacSHA256([]byte("TC3"+secretKey), date)
	serviceKey := hmacSHA256(dateKey, service)
	signingKey := hmacSHA256(serviceKey, "tc3_request")
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=content-type;host, Signature=%s",
		algorithm, secretID, scope, signature)
}

func hmacSHA256(key []byte, msg string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(msg))
	return h.Sum(nil)
}
