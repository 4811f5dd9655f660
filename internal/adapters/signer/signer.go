// Package signer builds canonical-request HMAC signatures for outbound
// calls to the visual service. The remote verifier recomputes the same
// canonical form, so every normalization step here is part of the wire
// contract.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Algorithm is the signature scheme tag emitted in the Authorization header.
const Algorithm = "HMAC-SHA256"

// Credentials scope a signature to an access key pair. SessionToken is
// optional and, when present, travels as a signed header.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// Request is the ephemeral view of an HTTP request the signer consumes.
// Headers and Query may be handed over in any iteration order; the
// signature is independent of it.
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    []byte
}

// Sign returns the complete header set for the request: the caller's
// headers plus X-Date, X-Content-Sha256, the optional X-Security-Token and
// the final Authorization value. The input map is not mutated.
func Sign(req Request, creds Credentials, region, service string, now time.Time) map[string]string {
	path := req.Path
	if path == "" {
		path = "/"
	}

	date := now.UTC().Format("20060102T150405Z")
	bodyHash := hexSHA256(req.Body)

	headers := make(map[string]string, len(req.Headers)+4)
	for k, v := range req.Headers {
		headers[k] = v
	}
	headers["X-Date"] = date
	headers["X-Content-Sha256"] = bodyHash
	if creds.SessionToken != "" {
		headers["X-Security-Token"] = creds.SessionToken
	}

	signed := signedHeaderSubset(headers)
	names := make([]string, 0, len(signed))
	for name := range signed {
		names = append(names, name)
	}
	sort.Strings(names)

	var headerLines strings.Builder
	for _, name := range names {
		headerLines.WriteString(name)
		headerLines.WriteByte(':')
		headerLines.WriteString(signed[name])
		headerLines.WriteByte('\n')
	}
	signedNames := strings.Join(names, ";")

	canonicalRequest := strings.Join([]string{
		req.Method,
		path,
		CanonicalQuery(req.Query),
		headerLines.String(),
		signedNames,
		bodyHash,
	}, "\n")

	scope := strings.Join([]string{date[:8], region, service, "request"}, "/")
	stringToSign := strings.Join([]string{
		Algorithm,
		date,
		scope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	key := signingKey(creds.SecretKey, date[:8], region, service)
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	headers["Authorization"] = Algorithm +
		" Credential=" + creds.AccessKey + "/" + scope +
		", SignedHeaders=" + signedNames +
		", Signature=" + signature
	return headers
}

// signedHeaderSubset picks the headers participating in the signature:
// Content-Type, Content-Md5, Host and anything prefixed X-. Names are
// lowercased; a default port on Host is stripped before signing.
func signedHeaderSubset(headers map[string]string) map[string]string {
	signed := make(map[string]string)
	for name, value := range headers {
		if name == "Content-Type" || name == "Content-Md5" || name == "Host" || strings.HasPrefix(name, "X-") {
			signed[strings.ToLower(name)] = value
		}
	}
	if host, ok := signed["host"]; ok {
		if h, port, found := strings.Cut(host, ":"); found && (port == "80" || port == "443") {
			signed["host"] = h
		}
	}
	return signed
}

// CanonicalQuery percent-encodes the query pairs and joins them sorted by
// encoded key, then encoded value.
func CanonicalQuery(query map[string]string) string {
	pairs := make([][2]string, 0, len(query))
	for key, value := range query {
		pairs = append(pairs, [2]string{uriEncode(key), uriEncode(value)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	parts := make([]string, len(pairs))
	for i, pair := range pairs {
		parts[i] = pair[0] + "=" + pair[1]
	}
	return strings.Join(parts, "&")
}

// uriEncode applies RFC 3986 percent-encoding with only the unreserved
// characters left bare.
func uriEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
		}
	}
	return b.String()
}

// signingKey chains the secret through date, region, service and the fixed
// "request" terminator.
func signingKey(secret, date8, region, service string) []byte {
	k := hmacSHA256([]byte(secret), date8)
	k = hmacSHA256(k, region)
	k = hmacSHA256(k, service)
	return hmacSHA256(k, "request")
}

func hmacSHA256(key []byte, msg string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
