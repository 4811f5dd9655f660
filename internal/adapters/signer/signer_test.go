package signer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/docmill/internal/adapters/signer"
)

// emptySHA256 is the well-known digest of an empty body.
const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func testCreds() signer.Credentials {
	return signer.Credentials{
		AccessKey: "AKTEST",
		SecretKey: "secret",
	}
}

func testTime() time.Time {
	return time.Date(2024, 3, 15, 12, 30, 45, 0, time.UTC)
}

func TestSign_HeaderSet(t *testing.T) {
	headers := signer.Sign(signer.Request{
		Method: "POST",
		Path:   "/",
		Query:  map[string]string{"Action": "OCRNormal", "Version": "2020-08-26"},
		Headers: map[string]string{
			"Host":         "visual.example.com",
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
	}, testCreds(), "cn-north-1", "cv", testTime())

	assert.Equal(t, "20240315T123045Z", headers["X-Date"])
	assert.Equal(t, emptySHA256, headers["X-Content-Sha256"])
	assert.NotContains(t, headers, "X-Security-Token")

	auth := headers["Authorization"]
	require.NotEmpty(t, auth)
	assert.True(t, strings.HasPrefix(auth, "HMAC-SHA256 "), "unexpected scheme: %s", auth)
	assert.Contains(t, auth, "Credential=AKTEST/20240315/cn-north-1/cv/request")
	assert.Contains(t, auth, "SignedHeaders=content-type;host;x-content-sha256;x-date")
	assert.Contains(t, auth, "Signature=")

	// Accept is not part of the signed subset.
	assert.NotContains(t, auth, "accept")
}

func TestSign_Deterministic(t *testing.T) {
	req := signer.Request{
		Method: "POST",
		Path:   "/",
		Query:  map[string]string{"b": "2", "a": "1", "c": "3"},
		Headers: map[string]string{
			"Host":          "visual.example.com",
			"Content-Type":  "application/x-www-form-urlencoded",
			"X-Custom-Meta": "v",
		},
		Body: []byte("image_base64=abcd"),
	}

	first := signer.Sign(req, testCreds(), "cn-north-1", "cv", testTime())
	// Map iteration order varies between calls; the signature must not.
	for range 10 {
		again := signer.Sign(req, testCreds(), "cn-north-1", "cv", testTime())
		assert.Equal(t, first["Authorization"], again["Authorization"])
	}
}

func TestSign_DefaultPortStripped(t *testing.T) {
	base := signer.Request{
		Method:  "POST",
		Path:    "/",
		Headers: map[string]string{"Host": "visual.example.com"},
	}
	withPort := signer.Request{
		Method:  "POST",
		Path:    "/",
		Headers: map[string]string{"Host": "visual.example.com:443"},
	}
	nonDefault := signer.Request{
		Method:  "POST",
		Path:    "/",
		Headers: map[string]string{"Host": "visual.example.com:8443"},
	}

	sigBase := signer.Sign(base, testCreds(), "r", "s", testTime())["Authorization"]
	sigPort := signer.Sign(withPort, testCreds(), "r", "s", testTime())["Authorization"]
	sigOther := signer.Sign(nonDefault, testCreds(), "r", "s", testTime())["Authorization"]

	assert.Equal(t, sigBase, sigPort, ":443 must sign like the bare host")
	assert.NotEqual(t, sigBase, sigOther, "a non-default port is part of the identity")
}

func TestSign_SessionToken(t *testing.T) {
	creds := testCreds()
	creds.SessionToken = "token-123"

	headers := signer.Sign(signer.Request{
		Method:  "GET",
		Headers: map[string]string{"Host": "h.example.com"},
	}, creds, "r", "s", testTime())

	assert.Equal(t, "token-123", headers["X-Security-Token"])
	assert.Contains(t, headers["Authorization"], "x-security-token")
}

func TestSign_DoesNotMutateInput(t *testing.T) {
	in := map[string]string{"Host": "h.example.com"}
	_ = signer.Sign(signer.Request{Method: "GET", Headers: in}, testCreds(), "r", "s", testTime())
	assert.Equal(t, map[string]string{"Host": "h.example.com"}, in)
}

func TestSign_EmptyPathDefaultsToRoot(t *testing.T) {
	explicit := signer.Sign(signer.Request{
		Method: "GET", Path: "/", Headers: map[string]string{"Host": "h"},
	}, testCreds(), "r", "s", testTime())
	implicit := signer.Sign(signer.Request{
		Method: "GET", Headers: map[string]string{"Host": "h"},
	}, testCreds(), "r", "s", testTime())

	assert.Equal(t, explicit["Authorization"], implicit["Authorization"])
}

func TestCanonicalQuery(t *testing.T) {
	tests := []struct {
		name  string
		query map[string]string
		want  string
	}{
		{
			name:  "sorted by key",
			query: map[string]string{"b": "2", "a": "1"},
			want:  "a=1&b=2",
		},
		{
			name:  "empty",
			query: nil,
			want:  "",
		},
		{
			name:  "reserved characters percent encoded",
			query: map[string]string{"key with space": "a/b&c=d"},
			want:  "key%20with%20space=a%2Fb%26c%3Dd",
		},
		{
			name:  "unreserved characters bare",
			query: map[string]string{"A-b_c.d~e": "09"},
			want:  "A-b_c.d~e=09",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, signer.CanonicalQuery(tt.query))
		})
	}
}
