package pinata

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitarch/poap-service/internal/utils"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func testClient(t *testing.T, creds Credentials, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(creds, baseURL, "", 2, time.Millisecond)
	require.NoError(t, err)
	return c
}

func TestPinJSONDegradedInlineURI(t *testing.T) {
	c := testClient(t, Credentials{}, "")

	addr, err := c.PinJSON(context.Background(), "poap-metadata", map[string]string{"name": "GitArch POAP - Test"})

	require.NoError(t, err)
	assert.False(t, addr.Pinned())
	require.True(t, strings.HasPrefix(string(addr), "data:application/json;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(string(addr), "data:application/json;base64,"))
	require.NoError(t, err)
	var doc map[string]string
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "GitArch POAP - Test", doc["name"])
}

func TestPinFileDegradedLocalReference(t *testing.T) {
	c := testClient(t, Credentials{}, "")
	content := []byte("render.png bytes")

	first, err := c.PinFile(context.Background(), "render.png", bytes.NewReader(content))
	require.NoError(t, err)
	second, err := c.PinFile(context.Background(), "render.png", bytes.NewReader(content))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(first), SchemeLocal))
	assert.False(t, first.Pinned())
	// Content-derived, so the same bytes always produce the same reference.
	assert.Equal(t, first, second)

	other, err := c.PinFile(context.Background(), "render.png", bytes.NewReader([]byte("different bytes")))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestPinJSONCredentialed(t *testing.T) {
	var gotAuth string
	var gotBody map[string]json.RawMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(pinResponse{IpfsHash: testCID})
	}))
	defer server.Close()

	c := testClient(t, Credentials{JWT: "test-jwt"}, server.URL)

	addr, err := c.PinJSON(context.Background(), "poap-metadata", map[string]string{"name": "doc"})

	require.NoError(t, err)
	assert.Equal(t, ContentAddress("ipfs://"+testCID), addr)
	assert.True(t, addr.Pinned())
	assert.Equal(t, "Bearer test-jwt", gotAuth)
	assert.Contains(t, gotBody, "pinataContent")
	assert.Contains(t, gotBody, "pinataMetadata")
}

func TestPinJSONLegacyKeyHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("pinata_api_key"))
		assert.Equal(t, "secret", r.Header.Get("pinata_secret_api_key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(pinResponse{IpfsHash: testCID})
	}))
	defer server.Close()

	c := testClient(t, Credentials{APIKey: "key", APISecret: "secret"}, server.URL)

	addr, err := c.PinJSON(context.Background(), "poap-metadata", map[string]string{})

	require.NoError(t, err)
	assert.True(t, addr.Pinned())
}

func TestPinJSONUploadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer server.Close()

	c := testClient(t, Credentials{JWT: "expired"}, server.URL)

	addr, err := c.PinJSON(context.Background(), "poap-metadata", map[string]string{})

	assert.Empty(t, addr)
	assert.ErrorIs(t, err, utils.ErrPinningFailed)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestPinJSONInvalidCIDRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pinResponse{IpfsHash: "not-a-cid"})
	}))
	defer server.Close()

	c := testClient(t, Credentials{JWT: "test-jwt"}, server.URL)

	addr, err := c.PinJSON(context.Background(), "poap-metadata", map[string]string{})

	assert.Empty(t, addr)
	assert.ErrorIs(t, err, utils.ErrPinningFailed)
}

func TestPinJSONRetriesOnRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"slow down"}`))
			return
		}
		json.NewEncoder(w).Encode(pinResponse{IpfsHash: testCID})
	}))
	defer server.Close()

	c := testClient(t, Credentials{JWT: "test-jwt"}, server.URL)

	addr, err := c.PinJSON(context.Background(), "poap-metadata", map[string]string{})

	require.NoError(t, err)
	assert.True(t, addr.Pinned())
	assert.Equal(t, 2, calls)
}

func TestPinFileCredentialed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "render.png", header.Filename)
		json.NewEncoder(w).Encode(pinResponse{IpfsHash: testCID})
	}))
	defer server.Close()

	c := testClient(t, Credentials{JWT: "test-jwt"}, server.URL)

	addr, err := c.PinFile(context.Background(), "render.png", bytes.NewReader([]byte("render.png bytes")))

	require.NoError(t, err)
	assert.Equal(t, ContentAddress("ipfs://"+testCID), addr)
}
