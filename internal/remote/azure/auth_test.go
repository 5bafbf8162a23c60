package azure

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMasterKeyAuth(t *testing.T) {
	t.Parallel()
	key := []byte("key")
	date := "Sun, 01 Mar 2026 12:00:00 GMT"

	got := masterKeyAuth(key, "GET", "colls", "dbs/Main", date)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("get\ncolls\ndbs/Main\nsun, 01 mar 2026 12:00:00 gmt\n\n"))
	want := "type=master&ver=1.0&sig=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))

	decoded, err := url.QueryUnescape(got)
	require.NoError(t, err)
	assert.Equal(t, want, decoded)
	assert.NotContains(t, got, "&", "header value is query-escaped")
}

func TestPartitionKeyOf(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"id":     "1",
		"tenant": "acme",
		"region": map[string]any{"code": "eu"},
		"n":      json.Number("42"),
		"nil":    nil,
	}

	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"single", []string{"/tenant"}, `["acme"]`},
		{"nested", []string{"/region/code"}, `["eu"]`},
		{"hierarchical", []string{"/tenant", "/region/code"}, `["acme","eu"]`},
		{"number", []string{"/n"}, `[42]`},
		{"null", []string{"/nil"}, `[null]`},
		{"missing", []string{"/absent"}, `[{}]`},
		{"quoted segment", []string{`/"tenant"`}, `["acme"]`},
		{"no key", nil, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, partitionKeyOf(doc, tt.paths))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	assert.Zero(t, retryAfter(h))

	h.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, retryAfter(h))

	h.Set("x-ms-retry-after-ms", "250")
	assert.Equal(t, 250*time.Millisecond, retryAfter(h), "millisecond hint wins")

	h.Set("x-ms-retry-after-ms", "soon")
	assert.Equal(t, 3*time.Second, retryAfter(h))
}

func TestResourceGroupOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rg-data", resourceGroupOf(accountID))
	assert.Equal(t, "rg", resourceGroupOf("/subscriptions/s/resourcegroups/rg/providers/x"))
	assert.Empty(t, resourceGroupOf("/subscriptions/s"))
}

func TestDecodeKey(t *testing.T) {
	t.Parallel()

	_, err := decodeKey("")
	require.Error(t, err)
	_, err = decodeKey("not base64!")
	require.Error(t, err)

	key, err := decodeKey(base64.StdEncoding.EncodeToString([]byte("k")))
	require.NoError(t, err)
	assert.Equal(t, []byte("k"), key)
}
