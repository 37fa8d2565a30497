package httpx

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONRejectsUnknownFieldsAndTrailingData(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, DecodeJSON(strings.NewReader(`{"name":"a"}`), &out))
	assert.Equal(t, "a", out.Name)

	assert.Error(t, DecodeJSON(strings.NewReader(`{"name":"a","extra":1}`), &out))
	assert.Error(t, DecodeJSON(strings.NewReader(`{"name":"a"}{"name":"b"}`), &out))
}

func TestParseLimitOffset(t *testing.T) {
	limit, offset, err := ParseLimitOffset(url.Values{}, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(20), limit)
	assert.Equal(t, int64(0), offset)

	limit, offset, err = ParseLimitOffset(url.Values{"limit": {"500"}, "offset": {"40"}}, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), limit)
	assert.Equal(t, int64(40), offset)

	_, _, err = ParseLimitOffset(url.Values{"limit": {"0"}}, 20, 100)
	assert.Error(t, err)
	_, _, err = ParseLimitOffset(url.Values{"offset": {"-1"}}, 20, 100)
	assert.Error(t, err)
}
