package logger

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSafeHeaders_RedactsCredentials(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer abc")
	h.Set("Cookie", "yatube_session=xyz")
	h.Set("Accept", "text/html")

	out := SafeHeaders(h)

	assert.Contains(t, out, "Authorization=<redacted>")
	assert.Contains(t, out, "Cookie=<redacted>")
	assert.Contains(t, out, "Accept=text/html")
	assert.NotContains(t, out, "abc")
	assert.NotContains(t, out, "xyz")
}

func TestSetAndHelpers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := L()
	Set(zap.New(core))
	t.Cleanup(func() { Set(prev) })

	Info("post created", zap.Uint("post_id", 7))
	Warn("cache unavailable")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "post created", entries[0].Message)
		assert.Equal(t, uint64(7), entries[0].ContextMap()["post_id"])
		assert.Equal(t, zap.WarnLevel, entries[1].Level)
	}
}

func TestInit_RejectsBadLevel(t *testing.T) {
	assert.Error(t, Init("loud", "json"))
}
