package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"warning": LevelWarn,
		"warn":    LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLazyLogger_FollowsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { SetDefault(prev) })

	l := Logger("core/test")

	var buf bytes.Buffer
	SetDefault(New(&buf, &slog.HandlerOptions{Level: LevelWarn}))

	l.Info("丢弃")
	assert.Empty(t, buf.String())
	assert.False(t, l.Enabled(LevelInfo))

	l.Warn("写入", "dest", "a@b:1")
	out := buf.String()
	assert.Contains(t, out, "component=core/test")
	assert.Contains(t, out, "dest=a@b:1")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	NewJSON(&buf, nil).Info("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc", TruncateID("abc", 8))
	assert.Equal(t, "abcd", TruncateID("abcdefgh", 4))
}
