package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		require.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
		assert.True(t, handler.ContainsAttr("code", 500))
		assert.False(t, handler.ContainsAttr("code", 404))
	})

	t.Run("derived loggers share records and keep attrs", func(t *testing.T) {
		logger, handler := NewQuietLogger()

		svcLogger := logger.With(slog.String("service", "dataset"))
		svcLogger.Info("dataset loaded", slog.Int("records", 4))
		logger.WithGroup("http").Info("request", slog.String("path", "/api/health"))

		records := handler.GetRecords()
		require.Len(t, records, 2)
		assert.Equal(t, "dataset", records[0].Attrs["service"])
		assert.EqualValues(t, 4, records[0].Attrs["records"])
		assert.Equal(t, "/api/health", records[1].Attrs["http.path"])
		_, leaked := records[1].Attrs["service"]
		assert.False(t, leaked)
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewQuietLogger()

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
		assert.Equal(t, 4, handler.Count())
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewQuietLogger()

		logger.Info("message 1")
		logger.Info("message 2")
		assert.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Zero(t, handler.Count())
	})

	t.Run("assertion helpers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("important message", slog.String("component", "test"))
		logger.Warn("warning message", slog.Int("retry", 3))

		AssertLogContains(t, handler, slog.LevelInfo, "important")
		AssertLogAttr(t, handler, "component", "test")
		AssertLogAttr(t, handler, "retry", 3)
		AssertNoErrors(t, handler)
	})

	t.Run("thread safety", func(t *testing.T) {
		logger, handler := NewQuietLogger()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.With(slog.Int("worker", n)).Info("concurrent log")
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
	})
}
