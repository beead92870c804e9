package httpserver

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/assistantd/assistantd/internal/broadcast"
	"github.com/assistantd/assistantd/internal/contextmanager"
	"github.com/assistantd/assistantd/internal/contextsource"
	"github.com/assistantd/assistantd/internal/profile"
	"github.com/assistantd/assistantd/internal/screenlog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := discardLogger()

	ctxMgr := contextmanager.New([]contextsource.Source{}, 8, logger)

	screen, err := screenlog.Open(filepath.Join(t.TempDir(), "screen.db"))
	if err != nil {
		t.Fatalf("screenlog.Open: %v", err)
	}
	t.Cleanup(func() { screen.Close() })

	prof := profile.NewStore(t.TempDir())
	bcast := broadcast.New(0, logger)

	return New(ctxMgr, bcast, screen, prof, nil, "", logger)
}

