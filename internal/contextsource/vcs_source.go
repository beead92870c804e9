package contextsource

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

const vcsLookback = 3600 * time.Second
const maxVCSActivity = 3

// reflogLine matches a single `git reflog` HEAD entry:
// "<old> <new> <name> <email> <unix-seconds> <tz>\t<message>".
var reflogLine = regexp.MustCompile(`^[0-9a-f]+ [0-9a-f]+ .+ <.+> (\d+) [+-]\d{4}\t(.+)$`)

// VCSActivitySource parses the local git reflog from disk directly,
// spawning no subprocess. Any read failure (no .git directory, unreadable
// reflog) is DataAbsence and yields an empty patch.
type VCSActivitySource struct {
	RepoDir string
	Logger  *slog.Logger
	health  *sourceHealth
	now     func() time.Time
}

// NewVCSActivitySource builds a VCSActivitySource rooted at repoDir.
func NewVCSActivitySource(repoDir string, logger *slog.Logger) *VCSActivitySource {
	return &VCSActivitySource{RepoDir: repoDir, Logger: logger, health: newSourceHealth(), now: time.Now}
}

func (s *VCSActivitySource) Name() string { return "vcs" }

func (s *VCSActivitySource) Gather(_ context.Context, _ *contextmodel.Snapshot) Patch {
	reflogPath := filepath.Join(s.RepoDir, ".git", "logs", "HEAD")

	f, err := os.Open(reflogPath)
	if err != nil {
		s.Logger.Debug("vcs source: no reflog", "path", reflogPath, "error", err)
		s.health.recordEmpty()
		return Patch{}
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		s.Logger.Warn("vcs source: reflog read error", "error", err)
		s.health.recordEmpty()
		return Patch{}
	}

	cutoff := s.now().Add(-vcsLookback)

	var recent []contextmodel.VCSActivity
	for i := len(lines) - 1; i >= 0 && len(recent) < maxVCSActivity; i-- {
		m := reflogLine.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		sec, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		ts := time.Unix(sec, 0).UTC()
		if ts.Before(cutoff) {
			continue
		}
		recent = append(recent, contextmodel.VCSActivity{Timestamp: ts, Message: m[2]})
	}

	s.health.recordSuccess()
	return Patch{HasVCS: true, RecentActivity: recent}
}

func (s *VCSActivitySource) Health() Snapshot { return s.health.snapshot(s.Name()) }
