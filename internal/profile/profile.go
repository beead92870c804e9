// Package profile persists the UserProfile singleton as a versioned
// JSON file under the XDG state directory, adapting the teacher's
// gamification.Store atomic temp-file-then-rename pattern to the
// spec's settings-restore-at-startup requirement.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

const (
	profileVersion = 1
	fileName       = "profile.json"
	appDirName     = "assistantd"
)

// Profile is the persistent UserProfile singleton.
type Profile struct {
	Version             int                          `json:"version"`
	InterruptionMode    contextmodel.InterruptionMode `json:"interruptionMode"`
	CaptureMode         contextmodel.CaptureMode      `json:"captureMode"`
	OnboardingCompleted bool                          `json:"onboardingCompleted"`
	CreatedAt           time.Time                     `json:"createdAt"`
	LastUpdated         time.Time                     `json:"lastUpdated"`
}

func newProfile() *Profile {
	now := time.Now().UTC()
	return &Profile{
		Version:          profileVersion,
		InterruptionMode: contextmodel.Balanced,
		CaptureMode:      contextmodel.CaptureBalanced,
		CreatedAt:        now,
		LastUpdated:      now,
	}
}

// Store handles loading and saving Profile to disk.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. An empty dir uses the
// default XDG state path.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = defaultStateDir()
	}
	return &Store{dir: dir}
}

// Path returns the full path to the profile file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Load reads the profile from disk. A missing file yields fresh
// defaults, not an error.
func (s *Store) Load() (*Profile, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return newProfile(), nil
		}
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	return &p, nil
}

// Save writes the profile to disk using an atomic temp-file-then-rename.
func (s *Store) Save(p *Profile) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating profile dir: %w", err)
	}

	p.Version = profileVersion
	p.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".profile-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("renaming profile file: %w", err)
	}
	committed = true

	return nil
}

func defaultStateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
