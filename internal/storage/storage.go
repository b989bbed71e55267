package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meleemajors/meleemajors/internal/config"
	"github.com/meleemajors/meleemajors/internal/tournament"
)

// File names inside the data directory.
const (
	TournamentsFile = "tournaments.json"
	PlayersFile     = "topPlayers.json"
	SnapshotFile    = "snapshot.json"
)

// Storage handles the data directory.
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// ExpandHome expands a leading ~/ to the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Dir returns the data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

// Path returns the path of a file inside the data directory.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// LoadTournaments reads the tournament list. The file must hold a JSON array
// of objects; anything else is a *config.ConfigError.
func (s *Storage) LoadTournaments() ([]tournament.Input, error) {
	data, err := os.ReadFile(s.Path(TournamentsFile))
	if err != nil {
		return nil, &config.ConfigError{Key: TournamentsFile, Reason: err.Error()}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &config.ConfigError{Key: TournamentsFile, Reason: "root must be an array"}
	}

	var inputs []tournament.Input
	if err := json.Unmarshal(trimmed, &inputs); err != nil {
		return nil, &config.ConfigError{Key: TournamentsFile, Reason: err.Error()}
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, &config.ConfigError{Key: fmt.Sprintf("%s[%d]", TournamentsFile, i), Reason: err.Error()}
		}
	}
	return inputs, nil
}

// LoadRankedPlayers reads the ranked player list. A missing file is an empty
// list.
func (s *Storage) LoadRankedPlayers() ([]string, error) {
	data, err := os.ReadFile(s.Path(PlayersFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading ranked players: %w", err)
	}

	var players []string
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, &config.ConfigError{Key: PlayersFile, Reason: err.Error()}
	}
	return players, nil
}

// SaveRankedPlayers writes the ranked player list.
func (s *Storage) SaveRankedPlayers(players []string) error {
	if players == nil {
		players = []string{}
	}
	data, err := json.MarshalIndent(players, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ranked players: %w", err)
	}
	return WriteFileAtomic(s.Path(PlayersFile), append(data, '\n'))
}

// LoadSnapshot loads the announcement snapshot from disk
func (s *Storage) LoadSnapshot() (*tournament.Snapshot, error) {
	data, err := os.ReadFile(s.Path(SnapshotFile))
	if err != nil {
		if os.IsNotExist(err) {
			// No previous snapshot, return empty one
			return tournament.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot tournament.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	// Ensure Tournaments map is initialized
	if snapshot.Tournaments == nil {
		snapshot.Tournaments = make(map[string]*tournament.Entry)
	}

	return &snapshot, nil
}

// SaveSnapshot saves a snapshot to disk
func (s *Storage) SaveSnapshot(snapshot *tournament.Snapshot) error {
	if snapshot.UpdatedAt == "" {
		snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := WriteFileAtomic(s.Path(SnapshotFile), data); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// WriteFileAtomic writes data to a temporary file in the target directory and
// renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}
