package transform

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// stateVersion tags every persisted state file so a future format change can
// refuse to load old artifacts instead of misreading them.
const stateVersion = "state.v1"

const stateFileName = "state.json"

var (
	ErrNotFitted = errors.New("transformer is not fitted")
	// ErrStateVersion is returned when a persisted state was written by an
	// incompatible version of this package.
	ErrStateVersion = errors.New("unsupported state version")
)

type stateHeader struct {
	Version string `json:"version"`
}

func saveState(dir string, state any) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "unable to marshal state")
	}

	path := filepath.Join(dir, stateFileName)
	err = os.WriteFile(path, raw, 0o644)
	if err != nil {
		return errors.Wrapf(err, "unable to write state file %s", path)
	}

	return nil
}

func loadState(dir string, state any) error {
	path := filepath.Join(dir, stateFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "unable to read state file %s", path)
	}

	var header stateHeader
	err = json.Unmarshal(raw, &header)
	if err != nil {
		return errors.Wrapf(err, "unable to unmarshal state header %s", path)
	}
	if header.Version != stateVersion {
		return errors.Wrapf(ErrStateVersion, "%q", header.Version)
	}

	err = json.Unmarshal(raw, state)
	if err != nil {
		return errors.Wrapf(err, "unable to unmarshal state %s", path)
	}

	return nil
}
