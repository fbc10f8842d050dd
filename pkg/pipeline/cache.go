package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// fingerprintFile sits next to the persisted state when the step uses
// configuration fingerprints. It is not counted as state.
const fingerprintFile = ".fingerprint"

// ensureFitted applies the caching policy in fit mode. The check is driven
// purely by presence of state at the cache directory; changing a
// transformer's configuration with a stale cache at the same location
// silently serves stale parameters, unless the step opted into fingerprints.
func (s *Step) ensureFitted(ctx context.Context, in Values, logger *zap.Logger) error {
	if !s.details.Trainable {
		return nil
	}

	if s.details.Cache {
		cached, err := s.cached()
		if err != nil {
			return err
		}
		if cached {
			err := s.load()
			if err != nil {
				return err
			}
			logger.Info("cached state loaded, fit skipped",
				zap.String("step", s.Name()),
				zap.String("dir", s.details.CacheDir),
			)

			return s.pipe.onCacheHit(s.details)
		}

		err = s.pipe.onCacheMiss(s.details)
		if err != nil {
			return err
		}
	}

	start := time.Now()
	err := s.transformer.Fit(ctx, in)
	if err != nil {
		return errors.Wrapf(err, "step %q: unable to fit", s.Name())
	}
	elapsed := time.Since(start)

	logger.Debug("step fitted",
		zap.String("step", s.Name()),
		zap.Duration("elapsed", elapsed),
	)
	err = s.pipe.onFit(s.details, elapsed)
	if err != nil {
		return err
	}

	if !s.details.Cache {
		return nil
	}

	return s.persist(logger)
}

// loadIfCached applies the caching policy in transform mode: persisted state,
// when present, replaces the in-memory parameters so a fresh process can
// transform without ever fitting.
func (s *Step) loadIfCached(logger *zap.Logger) error {
	if !s.details.Trainable || !s.details.Cache {
		return nil
	}

	cached, err := s.cached()
	if err != nil {
		return err
	}
	if !cached {
		return nil
	}

	err = s.load()
	if err != nil {
		return err
	}
	logger.Debug("cached state loaded",
		zap.String("step", s.Name()),
		zap.String("dir", s.details.CacheDir),
	)

	return s.pipe.onCacheHit(s.details)
}

// cached reports whether usable persisted state exists. Presence of any entry
// in the cache directory counts; there is no content or version check beyond
// the optional fingerprint.
func (s *Step) cached() (bool, error) {
	entries, err := os.ReadDir(s.details.CacheDir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Step: s.Name(), Dir: s.details.CacheDir, Op: "inspect", Err: err}
	}

	present := false
	for _, entry := range entries {
		if entry.Name() != fingerprintFile {
			present = true

			break
		}
	}
	if !present {
		return false, nil
	}

	if !s.fingerprint {
		return true, nil
	}

	match, err := s.fingerprintMatches()
	if err != nil {
		return false, err
	}

	return match, nil
}

func (s *Step) fingerprintMatches() (bool, error) {
	want := s.fingerprintSum()

	raw, err := os.ReadFile(filepath.Join(s.details.CacheDir, fingerprintFile))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Step: s.Name(), Dir: s.details.CacheDir, Op: "inspect", Err: err}
	}

	return string(raw) == want, nil
}

func (s *Step) fingerprintSum() string {
	// Guarded at registration: WithFingerprint requires Fingerprinter.
	fp := s.transformer.(Fingerprinter)

	return strconv.FormatUint(xxhash.Sum64(fp.Fingerprint()), 16)
}

// persist writes the fitted state, creating the experiment root lazily.
func (s *Step) persist(logger *zap.Logger) error {
	dir := s.details.CacheDir

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return &PersistenceError{Step: s.Name(), Dir: dir, Op: "persist", Err: err}
	}

	start := time.Now()
	err = s.transformer.Persist(dir)
	if err != nil {
		return &PersistenceError{Step: s.Name(), Dir: dir, Op: "persist", Err: err}
	}

	if s.fingerprint {
		err := os.WriteFile(filepath.Join(dir, fingerprintFile), []byte(s.fingerprintSum()), 0o644)
		if err != nil {
			return &PersistenceError{Step: s.Name(), Dir: dir, Op: "persist", Err: err}
		}
	}
	elapsed := time.Since(start)

	logger.Info("state persisted",
		zap.String("step", s.Name()),
		zap.String("dir", dir),
		zap.Duration("elapsed", elapsed),
	)

	return s.pipe.onPersist(s.details, elapsed)
}

func (s *Step) load() error {
	err := s.transformer.Load(s.details.CacheDir)
	if err != nil {
		return &PersistenceError{Step: s.Name(), Dir: s.details.CacheDir, Op: "load", Err: err}
	}

	return nil
}
