package lockio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/gemlock/pkg/errors"
	"github.com/matzehuels/gemlock/pkg/gemver"
)

// ReadJSON decodes a lock from r.
//
// ReadJSON returns an error if:
//   - The JSON is malformed
//   - The format number is newer than [Format]
//   - A gem has no name or an unparsable version
//   - Two entries share the same name and platform
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Lock, error) {
	var l Lock
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if l.Format > Format {
		return nil, errors.New(errors.ErrCodeUnsupported, "lock format %d is newer than %d", l.Format, Format)
	}

	seen := make(map[string]bool, len(l.Gems))
	for _, g := range l.Gems {
		if g.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "lock entry without a name")
		}
		if _, err := gemver.Parse(g.Version); err != nil {
			return nil, fmt.Errorf("gem %s: %w", g.Name, err)
		}
		if seen[g.Key()] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate lock entry %s", g.Key())
		}
		seen[g.Key()] = true
	}
	sortGems(l.Gems)
	return &l, nil
}

// ImportJSON reads the lock file at path.
func ImportJSON(path string) (*Lock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	l, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}
