package hadukp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
)

// DirSource reads HadUKP files from a local directory using the upstream file names.
type DirSource struct {
	dir string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// FetchRegion opens and parses the region's file.
func (s *DirSource) FetchRegion(ctx context.Context, region domain.Region) ([]domain.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, region.SourceFile())
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	obs, err := domain.ParseDailySeries(f, region.Name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return obs, nil
}
