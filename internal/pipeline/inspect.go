package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"gamecat/pkg/model"
	"gamecat/pkg/source"
	"gamecat/pkg/table"
)

var extractEntities = []model.Entity{
	model.EntityGames,
	model.EntityPlayers,
	model.EntityPurchases,
	model.EntityPrices,
}

// ExtractProfile describes one raw extract without cleaning it
type ExtractProfile struct {
	Source  string          `json:"source"`
	File    string          `json:"file"`
	Found   bool            `json:"found"`
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ColumnProfile counts the filled cells of one column and keeps the first
// few values as a preview
type ColumnProfile struct {
	Name    string   `json:"name"`
	Filled  int      `json:"filled"`
	Preview []string `json:"preview,omitempty"`
}

const previewRows = 5

// Inspect profiles every extract of the configured sources. Nothing is
// written; unreadable extracts are reported in their profile.
func (s *Service) Inspect(ctx context.Context) ([]ExtractProfile, error) {
	profiles := make([]ExtractProfile, 0, len(s.tags)*len(extractEntities))
	for _, tag := range s.tags {
		for _, e := range extractEntities {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			profiles = append(profiles, s.profile(tag, e))
		}
	}
	return profiles, nil
}

func (s *Service) profile(tag source.Tag, e model.Entity) ExtractProfile {
	name := source.FileName(e)
	p := ExtractProfile{Source: tag.Key(), File: name}

	t, err := table.ReadFile(filepath.Join(s.cfg.Paths.RawDir, tag.Key(), name))
	if errors.Is(err, fs.ErrNotExist) {
		return p
	}
	p.Found = true
	if err != nil {
		s.logger.Warn("extract unreadable", zap.String("source", tag.Key()), zap.String("file", name), zap.Error(err))
		p.Error = err.Error()
		return p
	}

	p.Rows = len(t.Rows)
	for _, col := range t.Columns {
		if col == "" {
			continue
		}
		c := ColumnProfile{Name: col}
		for i, row := range t.Rows {
			v := row.Get(col)
			if v.IsAbsent() || strings.TrimSpace(v.Text()) == "" {
				continue
			}
			c.Filled++
			if i < previewRows {
				c.Preview = append(c.Preview, v.Text())
			}
		}
		p.Columns = append(p.Columns, c)
	}
	return p
}
