package load

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gamecat/pkg/loader"
	"gamecat/pkg/logger"
	"gamecat/pkg/metrics"
	"gamecat/pkg/model"
	"gamecat/pkg/table"
)

// Service loads the master tables of a finished build into a Store
type Service struct {
	cleanDir    string
	externalDir string
	loader      *loader.Loader
	logger      *logger.Logger
}

// NewService creates a new load service instance. externalDir holds the
// optional population table; an empty path skips it.
func NewService(cleanDir, externalDir string, store loader.Store, l *logger.Logger) *Service {
	return &Service{
		cleanDir:    cleanDir,
		externalDir: externalDir,
		loader:      loader.New(store, l),
		logger:      l,
	}
}

// Run reads the master CSVs and replaces the store contents with them
func (s *Service) Run(ctx context.Context) (loader.Report, error) {
	s.logger.Info("starting load", zap.String("clean_dir", s.cleanDir), zap.String("external_dir", s.externalDir))

	tables, err := s.readTables(ctx)
	if err != nil {
		return loader.Report{}, err
	}

	report, err := s.loader.Load(ctx, tables)
	if err != nil {
		return report, err
	}

	s.logger.Info("load finished", zap.Stringer("report", report))
	return report, nil
}

// readTables reads and decodes every input file concurrently. Each reader
// fills its own field of tables.
func (s *Service) readTables(ctx context.Context) (loader.Tables, error) {
	var tables loader.Tables
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.read(gctx, table.GamesMaster)
		if err != nil {
			return err
		}
		if tables.Games, err = table.DecodeGames(t); err != nil {
			return fmt.Errorf("%s: %w", table.GamesMaster, err)
		}
		return nil
	})
	g.Go(func() error {
		t, err := s.read(gctx, table.PlayersMaster)
		if err != nil {
			return err
		}
		if tables.Players, err = table.DecodePlayers(t); err != nil {
			return fmt.Errorf("%s: %w", table.PlayersMaster, err)
		}
		return nil
	})
	g.Go(func() error {
		t, err := s.read(gctx, table.PurchasesMaster)
		if err != nil {
			return err
		}
		var skipped int
		if tables.Purchases, skipped, err = table.DecodePurchases(t); err != nil {
			return fmt.Errorf("%s: %w", table.PurchasesMaster, err)
		}
		if skipped > 0 {
			s.logger.Warn("purchase rows with invalid ids skipped", zap.Int("rows", skipped))
		}
		return nil
	})
	g.Go(func() error {
		t, err := s.read(gctx, table.PriceLatestMaster)
		if err != nil {
			return err
		}
		if tables.Prices, err = table.DecodePrices(t); err != nil {
			return fmt.Errorf("%s: %w", table.PriceLatestMaster, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tables.Population, err = s.readPopulation(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return loader.Tables{}, err
	}
	return tables, nil
}

// readPopulation treats a missing population file as an empty table
func (s *Service) readPopulation(ctx context.Context) ([]model.Population, error) {
	if s.externalDir == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.externalDir, table.PopulationFile)
	t, err := table.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("population table missing, loading it empty", zap.String("path", path))
		metrics.SourcesSkippedTotal.WithLabelValues("population", "missing_file").Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read population table: %w", err)
	}

	population, err := table.DecodePopulation(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", table.PopulationFile, err)
	}
	return population, nil
}

func (s *Service) read(ctx context.Context, name string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := table.ReadFile(filepath.Join(s.cleanDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read master table %s: %w", name, err)
	}
	return t, nil
}
