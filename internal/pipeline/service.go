package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gamecat/pkg/config"
	"gamecat/pkg/logger"
	"gamecat/pkg/master"
	"gamecat/pkg/metrics"
	"gamecat/pkg/model"
	"gamecat/pkg/source"
	"gamecat/pkg/table"
	"gamecat/pkg/worker"
)

// Source statuses written to the run report
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusAborted = "aborted"
)

// Masters are the cross-source tables of one run
type Masters struct {
	Games        []model.Game
	Players      []model.Player
	Purchases    []model.Purchase
	PriceHistory []model.Price
	PriceLatest  []model.Price
}

// Report summarizes one build run
type Report struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Sources    []SourceReport `json:"sources"`
	Masters    map[string]int `json:"masters"`
	Overridden map[string]int `json:"overridden"`
}

// SourceReport is the outcome of one source branch
type SourceReport struct {
	Source       string       `json:"source"`
	Status       string       `json:"status"`
	Error        string       `json:"error,omitempty"`
	MissingFiles []string     `json:"missing_files,omitempty"`
	Counts       SourceCounts `json:"counts"`
}

// Service builds the master tables from the raw extracts
type Service struct {
	cfg    *config.AppConfig
	tags   []source.Tag
	logger *logger.Logger
}

// NewService creates a new pipeline service instance
func NewService(cfg *config.AppConfig, l *logger.Logger) (*Service, error) {
	tags, err := cfg.SourceTags()
	if err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, tags: tags, logger: l}, nil
}

// Run reconciles every configured source in parallel, assembles the masters
// in configured source order and writes all outputs. A failing source only
// loses its own contribution; write failures end the run.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := s.logger.With(zap.String("run_id", report.RunID))
	log.Info("starting build", zap.Strings("sources", s.cfg.Sources), zap.String("raw_dir", s.cfg.Paths.RawDir))

	results, err := s.reconcile(ctx, log, report)
	if err != nil {
		return nil, err
	}

	if err := s.writeSources(results); err != nil {
		return nil, err
	}

	masters, overridden := Assemble(results)
	report.Overridden = overridden
	report.Masters, err = s.writeMasters(masters)
	if err != nil {
		return nil, err
	}

	report.FinishedAt = time.Now().UTC()
	if err := s.writeReport(report); err != nil {
		return nil, err
	}

	log.Info("build finished",
		zap.Any("masters", report.Masters),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

// reconcile fans the sources out to the worker pool and collects results in
// configured order
func (s *Service) reconcile(ctx context.Context, log *logger.Logger, report *Report) ([]SourceResult, error) {
	pool := worker.NewPool[SourceResult](log, s.cfg.Pipeline.WorkerCount, len(s.tags))
	pool.Start(ctx)

	for i, tag := range s.tags {
		b, err := newBranch(tag, s.cfg.Paths.RawDir, log)
		if err != nil {
			pool.Shutdown(ctx)
			return nil, err
		}
		if err := pool.Submit(ctx, worker.Job[SourceResult]{Index: i, Name: tag.Key(), Run: b.run}); err != nil {
			pool.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to submit %s: %w", tag, err)
		}
	}
	if err := pool.Shutdown(ctx); err != nil {
		return nil, fmt.Errorf("source branches did not finish: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]SourceResult, len(s.tags))
	for i, res := range pool.Results() {
		tag := s.tags[i]
		sr := SourceReport{Source: tag.Key(), Status: StatusOK}
		if res.Err != nil {
			log.Error("source aborted", res.Err, zap.String("source", tag.Key()))
			metrics.SourcesSkippedTotal.WithLabelValues(tag.Key(), "aborted").Inc()
			results[i] = emptyResult(tag)
			sr.Status = StatusAborted
			sr.Error = res.Err.Error()
		} else {
			results[i] = res.Value
			sr.Counts = res.Value.Counts
			sr.MissingFiles = res.Value.MissingFiles
			if len(sr.MissingFiles) > 0 {
				sr.Status = StatusPartial
			}
		}
		report.Sources = append(report.Sources, sr)
	}
	return results, nil
}

// Assemble merges per-source results in the order given. Later sources
// override earlier ones on shared business keys.
func Assemble(results []SourceResult) (Masters, map[string]int) {
	var (
		games     = make([][]model.Game, len(results))
		players   = make([][]model.Player, len(results))
		purchases = make([][]model.Purchase, len(results))
		history   = make([][]model.Price, len(results))
		latest    = make([][]model.Price, len(results))
	)
	for i, r := range results {
		games[i] = r.Games
		players[i] = r.Players
		purchases[i] = r.Purchases
		history[i] = r.PriceHistory
		latest[i] = r.PriceLatest
	}

	var m Masters
	overridden := map[string]int{}
	m.Games, overridden[table.GamesMaster] = master.Games(games...)
	m.Players, overridden[table.PlayersMaster] = master.Players(players...)
	m.Purchases = master.Concat(purchases...)
	m.PriceHistory = master.Concat(history...)
	m.PriceLatest, overridden[table.PriceLatestMaster] = master.LatestPrices(latest...)
	return m, overridden
}

func (s *Service) writeSources(results []SourceResult) error {
	for _, r := range results {
		files := table.FilesFor(r.Tag.Key())
		outputs := []struct {
			name   string
			header []string
			rows   [][]string
		}{
			{files.Games, model.GameColumns, table.EncodeGames(r.Games)},
			{files.Players, model.PlayerColumns, table.EncodePlayers(r.Players)},
			{files.Purchases, model.PurchaseColumns, table.EncodePurchases(r.Purchases)},
			{files.PriceHistory, model.PriceColumns, table.EncodePrices(r.PriceHistory)},
			{files.PriceLatest, model.PriceColumns, table.EncodePrices(r.PriceLatest)},
		}
		for _, o := range outputs {
			if err := table.WriteFile(s.path(o.name), o.header, o.rows); err != nil {
				return fmt.Errorf("failed to write %s output: %w", r.Tag, err)
			}
		}
	}
	return nil
}

func (s *Service) writeMasters(m Masters) (map[string]int, error) {
	outputs := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{table.GamesMaster, model.GameColumns, table.EncodeGames(m.Games)},
		{table.PlayersMaster, model.PlayerColumns, table.EncodePlayers(m.Players)},
		{table.PurchasesMaster, model.PurchaseColumns, table.EncodePurchases(m.Purchases)},
		{table.PriceHistoryMaster, model.PriceColumns, table.EncodePrices(m.PriceHistory)},
		{table.PriceLatestMaster, model.PriceColumns, table.EncodePrices(m.PriceLatest)},
	}

	counts := make(map[string]int, len(outputs))
	for _, o := range outputs {
		if err := table.WriteFile(s.path(o.name), o.header, o.rows); err != nil {
			return nil, fmt.Errorf("failed to write master table: %w", err)
		}
		counts[o.name] = len(o.rows)
		metrics.MasterRowsTotal.WithLabelValues(o.name).Set(float64(len(o.rows)))
	}
	return counts, nil
}

func (s *Service) writeReport(report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}
	path := s.path(table.RunReport)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}

func (s *Service) path(name string) string {
	return filepath.Join(s.cfg.Paths.CleanDir, name)
}
