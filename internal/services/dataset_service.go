package services

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"investlens/internal/config"
	"investlens/internal/dataprocessing"
	apierrors "investlens/internal/errors"
	"investlens/internal/infrastructure"
	"investlens/pkg/contracts/domain"
)

// EventDatasetReloaded is broadcast to websocket clients after a successful load.
const EventDatasetReloaded = "dataset:reloaded"

// maxCachedViews bounds the per-snapshot view cache.
const maxCachedViews = 128

// WebSocketHub is the subset of the websocket hub the services publish to
type WebSocketHub interface {
	Broadcast(messageType string, data interface{})
}

// snapshot is one immutable load of the canonical table
type snapshot struct {
	canonical *dataprocessing.Canonical
	summary   domain.DatasetSummary
	options   domain.SelectionOptions

	mu    sync.Mutex
	views map[string]*domain.ViewSet
}

func (s *snapshot) cached(key string) (*domain.ViewSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, ok := s.views[key]
	return vs, ok
}

func (s *snapshot) store(key string, vs *domain.ViewSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.views) >= maxCachedViews {
		s.views = make(map[string]*domain.ViewSet)
	}
	s.views[key] = vs
}

// DatasetService owns the canonical investment table. Loads replace the
// current snapshot atomically; readers never see a partially built table.
type DatasetService struct {
	source  dataprocessing.Source
	opts    dataprocessing.BuildOptions
	timeout time.Duration
	current atomic.Pointer[snapshot]
	group   singleflight.Group
	metrics *infrastructure.Metrics
	hub     WebSocketHub
	logger  *slog.Logger
	now     func() time.Time
}

// DatasetServiceOption customizes a DatasetService
type DatasetServiceOption func(*DatasetService)

// WithMetrics records load and view metrics
func WithMetrics(m *infrastructure.Metrics) DatasetServiceOption {
	return func(s *DatasetService) { s.metrics = m }
}

// WithHub announces reloads to websocket clients
func WithHub(hub WebSocketHub) DatasetServiceOption {
	return func(s *DatasetService) { s.hub = hub }
}

// WithLoadTimeout overrides config.DatasetLoadTimeout
func WithLoadTimeout(d time.Duration) DatasetServiceOption {
	return func(s *DatasetService) { s.timeout = d }
}

// NewDatasetService creates a dataset service reading from src
func NewDatasetService(src dataprocessing.Source, opts dataprocessing.BuildOptions, logger *slog.Logger, options ...DatasetServiceOption) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ReferenceYear == 0 {
		opts.ReferenceYear = config.DefaultReferenceYear
	}

	s := &DatasetService{
		source:  src,
		opts:    opts,
		timeout: config.DatasetLoadTimeout,
		logger:  logger.With(slog.String("service", "dataset")),
		now:     time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// NewDatasetServiceFromConfig builds the source described by cfg. The file
// source reads datasetFile, which is the resolved form of cfg.Path.
func NewDatasetServiceFromConfig(cfg config.DatasetConfig, datasetFile string, logger *slog.Logger, options ...DatasetServiceOption) (*DatasetService, error) {
	src, err := dataprocessing.NewSource(SourceConfigFrom(cfg, datasetFile))
	if err != nil {
		return nil, apierrors.NewConfigError("invalid dataset source", err)
	}
	return NewDatasetService(src, BuildOptionsFrom(cfg), logger, options...), nil
}

// SourceConfigFrom maps the dataset configuration onto a source config
func SourceConfigFrom(cfg config.DatasetConfig, datasetFile string) dataprocessing.SourceConfig {
	path := datasetFile
	if path == "" {
		path = cfg.Path
	}
	return dataprocessing.SourceConfig{
		Kind:            cfg.Source,
		Path:            path,
		Sheet:           cfg.Sheet,
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		Range:           cfg.Sheets.Range,
		CredentialsFile: cfg.Sheets.CredentialsFile,
		DSN:             cfg.Postgres.DSN,
		Table:           cfg.Postgres.Table,
	}
}

// BuildOptionsFrom maps the configured headers and reference year
func BuildOptionsFrom(cfg config.DatasetConfig) dataprocessing.BuildOptions {
	return dataprocessing.BuildOptions{
		Columns: dataprocessing.Columns{
			BirthDate:       cfg.Columns.BirthDate,
			InvestmentYear:  cfg.Columns.InvestmentYear,
			InvestmentMonth: cfg.Columns.InvestmentMonth,
			LandType:        cfg.Columns.LandType,
			UnitCount:       cfg.Columns.UnitCount,
			AmountPaid:      cfg.Columns.AmountPaid,
		},
		ReferenceYear: cfg.ReferenceYear,
	}
}

// SourceName is the name of the configured source
func (s *DatasetService) SourceName() string {
	return s.source.Name()
}

// Loaded reports whether a snapshot is available
func (s *DatasetService) Loaded() bool {
	return s.current.Load() != nil
}

// Reload loads the source and swaps in the new table. Concurrent calls share
// one load. On failure the previous snapshot stays in place.
func (s *DatasetService) Reload(ctx context.Context) (domain.DatasetSummary, error) {
	ch := s.group.DoChan("reload", func() (interface{}, error) {
		// The load outlives a caller that gives up waiting.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.load(loadCtx)
	})

	select {
	case <-ctx.Done():
		return domain.DatasetSummary{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.DatasetSummary{}, res.Err
		}
		summary := res.Val.(domain.DatasetSummary)
		if res.Shared {
			s.logger.DebugContext(ctx, "joined in-flight dataset reload")
		}
		return summary, nil
	}
}

func (s *DatasetService) load(ctx context.Context) (domain.DatasetSummary, error) {
	start := time.Now()
	source := s.source.Name()
	s.logger.InfoContext(ctx, "loading dataset", slog.String("source", source))

	canonical, err := dataprocessing.BuildCanonical(ctx, s.source, s.opts)
	if err != nil {
		s.metrics.RecordDatasetLoad(ctx, source, time.Since(start), 0, nil, err)
		infrastructure.RecordError(ctx, err)

		var schemaErr *dataprocessing.SchemaError
		if errors.As(err, &schemaErr) {
			s.logger.ErrorContext(ctx, "dataset schema check failed",
				slog.String("source", source),
				slog.Any("missing_columns", schemaErr.Missing),
			)
			name := schemaErr.Source
			if name == "" {
				name = source
			}
			return domain.DatasetSummary{}, apierrors.NewSchemaError(name, schemaErr.Missing, err)
		}

		s.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		var appErr *apierrors.AppError
		if errors.As(err, &appErr) {
			return domain.DatasetSummary{}, appErr.WithContext("source", source)
		}
		return domain.DatasetSummary{}, apierrors.NewDatasetError("failed to load dataset", err).
			WithContext("source", source)
	}

	snap := newSnapshot(canonical, s.opts.ReferenceYear, s.now())
	s.current.Store(snap)
	infrastructure.AddSpanEvent(ctx, "dataset.loaded",
		attribute.String("source", source),
		attribute.Int("records", len(canonical.Records)),
		attribute.Int("dropped", snap.summary.DroppedTotal),
	)

	dropped := make(map[string]int, len(canonical.Dropped.Reasons))
	for reason, n := range canonical.Dropped.Reasons {
		dropped[string(reason)] = n
	}
	s.metrics.RecordDatasetLoad(ctx, source, time.Since(start), len(canonical.Records), dropped, nil)

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", source),
		slog.Int("source_rows", canonical.SourceRows),
		slog.Int("records", len(canonical.Records)),
		slog.Int("dropped", snap.summary.DroppedTotal),
		slog.Int("ungrouped", canonical.Ungrouped),
		slog.String("fingerprint", snap.summary.Fingerprint),
		slog.Duration("duration", time.Since(start)),
	)

	if s.hub != nil {
		s.hub.Broadcast(EventDatasetReloaded, snap.summary)
	}
	return snap.summary, nil
}

func newSnapshot(canonical *dataprocessing.Canonical, referenceYear int, loadedAt time.Time) *snapshot {
	return &snapshot{
		canonical: canonical,
		options:   dataprocessing.Options(canonical.Records),
		views:     make(map[string]*domain.ViewSet),
		summary: domain.DatasetSummary{
			Source:        canonical.Source,
			LoadedAt:      loadedAt.UTC(),
			SourceRows:    canonical.SourceRows,
			Records:       len(canonical.Records),
			Ungrouped:     canonical.Ungrouped,
			Dropped:       canonical.Dropped,
			DroppedTotal:  canonical.Dropped.Total(),
			ReferenceYear: referenceYear,
			Fingerprint:   Fingerprint(canonical.Records),
		},
	}
}

func (s *DatasetService) snapshot() (*snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrDatasetNotLoaded
	}
	return snap, nil
}

// Summary describes the loaded table and its drop diagnostics
func (s *DatasetService) Summary() (domain.DatasetSummary, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.DatasetSummary{}, err
	}
	return snap.summary, nil
}

// Options returns the selectable values of the loaded table
func (s *DatasetService) Options() (domain.SelectionOptions, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.SelectionOptions{}, err
	}
	return snap.options, nil
}

// Records returns the canonical table. Callers must not modify it.
func (s *DatasetService) Records() ([]domain.InvestmentRecord, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.canonical.Records, nil
}

// Views computes every aggregation for params and returns it with its ETag.
// A selection matching no rows yields empty views; AmountByYear is unaffected.
func (s *DatasetService) Views(ctx context.Context, params domain.FilterParams) (*domain.ViewSet, string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, "", err
	}
	etag := ViewsETag(snap.summary.Fingerprint, params)
	start := time.Now()
	if vs, ok := snap.cached(etag); ok {
		s.metrics.RecordViewComputation(ctx, time.Since(start), true)
		return vs, etag, nil
	}

	vs := dataprocessing.ComputeViews(snap.canonical.Records, params)
	snap.store(etag, &vs)
	s.metrics.RecordViewComputation(ctx, time.Since(start), false)

	s.logger.DebugContext(ctx, "views computed",
		slog.Int("year", params.Year),
		slog.Int("age_groups", len(params.AgeGroups)),
		slog.Int("land_types", len(params.LandTypes)),
		slog.Int("records", vs.Metrics.Records),
		slog.Duration("duration", time.Since(start)),
	)
	return &vs, etag, nil
}

// View computes the views for params and returns the named one
func (s *DatasetService) View(ctx context.Context, name string, params domain.FilterParams) (interface{}, string, error) {
	if !isViewName(name) {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	vs, etag, err := s.Views(ctx, params)
	if err != nil {
		return nil, "", err
	}
	v, _ := vs.View(name)
	return v, etag, nil
}

func isViewName(name string) bool {
	for _, n := range domain.ViewNames() {
		if n == name {
			return true
		}
	}
	return false
}

// Fingerprint is a BLAKE2b-256 digest of the canonical table contents
func Fingerprint(records []domain.InvestmentRecord) string {
	h, _ := blake2b.New256(nil)
	buf := make([]byte, 8)
	writeInt := func(v int64) {
		binary.BigEndian.PutUint64(buf, uint64(v))
		h.Write(buf)
	}
	writeFloat := func(v float64) {
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}

	writeInt(int64(len(records)))
	for _, r := range records {
		writeInt(r.BirthDay().Unix())
		writeInt(int64(r.InvestmentYear))
		writeInt(int64(r.InvestmentMonth))
		writeInt(int64(len(r.LandType)))
		h.Write([]byte(r.LandType))
		writeFloat(r.UnitCount)
		writeFloat(r.AmountPaid)
		writeInt(int64(r.AgeGroup))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ViewsETag identifies the views of params over the table with the given
// fingerprint. Age group and land type order does not change the tag.
func ViewsETag(fingerprint string, params domain.FilterParams) string {
	groups := make([]int, len(params.AgeGroups))
	for i, g := range params.AgeGroups {
		groups[i] = int(g)
	}
	sort.Ints(groups)
	lands := append([]string(nil), params.LandTypes...)
	sort.Strings(lands)

	h, _ := blake2b.New(16, nil)
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(params.Year)))
	h.Write([]byte{0})
	for _, g := range groups {
		h.Write([]byte(strconv.Itoa(g)))
		h.Write([]byte{1})
	}
	h.Write([]byte{0})
	for _, l := range lands {
		h.Write([]byte(strconv.Itoa(len(l))))
		h.Write([]byte{1})
		h.Write([]byte(l))
	}
	return hex.EncodeToString(h.Sum(nil))
}
