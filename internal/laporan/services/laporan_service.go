package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/c14220110/rekap-billing/internal/laporan/models"
)

// RecordFetcher adalah lapisan penyimpanan kunjungan dan tindakan.
// Urutan baris harus deterministik untuk filter yang sama.
type RecordFetcher interface {
	// StreamRows mengirim setiap pasangan kunjungan+tindakan yang cocok dengan f ke fn.
	// Limit dan offset diabaikan.
	StreamRows(ctx context.Context, f models.FilterDescriptor, fn func(models.Row) error) error
	// ListVisits mengembalikan satu halaman kunjungan dan jumlah seluruh kunjungan yang cocok.
	// seps tidak nil berarti hanya kunjungan dengan SEP di dalamnya.
	ListVisits(ctx context.Context, f models.FilterDescriptor, seps []string) ([]models.VisitRecord, int, error)
}

// Notifier menerima event untuk diteruskan ke klien (websocket).
type Notifier interface {
	Publish(eventType string, data interface{}) error
}

// LaporanService adalah titik masuk perhitungan laporan. Setiap panggilan berdiri sendiri;
// service tidak menyimpan state antar request.
type LaporanService struct {
	Filters    *FilterBuilder
	Resolver   *MatchSetResolver
	Source     MatchSetSource
	Fetcher    RecordFetcher
	Aggregator *Aggregator
	Assembler  Assembler
	Notifier   Notifier
	Log        *zap.Logger
}

func NewLaporanService(fetcher RecordFetcher, source MatchSetSource, loc *time.Location, notifier Notifier, log *zap.Logger) *LaporanService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LaporanService{
		Filters:    NewFilterBuilder(loc),
		Resolver:   NewMatchSetResolver(log),
		Source:     source,
		Fetcher:    fetcher,
		Aggregator: NewAggregator(log),
		Notifier:   notifier,
		Log:        log,
	}
}

// Summary menghitung rekap ringkas {dpjp, konsul, labTotal, radTotal}.
func (s *LaporanService) Summary(ctx context.Context, p models.FilterParams) (models.SummaryReport, error) {
	f, ms, err := s.prepare(ctx, p)
	if err != nil {
		return models.SummaryReport{}, err
	}
	return s.summary(ctx, f, ms)
}

func (s *LaporanService) summary(ctx context.Context, f models.FilterDescriptor, ms *models.MatchSet) (models.SummaryReport, error) {
	a, err := s.aggregate(ctx, f, ms)
	if err != nil {
		return models.SummaryReport{}, err
	}
	r := s.Assembler.Summary(a)
	if err := CheckSummary(r); err != nil {
		s.Log.Error("invarian rekap ringkas dilanggar", zap.Error(err))
		return models.SummaryReport{}, err
	}
	return r, nil
}

// Detail menghitung rekap bulanan lengkap.
func (s *LaporanService) Detail(ctx context.Context, p models.FilterParams) (models.DetailReport, error) {
	f, ms, err := s.prepare(ctx, p)
	if err != nil {
		return models.DetailReport{}, err
	}
	a, err := s.aggregate(ctx, f, ms)
	if err != nil {
		return models.DetailReport{}, err
	}
	r := s.Assembler.Detail(a)
	if err := CheckDetail(r); err != nil {
		s.Log.Error("invarian rekap rinci dilanggar", zap.Error(err))
		return models.DetailReport{}, err
	}
	return r, nil
}

// ListVisits mengembalikan listing kunjungan berhalaman. Bila includeTotals, rekap ringkas
// dihitung atas seluruh kunjungan yang cocok, bukan hanya halaman ini.
func (s *LaporanService) ListVisits(ctx context.Context, p models.FilterParams) (models.KunjunganList, error) {
	f, ms, err := s.prepare(ctx, p)
	if err != nil {
		return models.KunjunganList{}, err
	}

	var seps []string
	if ms.Active() {
		seps = make([]string, 0, ms.Len())
		for sep := range ms.Entries {
			seps = append(seps, sep)
		}
		sort.Strings(seps)
	}

	visits, total, err := s.Fetcher.ListVisits(ctx, f, seps)
	if err != nil {
		if ctx.Err() != nil {
			return models.KunjunganList{}, ctx.Err()
		}
		return models.KunjunganList{}, &models.FetchFailureError{Op: "ambil daftar kunjungan", Err: err}
	}
	if visits == nil {
		visits = []models.VisitRecord{}
	}

	out := models.KunjunganList{Data: visits, Total: total, Limit: f.Limit, Offset: f.Offset}
	if f.IncludeTotals {
		r, err := s.summary(ctx, f, ms)
		if err != nil {
			return models.KunjunganList{}, err
		}
		out.Totals = &r
	}
	return out, nil
}

// UploadMatchSet memvalidasi file lalu menyimpannya agar bisa dipakai lewat parameter filename.
func (s *LaporanService) UploadMatchSet(ctx context.Context, filename string, content []byte) (string, int, error) {
	name := CleanMatchSetName(filename)
	if name == "" {
		name = uuid.NewString() + ".csv"
	}

	ms, err := s.Resolver.Resolve(name, content)
	if err != nil {
		return "", 0, err
	}
	if err := s.Source.Save(ctx, name, content); err != nil {
		return "", 0, fmt.Errorf("simpan match-set: %w", err)
	}

	s.Log.Info("match-set diunggah", zap.String("match_set", name), zap.Int("jumlah_sep", ms.Len()))
	if s.Notifier != nil {
		payload := map[string]interface{}{"filename": name, "jumlah_sep": ms.Len()}
		if err := s.Notifier.Publish("matchset_uploaded", payload); err != nil {
			s.Log.Warn("gagal broadcast event match-set", zap.Error(err))
		}
	}
	return name, ms.Len(), nil
}

// prepare menjalankan Filter Builder lalu memuat match-set bila diminta.
// Semua penolakan terjadi sebelum query data.
func (s *LaporanService) prepare(ctx context.Context, p models.FilterParams) (models.FilterDescriptor, *models.MatchSet, error) {
	f, err := s.Filters.Build(p)
	if err != nil {
		return f, nil, err
	}
	if f.MatchSetName == "" {
		return f, nil, nil
	}
	if s.Source == nil {
		return f, nil, &models.MatchSetNotFoundError{Name: f.MatchSetName}
	}
	content, err := s.Source.Load(ctx, f.MatchSetName)
	if err != nil {
		return f, nil, err
	}
	ms, err := s.Resolver.Resolve(f.MatchSetName, content)
	if err != nil {
		return f, nil, err
	}
	return f, ms, nil
}

func (s *LaporanService) aggregate(ctx context.Context, f models.FilterDescriptor, ms *models.MatchSet) (*Aggregation, error) {
	start := time.Now()
	a, err := s.Aggregator.Aggregate(ctx, f, ms, func(yield func(models.Row) error) error {
		return s.Fetcher.StreamRows(ctx, f, yield)
	})
	if err != nil {
		s.Log.Error("agregasi gagal",
			zap.String("jenis_rawat", string(f.JenisRawat)),
			zap.String("search", f.Search),
			zap.Error(err))
		return nil, err
	}
	s.Log.Info("laporan dihitung",
		zap.String("jenis_rawat", string(f.JenisRawat)),
		zap.String("periode", strings.Join([]string{f.DateFrom.Format("2006-01-02"), f.DateTo.Format("2006-01-02")}, "..")),
		zap.String("match_set", a.MatchSet),
		zap.Int("baris", a.Lines),
		zap.Duration("durasi", time.Since(start)))
	return a, nil
}
