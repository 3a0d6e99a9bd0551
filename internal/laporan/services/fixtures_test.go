package services

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/c14220110/rekap-billing/internal/laporan/models"
)

func rp(n int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(n))
}

func assertRp(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(got), append([]interface{}{"want %d got %s", want, got}, msgAndArgs...)...)
}

func visit(noRawat, sep, kdDokter, nmDokter string, tgl time.Time) models.VisitRecord {
	return models.VisitRecord{
		NoRawat:      noRawat,
		NoRkmMedis:   "RM-" + noRawat,
		NmPasien:     "Pasien " + noRawat,
		TglKunjungan: tgl,
		JenisRawat:   models.Ralan,
		KdDokter:     kdDokter,
		NmDokter:     nmDokter,
		KdPoli:       "INT",
		NmUnit:       "Poli Penyakit Dalam",
		NoSEP:        sep,
	}
}

func line(k models.Kategori, kdDokter, nmDokter string, biaya int64) models.ProcedureLine {
	return models.ProcedureLine{
		KdJenisPrw:      "J-" + string(k),
		NmPerawatan:     string(k),
		Kategori:        k,
		KdDokter:        kdDokter,
		NmDokter:        nmDokter,
		TarifTindakanDr: rp(biaya / 2),
		BiayaRawat:      rp(biaya),
	}
}

// sampleRows:
//
//	R1 (SEP001, Mei)  : tindakan D001 100rb, konsul D002 50rb, lab PK 30rb, radiologi 40rb
//	R2 (SEP002, Juni) : tindakan D001 200rb, dokter umum D009 25rb, operasi D003 500rb,
//	                    anestesi D004 150rb, konsul anestesi D004 60rb
//	R3 (tanpa SEP, Mei, DPJP D002): tindakan D002 80rb
func sampleRows() []models.Row {
	v1 := visit("R1", "SEP001", "D001", "dr. Andi, Sp.PD", time.Date(2024, 5, 10, 9, 0, 0, 0, wib))
	v2 := visit("R2", "SEP002", "D001", "dr. Andi, Sp.PD", time.Date(2024, 6, 5, 10, 30, 0, 0, wib))
	v3 := visit("R3", "", "D002", "dr. Budi, Sp.JP", time.Date(2024, 5, 20, 8, 15, 0, 0, wib))

	lab := line(models.KategoriLab, "D001", "dr. Andi, Sp.PD", 30000)
	lab.KdPenunjang, lab.NmPenunjang = "PK", "Patologi Klinis"
	rad := line(models.KategoriRadiologi, "D001", "dr. Andi, Sp.PD", 40000)

	umum := line(models.KategoriTindakan, "D009", "dr. Citra", 25000)
	umum.DokterUmum = true

	rows := []models.Row{
		{Visit: v1, Line: line(models.KategoriTindakan, "D001", "dr. Andi, Sp.PD", 100000)},
		{Visit: v1, Line: line(models.KategoriKonsul, "D002", "dr. Budi, Sp.JP", 50000)},
		{Visit: v1, Line: lab},
		{Visit: v1, Line: rad},
		{Visit: v2, Line: line(models.KategoriTindakan, "D001", "dr. Andi, Sp.PD", 200000)},
		{Visit: v2, Line: umum},
		{Visit: v2, Line: line(models.KategoriOperasi, "D003", "dr. Dedi, Sp.B", 500000)},
		{Visit: v2, Line: line(models.KategoriAnestesi, "D004", "dr. Eka, Sp.An", 150000)},
		{Visit: v2, Line: line(models.KategoriKonsulAnestesi, "D004", "dr. Eka, Sp.An", 60000)},
		{Visit: v3, Line: line(models.KategoriTindakan, "D002", "dr. Budi, Sp.JP", 80000)},
	}
	for i := range rows {
		rows[i].Line.NoRawat = rows[i].Visit.NoRawat
	}
	return rows
}

// fakeFetcher menyaring di memori dengan aturan yang sama seperti query SQL.
type fakeFetcher struct {
	rows        []models.Row
	err         error
	streamCalls int
	listCalls   int
	lastSeps    []string
}

func (f *fakeFetcher) StreamRows(ctx context.Context, fd models.FilterDescriptor, fn func(models.Row) error) error {
	f.streamCalls++
	if f.err != nil {
		return f.err
	}
	for _, r := range f.rows {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeFetcher) ListVisits(ctx context.Context, fd models.FilterDescriptor, seps []string) ([]models.VisitRecord, int, error) {
	f.listCalls++
	f.lastSeps = seps
	if f.err != nil {
		return nil, 0, f.err
	}
	allowed := map[string]bool{}
	for _, s := range seps {
		allowed[s] = true
	}

	// sub-filter baris: kunjungan butuh minimal satu baris yang lolos
	lineOK := map[string]bool{}
	for _, r := range f.rows {
		if fd.MatchLine(r.Line) {
			lineOK[r.Visit.NoRawat] = true
		}
	}

	seen := map[string]bool{}
	var visits []models.VisitRecord
	for _, r := range f.rows {
		v := r.Visit
		if seen[v.NoRawat] || !fd.MatchVisit(v) || !lineOK[v.NoRawat] {
			continue
		}
		if seps != nil && !allowed[v.NoSEP] {
			continue
		}
		seen[v.NoRawat] = true
		visits = append(visits, v)
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].TglKunjungan.After(visits[j].TglKunjungan) })

	total := len(visits)
	if fd.Offset >= total {
		return nil, total, nil
	}
	end := fd.Offset + fd.Limit
	if end > total {
		end = total
	}
	return visits[fd.Offset:end], total, nil
}

type capturedEvent struct {
	Type string
	Data interface{}
}

type fakeNotifier struct {
	events []capturedEvent
}

func (n *fakeNotifier) Publish(eventType string, data interface{}) error {
	n.events = append(n.events, capturedEvent{Type: eventType, Data: data})
	return nil
}

// newTestService memakai folder sementara sebagai sumber match-set.
func newTestService(t *testing.T, fetcher RecordFetcher, files map[string]string) (*LaporanService, *fakeNotifier) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	n := &fakeNotifier{}
	svc := NewLaporanService(fetcher, NewDirMatchSetSource(dir), wib, n, zap.NewNop())
	svc.Filters.Now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, wib) }
	return svc, n
}

func mayJuneParams() models.FilterParams {
	return models.FilterParams{JenisRawat: models.Ralan, DateFrom: "2024-05-01", DateTo: "2024-06-30"}
}

func kodes(groups []models.AggregationGroup) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Kode)
	}
	return out
}
