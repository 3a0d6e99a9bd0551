package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/c14220110/rekap-billing/internal/laporan/models"
)

// Bagian adalah seksi laporan tempat sebuah baris tindakan dijumlahkan.
type Bagian int

const (
	BagianDPJP Bagian = iota
	BagianKonsul
	BagianDokterUmum
	BagianOperator
	BagianAnestesi
	BagianKonsulAnestesi
	BagianPenunjang
	jumlahBagian
)

// RouteLine menentukan seksi untuk satu baris tindakan.
func RouteLine(l models.ProcedureLine) Bagian {
	switch l.Kategori {
	case models.KategoriLab, models.KategoriRadiologi:
		return BagianPenunjang
	case models.KategoriOperasi:
		return BagianOperator
	case models.KategoriAnestesi:
		return BagianAnestesi
	case models.KategoriKonsulAnestesi:
		return BagianKonsulAnestesi
	}
	if l.DokterUmum {
		return BagianDokterUmum
	}
	if l.Kategori == models.KategoriKonsul {
		return BagianKonsul
	}
	return BagianDPJP
}

// RowStream mengirim setiap baris ke yield sampai habis atau yield mengembalikan error.
type RowStream func(yield func(models.Row) error) error

// SliceStream membungkus slice baris sebagai RowStream.
func SliceStream(rows []models.Row) RowStream {
	return func(yield func(models.Row) error) error {
		for _, r := range rows {
			if err := yield(r); err != nil {
				return err
			}
		}
		return nil
	}
}

type groupAcc struct {
	kode     string
	nama     string
	tindakan int
	visits   map[string]struct{}
	tarif    models.Tarif
}

func (g *groupAcc) add(noRawat string, t models.Tarif) {
	g.tindakan++
	g.visits[noRawat] = struct{}{}
	g.tarif = g.tarif.Add(t)
}

func (g *groupAcc) group() models.AggregationGroup {
	return models.AggregationGroup{
		Kode:            g.kode,
		Nama:            g.nama,
		JumlahTindakan:  g.tindakan,
		JumlahKunjungan: len(g.visits),
		Tarif:           g.tarif,
	}
}

type sectionAcc struct {
	groups map[string]*groupAcc
}

func newSectionAcc() *sectionAcc {
	return &sectionAcc{groups: make(map[string]*groupAcc)}
}

func (s *sectionAcc) add(kode, nama, noRawat string, t models.Tarif) {
	g, ok := s.groups[kode]
	if !ok {
		g = &groupAcc{kode: kode, nama: nama, visits: make(map[string]struct{})}
		s.groups[kode] = g
	}
	if g.nama == "" {
		g.nama = nama
	}
	g.add(noRawat, t)
}

// sorted mengurutkan total menurun, lalu kode dan nama menaik.
func (s *sectionAcc) sorted() []models.AggregationGroup {
	out := make([]models.AggregationGroup, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g.group())
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		if out[i].Kode != out[j].Kode {
			return out[i].Kode < out[j].Kode
		}
		return out[i].Nama < out[j].Nama
	})
	return out
}

// Aggregation adalah hasil satu kali fold atas baris yang lolos filter.
// Semua seksi dihitung dari himpunan baris yang sama.
type Aggregation struct {
	Filter   models.FilterDescriptor
	MatchSet string

	sections [jumlahBagian]*sectionAcc
	bulanan  *sectionAcc
	lab      decimal.Decimal
	rad      decimal.Decimal

	Lines  int
	visits map[string]struct{}
}

func newAggregation(f models.FilterDescriptor, ms *models.MatchSet) *Aggregation {
	a := &Aggregation{
		Filter:  f,
		bulanan: newSectionAcc(),
		visits:  make(map[string]struct{}),
	}
	if ms.Active() {
		a.MatchSet = ms.Name
	}
	for i := range a.sections {
		a.sections[i] = newSectionAcc()
	}
	return a
}

// Section mengembalikan grup terurut satu seksi; tidak pernah nil.
func (a *Aggregation) Section(b Bagian) []models.AggregationGroup {
	return a.sections[b].sorted()
}

func (a *Aggregation) LabTotal() decimal.Decimal { return a.lab }
func (a *Aggregation) RadTotal() decimal.Decimal { return a.rad }

// Month mengembalikan grup bulanan untuk kunci "YYYY-MM".
func (a *Aggregation) Month(key string) (models.AggregationGroup, bool) {
	g, ok := a.bulanan.groups[key]
	if !ok {
		return models.AggregationGroup{}, false
	}
	return g.group(), true
}

func (a *Aggregation) Visits() int { return len(a.visits) }

func (a *Aggregation) add(r models.Row, t models.Tarif) {
	l, v := r.Line, r.Visit
	a.Lines++
	a.visits[v.NoRawat] = struct{}{}

	b := RouteLine(l)
	if b == BagianPenunjang {
		kode, nama := l.KdPenunjang, l.NmPenunjang
		if l.Kategori == models.KategoriLab {
			a.lab = a.lab.Add(t.Total)
			if kode == "" {
				kode, nama = "LAB", "Laboratorium"
			}
		} else {
			a.rad = a.rad.Add(t.Total)
			if kode == "" {
				kode, nama = "RAD", "Radiologi"
			}
		}
		a.sections[b].add(kode, nama, v.NoRawat, t)
	} else {
		kode, nama := l.KdDokter, l.NmDokter
		if kode == "" {
			kode, nama = v.KdDokter, v.NmDokter
		}
		a.sections[b].add(kode, nama, v.NoRawat, t)
	}

	key := a.Filter.MonthKey(v.TglKunjungan)
	a.bulanan.add(key, "", v.NoRawat, t)
}

// Aggregator menjalankan fold tunggal atas aliran baris.
type Aggregator struct {
	Log *zap.Logger
}

func NewAggregator(log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{Log: log}
}

// claimRow adalah baris klaim yang tarifnya menunggu pembagian override.
type claimRow struct {
	row      models.Row
	tarif    models.Tarif
	included bool
}

// Aggregate menjumlahkan baris yang lolos filter dan match-set. Match-set nil atau kosong
// berarti tanpa penyaringan SEP. Override tarif berlaku sekali per klaim (SEP): nilainya
// dibagi ke seluruh baris klaim lewat TarifOverride.Spread sebelum sub-filter baris
// diterapkan. Error dari stream dibungkus FetchFailureError; pembatalan context
// menghentikan pembacaan baris dan tidak menghasilkan agregasi parsial.
func (ag *Aggregator) Aggregate(ctx context.Context, f models.FilterDescriptor, ms *models.MatchSet, stream RowStream) (*Aggregation, error) {
	a := newAggregation(f, ms)
	active := ms.Active()

	claims := map[string][]claimRow{}
	var claimOrder []string

	fold := func(r models.Row, withOp map[string]struct{}) {
		if !f.MatchVisit(r.Visit) {
			return
		}
		if withOp != nil {
			if _, ok := withOp[r.Visit.NoRawat]; !ok {
				return
			}
		}
		t := r.Line.Tarif()
		if active {
			entry, ok := ms.Lookup(r.Visit.NoSEP)
			if !ok {
				return
			}
			if !entry.Override.Empty() {
				sep := r.Visit.NoSEP
				if _, seen := claims[sep]; !seen {
					claimOrder = append(claimOrder, sep)
				}
				claims[sep] = append(claims[sep], claimRow{row: r, tarif: t, included: f.MatchLine(r.Line)})
				return
			}
		}
		if f.MatchLine(r.Line) {
			a.add(r, t)
		}
	}

	var buffered []models.Row
	withOp := map[string]struct{}{}
	err := stream(func(r models.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.AdaOperasi {
			// kunjungan dengan operasi baru diketahui setelah semua baris terbaca
			buffered = append(buffered, r)
			if r.Line.Kategori == models.KategoriOperasi {
				withOp[r.Visit.NoRawat] = struct{}{}
			}
			return nil
		}
		fold(r, nil)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &models.FetchFailureError{Op: "ambil baris tindakan", Err: err}
	}

	for _, r := range buffered {
		fold(r, withOp)
	}

	for _, sep := range claimOrder {
		rows := claims[sep]
		base := make([]models.Tarif, len(rows))
		for i, cr := range rows {
			base[i] = cr.tarif
		}
		entry, _ := ms.Lookup(sep)
		for i, t := range entry.Override.Spread(base) {
			if rows[i].included {
				a.add(rows[i].row, t)
			}
		}
	}

	ag.Log.Debug("agregasi selesai",
		zap.String("jenis_rawat", string(f.JenisRawat)),
		zap.Int("baris", a.Lines),
		zap.Int("kunjungan", a.Visits()),
		zap.Int("klaim_override", len(claimOrder)),
		zap.String("match_set", a.MatchSet))
	return a, nil
}
