package models

import (
	"strings"
	"time"
)

// FilterParams adalah parameter mentah dari query string.
type FilterParams struct {
	JenisRawat    JenisRawat `query:"-"`
	Search        string     `query:"search"`
	DateFrom      string     `query:"dateFrom"`
	DateTo        string     `query:"dateTo"`
	KdDokter      string     `query:"kd_dokter"`
	KdPoli        string     `query:"kd_poli"`
	KdBangsal     string     `query:"kd_bangsal"`
	Filename      string     `query:"filename"`
	DokterUmum    string     `query:"dokterUmum"`
	AdaOperasi    string     `query:"adaOperasi"`
	KonsulOnly    string     `query:"konsulOnly"`
	Limit         string     `query:"limit"`
	Offset        string     `query:"offset"`
	IncludeTotals string     `query:"includeTotals"`
}

// FilterDescriptor adalah filter yang sudah dinormalisasi. Dibuat sekali per request
// dan selalu diteruskan sebagai nilai.
type FilterDescriptor struct {
	JenisRawat JenisRawat
	DateFrom   time.Time
	DateTo     time.Time
	// Search sudah di-trim dan lowercase; kosong berarti tanpa pencarian.
	Search       string
	KdDokter     string
	KdPoli       string
	KdBangsal    string
	MatchSetName string

	DokterUmumOnly bool
	AdaOperasi     bool
	KonsulOnly     bool

	Limit         int
	Offset        int
	IncludeTotals bool
}

// MatchVisit menerapkan filter tingkat kunjungan (jenis rawat, tanggal, dokter, unit, pencarian).
func (f FilterDescriptor) MatchVisit(v VisitRecord) bool {
	if f.JenisRawat != "" && v.JenisRawat != f.JenisRawat {
		return false
	}
	if v.TglKunjungan.Before(f.DateFrom) || v.TglKunjungan.After(f.DateTo) {
		return false
	}
	if f.KdDokter != "" && v.KdDokter != f.KdDokter {
		return false
	}
	if f.KdPoli != "" && v.KdPoli != f.KdPoli {
		return false
	}
	if f.KdBangsal != "" && v.KdBangsal != f.KdBangsal {
		return false
	}
	if f.Search != "" && !f.matchSearch(v) {
		return false
	}
	return true
}

func (f FilterDescriptor) matchSearch(v VisitRecord) bool {
	for _, field := range []string{v.NmPasien, v.NoRkmMedis, v.NoRawat, v.NoSEP} {
		if strings.Contains(strings.ToLower(field), f.Search) {
			return true
		}
	}
	return false
}

// MatchLine menerapkan sub-filter tingkat baris tindakan.
func (f FilterDescriptor) MatchLine(l ProcedureLine) bool {
	if f.DokterUmumOnly && !l.DokterUmum {
		return false
	}
	if f.KonsulOnly && l.Kategori != KategoriKonsul && l.Kategori != KategoriKonsulAnestesi {
		return false
	}
	return true
}

// Months mengembalikan hari pertama setiap bulan kalender dalam [DateFrom, DateTo].
func (f FilterDescriptor) Months() []time.Time {
	if f.DateTo.Before(f.DateFrom) {
		return nil
	}
	loc := f.DateFrom.Location()
	cur := time.Date(f.DateFrom.Year(), f.DateFrom.Month(), 1, 0, 0, 0, 0, loc)
	end := f.DateTo.In(loc)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, loc)

	var months []time.Time
	for !cur.After(last) {
		months = append(months, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// MonthKey adalah kunci grup bulanan "YYYY-MM" dalam zona waktu filter.
func (f FilterDescriptor) MonthKey(t time.Time) string {
	return t.In(f.DateFrom.Location()).Format("2006-01")
}
