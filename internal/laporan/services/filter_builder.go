package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/c14220110/rekap-billing/internal/laporan/models"
)

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// FilterBuilder menormalisasi parameter query menjadi FilterDescriptor.
type FilterBuilder struct {
	Loc *time.Location
	Now func() time.Time
}

func NewFilterBuilder(loc *time.Location) *FilterBuilder {
	if loc == nil {
		loc = time.Local
	}
	return &FilterBuilder{Loc: loc, Now: time.Now}
}

// Build memvalidasi p. Rentang tanggal default adalah bulan kalender berjalan.
func (b *FilterBuilder) Build(p models.FilterParams) (models.FilterDescriptor, error) {
	f := models.FilterDescriptor{
		JenisRawat:   p.JenisRawat,
		Search:       strings.ToLower(strings.TrimSpace(p.Search)),
		KdDokter:     strings.TrimSpace(p.KdDokter),
		KdPoli:       strings.TrimSpace(p.KdPoli),
		KdBangsal:    strings.TrimSpace(p.KdBangsal),
		MatchSetName: strings.TrimSpace(p.Filename),
	}

	switch f.JenisRawat {
	case models.Ralan:
		if f.KdBangsal != "" {
			return f, invalid("kd_bangsal", "hanya berlaku untuk rawat inap")
		}
	case models.Ranap:
		if f.KdPoli != "" {
			return f, invalid("kd_poli", "hanya berlaku untuk rawat jalan")
		}
	default:
		return f, invalid("jenis_rawat", "harus Ralan atau Ranap")
	}

	var err error
	if f.DateFrom, f.DateTo, err = b.dateRange(p.DateFrom, p.DateTo); err != nil {
		return f, err
	}

	if f.DokterUmumOnly, err = parseBool("dokterUmum", p.DokterUmum); err != nil {
		return f, err
	}
	if f.AdaOperasi, err = parseBool("adaOperasi", p.AdaOperasi); err != nil {
		return f, err
	}
	if f.KonsulOnly, err = parseBool("konsulOnly", p.KonsulOnly); err != nil {
		return f, err
	}
	if f.IncludeTotals, err = parseBool("includeTotals", p.IncludeTotals); err != nil {
		return f, err
	}

	f.Limit = DefaultLimit
	if s := strings.TrimSpace(p.Limit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return f, invalid("limit", "harus berupa angka")
		}
		if n < 1 || n > MaxLimit {
			return f, invalid("limit", "harus di antara 1 dan 1000")
		}
		f.Limit = n
	}
	if s := strings.TrimSpace(p.Offset); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return f, invalid("offset", "harus berupa angka")
		}
		if n < 0 {
			return f, invalid("offset", "tidak boleh negatif")
		}
		f.Offset = n
	}

	return f, nil
}

func (b *FilterBuilder) dateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	fromStr, toStr = strings.TrimSpace(fromStr), strings.TrimSpace(toStr)

	var from, to time.Time
	var err error
	if fromStr != "" {
		if from, err = b.parseDate(fromStr); err != nil {
			return from, to, invalid("dateFrom", "format tanggal harus YYYY-MM-DD atau DD/MM/YYYY")
		}
	}
	if toStr != "" {
		if to, err = b.parseDate(toStr); err != nil {
			return from, to, invalid("dateTo", "format tanggal harus YYYY-MM-DD atau DD/MM/YYYY")
		}
	}

	switch {
	case fromStr == "" && toStr == "":
		from = startOfMonth(b.Now().In(b.Loc))
		to = startOfMonth(from).AddDate(0, 1, -1)
	case toStr == "":
		to = startOfMonth(from).AddDate(0, 1, -1)
	case fromStr == "":
		from = startOfMonth(to)
	}

	if from.After(to) {
		return from, to, invalid("dateFrom", "tidak boleh setelah dateTo")
	}
	// akhir rentang adalah detik terakhir hari itu, termasuk pecahannya
	to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999999999, to.Location())
	return from, to, nil
}

func (b *FilterBuilder) parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, b.Loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func parseBool(field, s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, invalid(field, "harus true atau false")
	}
	return v, nil
}

func invalid(field, reason string) error {
	return &models.InvalidFilterError{Field: field, Reason: reason}
}
