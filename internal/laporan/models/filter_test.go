package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*60*60)

func mayJune() FilterDescriptor {
	return FilterDescriptor{
		JenisRawat: Ralan,
		DateFrom:   time.Date(2024, 5, 1, 0, 0, 0, 0, wib),
		DateTo:     time.Date(2024, 6, 30, 23, 59, 59, 0, wib),
	}
}

func TestMatchVisit(t *testing.T) {
	f := mayJune()
	v := VisitRecord{
		NoRawat:      "2024/05/10/000001",
		NoRkmMedis:   "000123",
		NmPasien:     "Budi Santoso",
		TglKunjungan: time.Date(2024, 5, 10, 9, 0, 0, 0, wib),
		JenisRawat:   Ralan,
		KdDokter:     "D001",
		KdPoli:       "INT",
		NoSEP:        "0301R0010524V000001",
	}
	assert.True(t, f.MatchVisit(v))

	t.Run("jenis rawat", func(t *testing.T) {
		w := v
		w.JenisRawat = Ranap
		assert.False(t, f.MatchVisit(w))
	})
	t.Run("batas tanggal inklusif", func(t *testing.T) {
		w := v
		w.TglKunjungan = f.DateTo
		assert.True(t, f.MatchVisit(w))
		w.TglKunjungan = f.DateTo.Add(time.Second)
		assert.False(t, f.MatchVisit(w))
		w.TglKunjungan = f.DateFrom.Add(-time.Second)
		assert.False(t, f.MatchVisit(w))
	})
	t.Run("dokter dan poli", func(t *testing.T) {
		g := f
		g.KdDokter = "D002"
		assert.False(t, g.MatchVisit(v))
		g = f
		g.KdPoli = "INT"
		assert.True(t, g.MatchVisit(v))
		g.KdPoli = "ANA"
		assert.False(t, g.MatchVisit(v))
	})
	t.Run("search di beberapa kolom", func(t *testing.T) {
		for _, s := range []string{"budi", "000123", "2024/05/10", "v000001"} {
			g := f
			g.Search = s
			assert.True(t, g.MatchVisit(v), s)
		}
		g := f
		g.Search = "siti"
		assert.False(t, g.MatchVisit(v))
	})
}

func TestMatchLine(t *testing.T) {
	f := FilterDescriptor{}
	assert.True(t, f.MatchLine(ProcedureLine{Kategori: KategoriTindakan}))

	f.KonsulOnly = true
	assert.True(t, f.MatchLine(ProcedureLine{Kategori: KategoriKonsul}))
	assert.True(t, f.MatchLine(ProcedureLine{Kategori: KategoriKonsulAnestesi}))
	assert.False(t, f.MatchLine(ProcedureLine{Kategori: KategoriLab}))

	f = FilterDescriptor{DokterUmumOnly: true}
	assert.True(t, f.MatchLine(ProcedureLine{DokterUmum: true}))
	assert.False(t, f.MatchLine(ProcedureLine{}))
}

func TestMonths(t *testing.T) {
	f := FilterDescriptor{
		DateFrom: time.Date(2023, 11, 15, 0, 0, 0, 0, wib),
		DateTo:   time.Date(2024, 2, 3, 23, 59, 59, 0, wib),
	}
	months := f.Months()
	require.Len(t, months, 4)
	var keys []string
	for _, m := range months {
		keys = append(keys, m.Format("2006-01"))
	}
	assert.Equal(t, []string{"2023-11", "2023-12", "2024-01", "2024-02"}, keys)

	f.DateTo = f.DateFrom.Add(-time.Hour)
	assert.Empty(t, f.Months())
}

func TestMonthKey_UsesFilterZone(t *testing.T) {
	f := mayJune()
	// 31 Mei 20:00 UTC = 1 Juni 03:00 WIB
	utc := time.Date(2024, 5, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06", f.MonthKey(utc))
}

func TestMatchSetActive(t *testing.T) {
	var nilSet *MatchSet
	assert.False(t, nilSet.Active())
	assert.Equal(t, 0, nilSet.Len())

	ms := NewMatchSet("klaim.csv")
	assert.False(t, ms.Active())

	ms.Entries["SEP001"] = MatchSetEntry{NoSEP: "SEP001", Row: 2}
	assert.True(t, ms.Active())
	_, ok := ms.Lookup("SEP001")
	assert.True(t, ok)
	_, ok = ms.Lookup("")
	assert.False(t, ok)
}
