package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/rekap-billing/internal/laporan/models"
)

func TestAssemblerSummary(t *testing.T) {
	r := Assembler{}.Summary(aggregate(t, mayJuneFilter(), nil, sampleRows()))

	assert.Equal(t, models.Periode{DateFrom: "2024-05-01", DateTo: "2024-06-30"}, r.Periode)
	assert.Equal(t, []string{"D001", "D002"}, kodes(r.DPJP))
	assertRp(t, 380000, r.DPJPTotal)
	assert.Equal(t, []string{"D002"}, kodes(r.Konsul))
	assertRp(t, 50000, r.KonsulTotal)
	assertRp(t, 30000, r.LabTotal)
	assertRp(t, 40000, r.RadTotal)
	assertRp(t, 500000, r.GrandTotal)
	assert.NoError(t, CheckSummary(r))
}

func TestAssemblerDetail(t *testing.T) {
	r := Assembler{}.Detail(aggregate(t, mayJuneFilter(), nil, sampleRows()))

	assertRp(t, 380000, r.DPJPTotal)
	assertRp(t, 50000, r.KonsulTotal)
	assertRp(t, 25000, r.DokterUmumTotal)
	assertRp(t, 500000, r.OperatorTotal)
	assertRp(t, 70000, r.PenunjangTotal)
	assertRp(t, 60000, r.KonsulAnastesiTotal)
	assertRp(t, 150000, r.AnestesiTotal)
	assertRp(t, 1235000, r.GrandTotal)

	require.Len(t, r.RekapBulanan, 2)
	assert.Equal(t, "2024-05", r.RekapBulanan[0].Kode)
	assert.Equal(t, "Mei 2024", r.RekapBulanan[0].Nama)
	assertRp(t, 300000, r.RekapBulanan[0].Total)
	assert.Equal(t, "Juni 2024", r.RekapBulanan[1].Nama)
	assertRp(t, 935000, r.RekapBulanan[1].Total)

	assert.NoError(t, CheckDetail(r))
}

func TestAssemblerDetail_MonthsWithoutData(t *testing.T) {
	f, err := fixedBuilder().Build(models.FilterParams{
		JenisRawat: models.Ralan, DateFrom: "2024-03-01", DateTo: "2024-07-31",
	})
	require.NoError(t, err)
	r := Assembler{}.Detail(aggregate(t, f, nil, sampleRows()))

	require.Equal(t, []string{"2024-03", "2024-04", "2024-05", "2024-06", "2024-07"}, kodes(r.RekapBulanan))
	for _, i := range []int{0, 1, 4} {
		g := r.RekapBulanan[i]
		assert.True(t, g.Total.IsZero(), g.Kode)
		assert.Equal(t, 0, g.JumlahTindakan)
		assert.Equal(t, 0, g.JumlahKunjungan)
	}
	assert.Equal(t, "April 2024", r.RekapBulanan[1].Nama)
	assert.NoError(t, CheckDetail(r))
}

func TestAssembler_EmptyAggregation(t *testing.T) {
	a := aggregate(t, mayJuneFilter(), nil, nil)

	s := Assembler{}.Summary(a)
	assert.NotNil(t, s.DPJP)
	assert.Empty(t, s.DPJP)
	assert.True(t, s.GrandTotal.IsZero())

	d := Assembler{}.Detail(a)
	assert.Len(t, d.RekapBulanan, 2)
	assert.True(t, d.GrandTotal.IsZero())
	assert.NoError(t, CheckDetail(d))
}

func TestCheckDetail_DetectsMismatch(t *testing.T) {
	r := Assembler{}.Detail(aggregate(t, mayJuneFilter(), nil, sampleRows()))

	broken := r
	broken.GrandTotal = r.GrandTotal.Add(decimal.NewFromInt(1))
	assert.Error(t, CheckDetail(broken))

	broken = r
	broken.LabTotal = decimal.Zero
	assert.Error(t, CheckDetail(broken))

	broken = r
	broken.RekapBulanan = r.RekapBulanan[:1]
	assert.Error(t, CheckDetail(broken))

	s := Assembler{}.Summary(aggregate(t, mayJuneFilter(), nil, sampleRows()))
	s.KonsulTotal = decimal.Zero
	assert.Error(t, CheckSummary(s))
}
