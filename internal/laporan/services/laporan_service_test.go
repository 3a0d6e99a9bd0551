package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/rekap-billing/internal/laporan/models"
)

func TestSummary_MayJune(t *testing.T) {
	svc, _ := newTestService(t, &fakeFetcher{rows: sampleRows()}, nil)

	r, err := svc.Summary(context.Background(), mayJuneParams())
	require.NoError(t, err)
	assertRp(t, 380000, r.DPJPTotal)
	assertRp(t, 50000, r.KonsulTotal)
	assertRp(t, 500000, r.GrandTotal)
}

func TestSummary_WithMatchSet(t *testing.T) {
	fetcher := &fakeFetcher{rows: sampleRows()}
	svc, _ := newTestService(t, fetcher, map[string]string{"klaim.csv": "no_sep\nSEP001\n"})

	p := mayJuneParams()
	p.Filename = "klaim.csv"
	r, err := svc.Summary(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "klaim.csv", r.MatchSet)
	assert.Equal(t, []string{"D001"}, kodes(r.DPJP))
	assertRp(t, 100000, r.DPJPTotal)
	assertRp(t, 50000, r.KonsulTotal)
	assertRp(t, 30000, r.LabTotal)
	assertRp(t, 40000, r.RadTotal)
	assertRp(t, 220000, r.GrandTotal)
}

func TestSummary_OverrideReplacesClaimTarif(t *testing.T) {
	svc, _ := newTestService(t, &fakeFetcher{rows: sampleRows()},
		map[string]string{"klaim.csv": "no_sep,tarif\nSEP002,1000\n"})

	p := mayJuneParams()
	p.Filename = "klaim.csv"
	r, err := svc.Detail(context.Background(), p)
	require.NoError(t, err)

	// tarif klaim SEP002 menjadi 1000, dibagi proporsional ke lima barisnya
	assertRp(t, 1000, r.GrandTotal)
	assert.True(t, decimal.RequireFromString("213.9").Equal(r.DPJPTotal), r.DPJPTotal.String())
	require.Len(t, r.RekapBulanan, 2)
	assert.True(t, r.RekapBulanan[0].Total.IsZero())
	assertRp(t, 1000, r.RekapBulanan[1].Total)

	sections := r.DPJPTotal.Add(r.DokterUmumTotal).Add(r.OperatorTotal).
		Add(r.AnestesiTotal).Add(r.KonsulAnastesiTotal)
	assertRp(t, 1000, sections)
}

func TestEmptyMatchSetEqualsNone(t *testing.T) {
	svc, _ := newTestService(t, &fakeFetcher{rows: sampleRows()}, map[string]string{"kosong.csv": ""})

	none, err := svc.Detail(context.Background(), mayJuneParams())
	require.NoError(t, err)

	p := mayJuneParams()
	p.Filename = "kosong.csv"
	empty, err := svc.Detail(context.Background(), p)
	require.NoError(t, err)

	a, _ := json.Marshal(none)
	b, _ := json.Marshal(empty)
	assert.JSONEq(t, string(a), string(b))
}

func TestDetail_Idempotent(t *testing.T) {
	svc, _ := newTestService(t, &fakeFetcher{rows: sampleRows()}, nil)

	first, err := svc.Detail(context.Background(), mayJuneParams())
	require.NoError(t, err)
	second, err := svc.Detail(context.Background(), mayJuneParams())
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
}

func TestDetail_SubFilters(t *testing.T) {
	svc, _ := newTestService(t, &fakeFetcher{rows: sampleRows()}, nil)
	ctx := context.Background()

	t.Run("konsulOnly", func(t *testing.T) {
		p := mayJuneParams()
		p.KonsulOnly = "true"
		r, err := svc.Detail(ctx, p)
		require.NoError(t, err)
		assert.Empty(t, r.DPJP)
		assert.Empty(t, r.Penunjang)
		assertRp(t, 50000, r.KonsulTotal)
		assertRp(t, 60000, r.KonsulAnastesiTotal)
		assertRp(t, 110000, r.GrandTotal)
	})

	t.Run("dokterUmum", func(t *testing.T) {
		p := mayJuneParams()
		p.DokterUmum = "true"
		r, err := svc.Detail(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, []string{"D009"}, kodes(r.DokterUmum))
		assertRp(t, 25000, r.GrandTotal)
	})

	t.Run("adaOperasi", func(t *testing.T) {
		p := mayJuneParams()
		p.AdaOperasi = "true"
		r, err := svc.Detail(ctx, p)
		require.NoError(t, err)
		assertRp(t, 935000, r.GrandTotal)
	})

	t.Run("kd_dokter DPJP", func(t *testing.T) {
		p := mayJuneParams()
		p.KdDokter = "D002"
		r, err := svc.Summary(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, []string{"D002"}, kodes(r.DPJP))
		assert.Empty(t, r.Konsul)
		assertRp(t, 80000, r.GrandTotal)
	})

	t.Run("search SEP", func(t *testing.T) {
		p := mayJuneParams()
		p.Search = "sep002"
		r, err := svc.Summary(ctx, p)
		require.NoError(t, err)
		assertRp(t, 200000, r.GrandTotal)
	})

	t.Run("satu bulan", func(t *testing.T) {
		p := mayJuneParams()
		p.DateTo = "2024-05-31"
		r, err := svc.Detail(ctx, p)
		require.NoError(t, err)
		require.Len(t, r.RekapBulanan, 1)
		assertRp(t, 300000, r.GrandTotal)
	})
}

func TestInvalidFilter_NoFetch(t *testing.T) {
	fetcher := &fakeFetcher{rows: sampleRows()}
	svc, _ := newTestService(t, fetcher, nil)

	p := mayJuneParams()
	p.DateFrom, p.DateTo = "2024-07-01", "2024-06-01"
	_, err := svc.Summary(context.Background(), p)
	assert.True(t, errors.Is(err, models.ErrInvalidFilter))

	_, err = svc.ListVisits(context.Background(), p)
	assert.True(t, errors.Is(err, models.ErrInvalidFilter))
	assert.Equal(t, 0, fetcher.streamCalls)
	assert.Equal(t, 0, fetcher.listCalls)
}

func TestMatchSetErrors(t *testing.T) {
	fetcher := &fakeFetcher{rows: sampleRows()}
	svc, _ := newTestService(t, fetcher, map[string]string{"rusak.csv": "no_sep,tarif\nSEP001,abc\n"})

	p := mayJuneParams()
	p.Filename = "tidak-ada.csv"
	_, err := svc.Detail(context.Background(), p)
	assert.True(t, errors.Is(err, models.ErrMatchSetNotFound))

	p.Filename = "rusak.csv"
	_, err = svc.Detail(context.Background(), p)
	assert.True(t, errors.Is(err, models.ErrMalformedMatchSet))
	assert.Equal(t, 0, fetcher.streamCalls)
}

func TestFetchFailure(t *testing.T) {
	boom := errors.New("server has gone away")
	svc, _ := newTestService(t, &fakeFetcher{err: boom}, nil)

	_, err := svc.Summary(context.Background(), mayJuneParams())
	assert.True(t, errors.Is(err, models.ErrFetchFailure))

	_, err = svc.ListVisits(context.Background(), mayJuneParams())
	assert.True(t, errors.Is(err, models.ErrFetchFailure))
	assert.True(t, errors.Is(err, boom))
}

func TestListVisits(t *testing.T) {
	fetcher := &fakeFetcher{rows: sampleRows()}
	svc, _ := newTestService(t, fetcher, map[string]string{"klaim.csv": "SEP002\nSEP001\n"})
	ctx := context.Background()

	t.Run("halaman pertama dengan totals", func(t *testing.T) {
		p := mayJuneParams()
		p.Limit = "1"
		p.IncludeTotals = "true"
		list, err := svc.ListVisits(ctx, p)
		require.NoError(t, err)

		assert.Equal(t, 3, list.Total)
		assert.Equal(t, 1, list.Limit)
		require.Len(t, list.Data, 1)
		assert.Equal(t, "R2", list.Data[0].NoRawat)
		require.NotNil(t, list.Totals)
		assertRp(t, 500000, list.Totals.GrandTotal)
		assert.Nil(t, fetcher.lastSeps)
	})

	t.Run("tanpa totals", func(t *testing.T) {
		list, err := svc.ListVisits(ctx, mayJuneParams())
		require.NoError(t, err)
		assert.Len(t, list.Data, 3)
		assert.Nil(t, list.Totals)
	})

	t.Run("offset melewati data", func(t *testing.T) {
		p := mayJuneParams()
		p.Offset = "10"
		list, err := svc.ListVisits(ctx, p)
		require.NoError(t, err)
		assert.NotNil(t, list.Data)
		assert.Empty(t, list.Data)
		assert.Equal(t, 3, list.Total)
	})

	t.Run("konsulOnly sama dengan totals", func(t *testing.T) {
		p := mayJuneParams()
		p.KonsulOnly = "true"
		p.IncludeTotals = "true"
		list, err := svc.ListVisits(ctx, p)
		require.NoError(t, err)

		// R3 tidak punya baris konsul
		assert.Equal(t, 2, list.Total)
		got := []string{}
		for _, v := range list.Data {
			got = append(got, v.NoRawat)
		}
		assert.ElementsMatch(t, []string{"R1", "R2"}, got)
		require.NotNil(t, list.Totals)
		assertRp(t, 50000, list.Totals.KonsulTotal)
		assert.True(t, list.Totals.DPJPTotal.IsZero())
	})

	t.Run("match-set", func(t *testing.T) {
		p := mayJuneParams()
		p.Filename = "klaim.csv"
		list, err := svc.ListVisits(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, []string{"SEP001", "SEP002"}, fetcher.lastSeps)
		assert.Equal(t, 2, list.Total)
	})
}

func TestUploadMatchSet(t *testing.T) {
	svc, notifier := newTestService(t, &fakeFetcher{rows: sampleRows()}, nil)
	ctx := context.Background()

	name, n, err := svc.UploadMatchSet(ctx, "../../etc/klaim.csv", []byte("no_sep\nSEP001\nSEP002\n"))
	require.NoError(t, err)
	assert.Equal(t, "klaim.csv", name)
	assert.Equal(t, 2, n)

	dir := svc.Source.(*DirMatchSetSource).Dir
	_, statErr := os.Stat(filepath.Join(dir, "klaim.csv"))
	assert.NoError(t, statErr)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "matchset_uploaded", notifier.events[0].Type)

	p := mayJuneParams()
	p.Filename = name
	r, err := svc.Summary(ctx, p)
	require.NoError(t, err)
	assertRp(t, 420000, r.GrandTotal)

	_, _, err = svc.UploadMatchSet(ctx, "rusak.csv", []byte("no_sep,tarif\nSEP001,x\n"))
	assert.True(t, errors.Is(err, models.ErrMalformedMatchSet))
	assert.Len(t, notifier.events, 1)

	name, _, err = svc.UploadMatchSet(ctx, "", []byte("SEP001\n"))
	require.NoError(t, err)
	assert.Equal(t, ".csv", filepath.Ext(name))
}
