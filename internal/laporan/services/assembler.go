package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/c14220110/rekap-billing/internal/laporan/models"
)

var namaBulan = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

func labelBulan(t time.Time) string {
	return fmt.Sprintf("%s %d", namaBulan[t.Month()-1], t.Year())
}

// Assembler menyusun DTO laporan dari hasil agregasi. Total seksi selalu dijumlahkan dari
// grupnya sendiri, bukan dihitung ulang dari baris mentah.
type Assembler struct{}

func sumTotal(groups []models.AggregationGroup) decimal.Decimal {
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.Total)
	}
	return total
}

func periode(f models.FilterDescriptor) models.Periode {
	return models.Periode{
		DateFrom: f.DateFrom.Format("2006-01-02"),
		DateTo:   f.DateTo.Format("2006-01-02"),
	}
}

// Summary: grandTotal = dpjp + konsul + lab + rad.
func (Assembler) Summary(a *Aggregation) models.SummaryReport {
	r := models.SummaryReport{
		Periode:  periode(a.Filter),
		MatchSet: a.MatchSet,
		DPJP:     a.Section(BagianDPJP),
		Konsul:   a.Section(BagianKonsul),
		LabTotal: a.LabTotal(),
		RadTotal: a.RadTotal(),
	}
	r.DPJPTotal = sumTotal(r.DPJP)
	r.KonsulTotal = sumTotal(r.Konsul)
	r.GrandTotal = r.DPJPTotal.Add(r.KonsulTotal).Add(r.LabTotal).Add(r.RadTotal)
	return r
}

// Detail: grandTotal = jumlah total ketujuh seksi. labTotal dan radTotal adalah
// rincian penunjangTotal dan tidak dijumlahkan lagi.
func (Assembler) Detail(a *Aggregation) models.DetailReport {
	r := models.DetailReport{
		Periode:        periode(a.Filter),
		MatchSet:       a.MatchSet,
		DPJP:           a.Section(BagianDPJP),
		Konsul:         a.Section(BagianKonsul),
		DokterUmum:     a.Section(BagianDokterUmum),
		Operator:       a.Section(BagianOperator),
		Penunjang:      a.Section(BagianPenunjang),
		LabTotal:       a.LabTotal(),
		RadTotal:       a.RadTotal(),
		KonsulAnastesi: a.Section(BagianKonsulAnestesi),
		Anestesi:       a.Section(BagianAnestesi),
		RekapBulanan:   rekapBulanan(a),
	}
	r.DPJPTotal = sumTotal(r.DPJP)
	r.KonsulTotal = sumTotal(r.Konsul)
	r.DokterUmumTotal = sumTotal(r.DokterUmum)
	r.OperatorTotal = sumTotal(r.Operator)
	r.PenunjangTotal = sumTotal(r.Penunjang)
	r.KonsulAnastesiTotal = sumTotal(r.KonsulAnastesi)
	r.AnestesiTotal = sumTotal(r.Anestesi)
	r.GrandTotal = r.DPJPTotal.
		Add(r.KonsulTotal).
		Add(r.DokterUmumTotal).
		Add(r.OperatorTotal).
		Add(r.PenunjangTotal).
		Add(r.KonsulAnastesiTotal).
		Add(r.AnestesiTotal)
	return r
}

// rekapBulanan berisi tepat satu entri per bulan kalender dalam periode filter,
// termasuk bulan tanpa data.
func rekapBulanan(a *Aggregation) []models.AggregationGroup {
	months := a.Filter.Months()
	out := make([]models.AggregationGroup, 0, len(months))
	for _, m := range months {
		key := m.Format("2006-01")
		g, ok := a.Month(key)
		if !ok {
			g = models.AggregationGroup{Kode: key}
		}
		g.Nama = labelBulan(m)
		out = append(out, g)
	}
	return out
}

// CheckSummary memeriksa invarian total laporan ringkas.
func CheckSummary(r models.SummaryReport) error {
	if err := checkSection("dpjp", r.DPJP, r.DPJPTotal); err != nil {
		return err
	}
	if err := checkSection("konsul", r.Konsul, r.KonsulTotal); err != nil {
		return err
	}
	want := r.DPJPTotal.Add(r.KonsulTotal).Add(r.LabTotal).Add(r.RadTotal)
	if !r.GrandTotal.Equal(want) {
		return fmt.Errorf("grandTotal %s tidak sama dengan jumlah seksi %s", r.GrandTotal, want)
	}
	return nil
}

// CheckDetail memeriksa invarian total laporan rinci, termasuk rekapBulanan.
func CheckDetail(r models.DetailReport) error {
	sections := []struct {
		name   string
		groups []models.AggregationGroup
		total  decimal.Decimal
	}{
		{"dpjp", r.DPJP, r.DPJPTotal},
		{"konsul", r.Konsul, r.KonsulTotal},
		{"dokterUmum", r.DokterUmum, r.DokterUmumTotal},
		{"operator", r.Operator, r.OperatorTotal},
		{"penunjang", r.Penunjang, r.PenunjangTotal},
		{"konsulAnastesi", r.KonsulAnastesi, r.KonsulAnastesiTotal},
		{"anestesi", r.Anestesi, r.AnestesiTotal},
	}
	sum := decimal.Zero
	for _, s := range sections {
		if err := checkSection(s.name, s.groups, s.total); err != nil {
			return err
		}
		sum = sum.Add(s.total)
	}
	if !r.GrandTotal.Equal(sum) {
		return fmt.Errorf("grandTotal %s tidak sama dengan jumlah seksi %s", r.GrandTotal, sum)
	}
	if pen := r.LabTotal.Add(r.RadTotal); !pen.Equal(r.PenunjangTotal) {
		return fmt.Errorf("labTotal + radTotal %s tidak sama dengan penunjangTotal %s", pen, r.PenunjangTotal)
	}
	if bulanan := sumTotal(r.RekapBulanan); !bulanan.Equal(r.GrandTotal) {
		return fmt.Errorf("total rekapBulanan %s tidak sama dengan grandTotal %s", bulanan, r.GrandTotal)
	}
	return nil
}

func checkSection(name string, groups []models.AggregationGroup, total decimal.Decimal) error {
	if got := sumTotal(groups); !got.Equal(total) {
		return fmt.Errorf("total seksi %s %s tidak sama dengan jumlah grup %s", name, total, got)
	}
	return nil
}
