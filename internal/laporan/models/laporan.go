package models

import "github.com/shopspring/decimal"

// AggregationGroup adalah satu baris rekap: per dokter, per kategori penunjang, atau per bulan.
type AggregationGroup struct {
	Kode            string `json:"kode"`
	Nama            string `json:"nama"`
	JumlahTindakan  int    `json:"jumlahTindakan"`
	JumlahKunjungan int    `json:"jumlahKunjungan"`
	Tarif
}

type Periode struct {
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}

// SummaryReport adalah bentuk rekap ringkas.
type SummaryReport struct {
	Periode     Periode            `json:"periode"`
	MatchSet    string             `json:"matchSet"`
	DPJP        []AggregationGroup `json:"dpjp"`
	DPJPTotal   decimal.Decimal    `json:"dpjpTotal"`
	Konsul      []AggregationGroup `json:"konsul"`
	KonsulTotal decimal.Decimal    `json:"konsulTotal"`
	LabTotal    decimal.Decimal    `json:"labTotal"`
	RadTotal    decimal.Decimal    `json:"radTotal"`
	GrandTotal  decimal.Decimal    `json:"grandTotal"`
}

// DetailReport adalah rekap bulanan lengkap.
type DetailReport struct {
	Periode             Periode            `json:"periode"`
	MatchSet            string             `json:"matchSet"`
	DPJP                []AggregationGroup `json:"dpjp"`
	DPJPTotal           decimal.Decimal    `json:"dpjpTotal"`
	Konsul              []AggregationGroup `json:"konsul"`
	KonsulTotal         decimal.Decimal    `json:"konsulTotal"`
	DokterUmum          []AggregationGroup `json:"dokterUmum"`
	DokterUmumTotal     decimal.Decimal    `json:"dokterUmumTotal"`
	Operator            []AggregationGroup `json:"operator"`
	OperatorTotal       decimal.Decimal    `json:"operatorTotal"`
	Penunjang           []AggregationGroup `json:"penunjang"`
	PenunjangTotal      decimal.Decimal    `json:"penunjangTotal"`
	LabTotal            decimal.Decimal    `json:"labTotal"`
	RadTotal            decimal.Decimal    `json:"radTotal"`
	KonsulAnastesi      []AggregationGroup `json:"konsulAnastesi"`
	KonsulAnastesiTotal decimal.Decimal    `json:"konsulAnastesiTotal"`
	Anestesi            []AggregationGroup `json:"anestesi"`
	AnestesiTotal       decimal.Decimal    `json:"anestesiTotal"`
	RekapBulanan        []AggregationGroup `json:"rekapBulanan"`
	GrandTotal          decimal.Decimal    `json:"grandTotal"`
}

// KunjunganList adalah hasil listing kunjungan dengan paginasi.
// Totals hanya diisi bila includeTotals diminta.
type KunjunganList struct {
	Data   []VisitRecord  `json:"data"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Totals *SummaryReport `json:"totals"`
}
