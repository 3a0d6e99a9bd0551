package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JenisRawat membedakan kunjungan rawat jalan dan rawat inap.
type JenisRawat string

const (
	Ralan JenisRawat = "Ralan"
	Ranap JenisRawat = "Ranap"
)

// Kategori tindakan menentukan ke bagian laporan mana sebuah baris masuk.
type Kategori string

const (
	KategoriTindakan       Kategori = "tindakan"
	KategoriKonsul         Kategori = "konsul"
	KategoriOperasi        Kategori = "operasi"
	KategoriAnestesi       Kategori = "anestesi"
	KategoriKonsulAnestesi Kategori = "konsul_anestesi"
	KategoriLab            Kategori = "lab"
	KategoriRadiologi      Kategori = "radiologi"
)

// Penunjang true untuk baris laboratorium dan radiologi.
func (k Kategori) Penunjang() bool {
	return k == KategoriLab || k == KategoriRadiologi
}

// VisitRecord adalah satu baris reg_periksa beserta data pasien, unit dan SEP-nya.
type VisitRecord struct {
	NoRawat      string     `json:"no_rawat"`
	NoRkmMedis   string     `json:"no_rkm_medis"`
	NmPasien     string     `json:"nm_pasien"`
	TglKunjungan time.Time  `json:"tgl_kunjungan"`
	JenisRawat   JenisRawat `json:"jenis_rawat"`
	KdDokter     string     `json:"kd_dokter"`
	NmDokter     string     `json:"nm_dokter"`
	KdPoli       string     `json:"kd_poli"`
	KdBangsal    string     `json:"kd_bangsal"`
	NmUnit       string     `json:"nm_unit"`
	NoSEP        string     `json:"no_sep"`
}

// ProcedureLine adalah satu tindakan/pemeriksaan milik sebuah kunjungan.
// Komponen tarif boleh NULL; NULL selalu dihitung nol.
type ProcedureLine struct {
	NoRawat     string   `json:"no_rawat"`
	KdJenisPrw  string   `json:"kd_jenis_prw"`
	NmPerawatan string   `json:"nm_perawatan"`
	Kategori    Kategori `json:"kategori"`
	// KdPenunjang adalah sub-kategori penunjang (PK, PA, MB, RAD, ...).
	KdPenunjang string `json:"kd_penunjang"`
	NmPenunjang string `json:"nm_penunjang"`
	KdDokter    string `json:"kd_dokter"`
	NmDokter    string `json:"nm_dokter"`
	DokterUmum  bool   `json:"dokter_umum"`

	Material        decimal.NullDecimal `json:"material"`
	BHP             decimal.NullDecimal `json:"bhp"`
	TarifTindakanDr decimal.NullDecimal `json:"tarif_tindakandr"`
	TarifTindakanPr decimal.NullDecimal `json:"tarif_tindakanpr"`
	KSO             decimal.NullDecimal `json:"kso"`
	Menejemen       decimal.NullDecimal `json:"menejemen"`
	BiayaRawat      decimal.NullDecimal `json:"biaya_rawat"`
}

// Tarif mengembalikan komponen tarif baris dengan NULL sebagai nol, dibulatkan 2 desimal.
func (l ProcedureLine) Tarif() Tarif {
	return Tarif{
		Material:        orZero(l.Material),
		BHP:             orZero(l.BHP),
		TarifTindakanDr: orZero(l.TarifTindakanDr),
		TarifTindakanPr: orZero(l.TarifTindakanPr),
		KSO:             orZero(l.KSO),
		Menejemen:       orZero(l.Menejemen),
		Total:           orZero(l.BiayaRawat),
	}
}

// Row adalah pasangan kunjungan + tindakan sebagaimana dikirim Record Fetcher.
type Row struct {
	Visit VisitRecord
	Line  ProcedureLine
}
