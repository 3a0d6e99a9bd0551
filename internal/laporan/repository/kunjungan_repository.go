package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/c14220110/rekap-billing/internal/laporan/models"
)

// KunjunganRepository membaca kunjungan dan tindakan dari database SIMRS (skema Khanza).
type KunjunganRepository struct {
	DB  *sqlx.DB
	Log *zap.Logger
}

func NewKunjunganRepository(db *sqlx.DB, log *zap.Logger) *KunjunganRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &KunjunganRepository{DB: db, Log: log}
}

const visitSelect = `
	SELECT rp.no_rawat, rp.no_rkm_medis, p.nm_pasien,
		TIMESTAMP(rp.tgl_registrasi, rp.jam_reg) AS tgl_kunjungan,
		rp.status_lanjut AS jenis_rawat,
		rp.kd_dokter, COALESCE(d.nm_dokter, '') AS nm_dokter,
		%s,
		bs.no_sep
	FROM reg_periksa rp
	JOIN pasien p ON rp.no_rkm_medis = p.no_rkm_medis
	LEFT JOIN dokter d ON rp.kd_dokter = d.kd_dokter
	LEFT JOIN (SELECT no_rawat, MAX(no_sep) AS no_sep FROM bridging_sep GROUP BY no_rawat) bs
		ON bs.no_rawat = rp.no_rawat
	%s`

const ralanUnit = `rp.kd_poli AS kd_poli, NULL AS kd_bangsal, pl.nm_poli AS nm_unit`

const ralanJoin = `LEFT JOIN poliklinik pl ON rp.kd_poli = pl.kd_poli`

const ranapUnit = `NULL AS kd_poli, ki.kd_bangsal AS kd_bangsal, b.nm_bangsal AS nm_unit`

const ranapJoin = `LEFT JOIN (SELECT kamar_inap.no_rawat, MAX(kamar.kd_bangsal) AS kd_bangsal
		FROM kamar_inap JOIN kamar ON kamar_inap.kd_kamar = kamar.kd_kamar
		GROUP BY kamar_inap.no_rawat) ki ON ki.no_rawat = rp.no_rawat
	LEFT JOIN bangsal b ON ki.kd_bangsal = b.kd_bangsal`

// tindakanSelect dipakai untuk rawat_jl_dr/drpr dan rawat_inap_dr/drpr. Tabel *_dr tidak
// punya kolom tarif_tindakanpr, sehingga kolom itu diisi lewat parameter format.
const tindakanSelect = `
	SELECT t.no_rawat, t.kd_jenis_prw, jp.nm_perawatan,
		CASE WHEN LOWER(jp.nm_perawatan) LIKE '%%konsul%%anest%%' THEN 'konsul_anestesi'
			WHEN LOWER(jp.nm_perawatan) LIKE '%%konsul%%' THEN 'konsul'
			ELSE 'tindakan' END AS kategori,
		'' AS kd_penunjang, '' AS nm_penunjang,
		t.kd_dokter AS kd_dokter_tindakan, d.nm_dokter AS nm_dokter_tindakan,
		(LOWER(COALESCE(sp.nm_sps, '')) LIKE '%%umum%%') AS dokter_umum,
		t.material, t.bhp, t.tarif_tindakandr, %s AS tarif_tindakanpr, t.kso, t.menejemen, t.biaya_rawat,
		TIMESTAMP(t.tgl_perawatan, t.jam_rawat) AS waktu
	FROM %s t
	JOIN %s jp ON t.kd_jenis_prw = jp.kd_jenis_prw
	LEFT JOIN dokter d ON t.kd_dokter = d.kd_dokter
	LEFT JOIN spesialis sp ON d.kd_sps = sp.kd_sps`

const penunjangSelect = `
	SELECT pl.no_rawat, pl.kd_jenis_prw, jl.nm_perawatan, 'lab' AS kategori,
		pl.kategori AS kd_penunjang,
		CASE pl.kategori WHEN 'PK' THEN 'Patologi Klinis' WHEN 'PA' THEN 'Patologi Anatomi'
			WHEN 'MB' THEN 'Mikrobiologi' ELSE pl.kategori END AS nm_penunjang,
		pl.kd_dokter, d.nm_dokter, (LOWER(COALESCE(sp.nm_sps, '')) LIKE '%umum%'),
		pl.bagian_rs, pl.bhp, pl.tarif_tindakan_dokter, pl.tarif_tindakan_petugas, pl.kso, pl.menejemen, pl.biaya,
		TIMESTAMP(pl.tgl_periksa, pl.jam)
	FROM periksa_lab pl
	JOIN jns_perawatan_lab jl ON pl.kd_jenis_prw = jl.kd_jenis_prw
	LEFT JOIN dokter d ON pl.kd_dokter = d.kd_dokter
	LEFT JOIN spesialis sp ON d.kd_sps = sp.kd_sps
	WHERE pl.status = ?
	UNION ALL
	SELECT pr.no_rawat, pr.kd_jenis_prw, jr.nm_perawatan, 'radiologi', 'RAD', 'Radiologi',
		pr.kd_dokter, d.nm_dokter, (LOWER(COALESCE(sp.nm_sps, '')) LIKE '%umum%'),
		pr.bagian_rs, pr.bhp, pr.tarif_tindakan_dokter, pr.tarif_tindakan_petugas, pr.kso, pr.menejemen, pr.biaya,
		TIMESTAMP(pr.tgl_periksa, pr.jam)
	FROM periksa_radiologi pr
	JOIN jns_perawatan_radiologi jr ON pr.kd_jenis_prw = jr.kd_jenis_prw
	LEFT JOIN dokter d ON pr.kd_dokter = d.kd_dokter
	LEFT JOIN spesialis sp ON d.kd_sps = sp.kd_sps
	WHERE pr.status = ?`

// operasiSelect memecah satu baris operasi menjadi jasa operator dan jasa dokter anestesi.
const operasiSelect = `
	SELECT o.no_rawat, o.kode_paket, po.nm_perawatan, 'operasi', '', '',
		o.operator1, d.nm_dokter, 0,
		NULL, NULL, o.biayaoperator1, NULL, NULL, NULL, o.biayaoperator1,
		o.tgl_operasi
	FROM operasi o
	JOIN paket_operasi po ON o.kode_paket = po.kode_paket
	LEFT JOIN dokter d ON o.operator1 = d.kd_dokter
	WHERE o.status = ?
	UNION ALL
	SELECT o.no_rawat, o.kode_paket, po.nm_perawatan, 'anestesi', '', '',
		o.dokter_anestesi, d.nm_dokter, 0,
		NULL, NULL, o.biayadokter_anestesi, NULL, NULL, NULL, o.biayadokter_anestesi,
		o.tgl_operasi
	FROM operasi o
	JOIN paket_operasi po ON o.kode_paket = po.kode_paket
	LEFT JOIN dokter d ON o.dokter_anestesi = d.kd_dokter
	WHERE o.status = ? AND o.dokter_anestesi <> '-'`

type tindakanTable struct {
	table   string
	master  string
	tarifPr string
}

// lineTables: tabel tindakan dan master jenis perawatan per jenis rawat.
var lineTables = map[models.JenisRawat][]tindakanTable{
	models.Ralan: {
		{"rawat_jl_dr", "jns_perawatan", "NULL"},
		{"rawat_jl_drpr", "jns_perawatan", "t.tarif_tindakanpr"},
	},
	models.Ranap: {
		{"rawat_inap_dr", "jns_perawatan_inap", "NULL"},
		{"rawat_inap_drpr", "jns_perawatan_inap", "t.tarif_tindakanpr"},
	},
}

func visitBase(jr models.JenisRawat) string {
	if jr == models.Ranap {
		return fmt.Sprintf(visitSelect, ranapUnit, ranapJoin)
	}
	return fmt.Sprintf(visitSelect, ralanUnit, ralanJoin)
}

func linesUnion(jr models.JenisRawat) (string, []interface{}) {
	var parts []string
	for _, t := range lineTables[jr] {
		parts = append(parts, fmt.Sprintf(tindakanSelect, t.tarifPr, t.table, t.master))
	}
	parts = append(parts, penunjangSelect, operasiSelect)
	status := string(jr)
	return strings.Join(parts, "\n\tUNION ALL\n"), []interface{}{status, status, status, status}
}

// visitWhere menyusun klausa WHERE tingkat kunjungan, sama dengan FilterDescriptor.MatchVisit.
// Sub-filter baris (dokterUmum, konsulOnly) menjadi EXISTS atas gabungan baris tindakan.
func visitWhere(f models.FilterDescriptor, seps []string) (string, []interface{}) {
	conds := []string{"rp.status_lanjut = ?", "TIMESTAMP(rp.tgl_registrasi, rp.jam_reg) BETWEEN ? AND ?"}
	args := []interface{}{string(f.JenisRawat), f.DateFrom, f.DateTo}

	if f.KdDokter != "" {
		conds = append(conds, "rp.kd_dokter = ?")
		args = append(args, f.KdDokter)
	}
	if f.KdPoli != "" {
		conds = append(conds, "rp.kd_poli = ?")
		args = append(args, f.KdPoli)
	}
	if f.KdBangsal != "" {
		conds = append(conds, "ki.kd_bangsal = ?")
		args = append(args, f.KdBangsal)
	}
	if f.Search != "" {
		like := "%" + escapeLike(f.Search) + "%"
		conds = append(conds, `(LOWER(p.nm_pasien) LIKE ? OR LOWER(rp.no_rkm_medis) LIKE ?
			OR LOWER(rp.no_rawat) LIKE ? OR LOWER(bs.no_sep) LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	if f.AdaOperasi {
		conds = append(conds, "EXISTS (SELECT 1 FROM operasi o WHERE o.no_rawat = rp.no_rawat)")
	}
	if f.DokterUmumOnly || f.KonsulOnly {
		// sama dengan FilterDescriptor.MatchLine: minimal satu baris tindakan lolos
		lines, lineArgs := linesUnion(f.JenisRawat)
		lineConds := []string{"l.no_rawat = rp.no_rawat"}
		if f.DokterUmumOnly {
			lineConds = append(lineConds, "l.dokter_umum = 1")
		}
		if f.KonsulOnly {
			lineConds = append(lineConds, fmt.Sprintf("l.kategori IN ('%s', '%s')",
				models.KategoriKonsul, models.KategoriKonsulAnestesi))
		}
		conds = append(conds, "EXISTS (SELECT 1 FROM ("+lines+") l WHERE "+strings.Join(lineConds, " AND ")+")")
		args = append(args, lineArgs...)
	}
	if seps != nil {
		conds = append(conds, "bs.no_sep IN (?)")
		args = append(args, seps)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type visitScan struct {
	NoRawat      string         `db:"no_rawat"`
	NoRkmMedis   string         `db:"no_rkm_medis"`
	NmPasien     string         `db:"nm_pasien"`
	TglKunjungan time.Time      `db:"tgl_kunjungan"`
	JenisRawat   string         `db:"jenis_rawat"`
	KdDokter     string         `db:"kd_dokter"`
	NmDokter     string         `db:"nm_dokter"`
	KdPoli       sql.NullString `db:"kd_poli"`
	KdBangsal    sql.NullString `db:"kd_bangsal"`
	NmUnit       sql.NullString `db:"nm_unit"`
	NoSEP        sql.NullString `db:"no_sep"`
}

func (v visitScan) record() models.VisitRecord {
	return models.VisitRecord{
		NoRawat:      v.NoRawat,
		NoRkmMedis:   v.NoRkmMedis,
		NmPasien:     v.NmPasien,
		TglKunjungan: v.TglKunjungan,
		JenisRawat:   models.JenisRawat(v.JenisRawat),
		KdDokter:     v.KdDokter,
		NmDokter:     v.NmDokter,
		KdPoli:       v.KdPoli.String,
		KdBangsal:    v.KdBangsal.String,
		NmUnit:       v.NmUnit.String,
		NoSEP:        strings.TrimSpace(v.NoSEP.String),
	}
}

type rowScan struct {
	visitScan
	KdJenisPrw       string              `db:"kd_jenis_prw"`
	NmPerawatan      sql.NullString      `db:"nm_perawatan"`
	Kategori         string              `db:"kategori"`
	KdPenunjang      sql.NullString      `db:"kd_penunjang"`
	NmPenunjang      sql.NullString      `db:"nm_penunjang"`
	KdDokterTindakan sql.NullString      `db:"kd_dokter_tindakan"`
	NmDokterTindakan sql.NullString      `db:"nm_dokter_tindakan"`
	DokterUmum       bool                `db:"dokter_umum"`
	Material         decimal.NullDecimal `db:"material"`
	BHP              decimal.NullDecimal `db:"bhp"`
	TarifTindakanDr  decimal.NullDecimal `db:"tarif_tindakandr"`
	TarifTindakanPr  decimal.NullDecimal `db:"tarif_tindakanpr"`
	KSO              decimal.NullDecimal `db:"kso"`
	Menejemen        decimal.NullDecimal `db:"menejemen"`
	BiayaRawat       decimal.NullDecimal `db:"biaya_rawat"`
}

func (r rowScan) row() models.Row {
	return models.Row{
		Visit: r.visitScan.record(),
		Line: models.ProcedureLine{
			NoRawat:         r.NoRawat,
			KdJenisPrw:      r.KdJenisPrw,
			NmPerawatan:     r.NmPerawatan.String,
			Kategori:        models.Kategori(r.Kategori),
			KdPenunjang:     r.KdPenunjang.String,
			NmPenunjang:     r.NmPenunjang.String,
			KdDokter:        r.KdDokterTindakan.String,
			NmDokter:        r.NmDokterTindakan.String,
			DokterUmum:      r.DokterUmum,
			Material:        r.Material,
			BHP:             r.BHP,
			TarifTindakanDr: r.TarifTindakanDr,
			TarifTindakanPr: r.TarifTindakanPr,
			KSO:             r.KSO,
			Menejemen:       r.Menejemen,
			BiayaRawat:      r.BiayaRawat,
		},
	}
}

// ListVisits mengembalikan satu halaman kunjungan (terbaru dulu) beserta jumlah totalnya.
func (r *KunjunganRepository) ListVisits(ctx context.Context, f models.FilterDescriptor, seps []string) ([]models.VisitRecord, int, error) {
	base := visitBase(f.JenisRawat)
	where, args := visitWhere(f, seps)

	countQ, countArgs, err := sqlx.In("SELECT COUNT(*) FROM ("+base+where+") v", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("susun query hitung kunjungan: %w", err)
	}
	var total int
	if err := r.DB.GetContext(ctx, &total, countQ, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("hitung kunjungan: %w", err)
	}

	pageQ, pageArgs, err := sqlx.In(base+where+" ORDER BY tgl_kunjungan DESC, rp.no_rawat DESC LIMIT ? OFFSET ?",
		append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("susun query daftar kunjungan: %w", err)
	}
	var scans []visitScan
	if err := r.DB.SelectContext(ctx, &scans, pageQ, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("daftar kunjungan: %w", err)
	}

	out := make([]models.VisitRecord, 0, len(scans))
	for _, s := range scans {
		out = append(out, s.record())
	}
	return out, total, nil
}

// StreamRows menjalankan satu query gabungan kunjungan x tindakan dan mengirim baris satu per satu.
func (r *KunjunganRepository) StreamRows(ctx context.Context, f models.FilterDescriptor, fn func(models.Row) error) error {
	where, visitArgs := visitWhere(f, nil)
	lines, lineArgs := linesUnion(f.JenisRawat)

	q := `SELECT v.*, l.kd_jenis_prw, l.nm_perawatan, l.kategori, l.kd_penunjang, l.nm_penunjang,
		l.kd_dokter_tindakan, l.nm_dokter_tindakan, l.dokter_umum,
		l.material, l.bhp, l.tarif_tindakandr, l.tarif_tindakanpr, l.kso, l.menejemen, l.biaya_rawat
	FROM (` + visitBase(f.JenisRawat) + where + `) v
	JOIN (` + lines + `) l ON l.no_rawat = v.no_rawat
	ORDER BY v.tgl_kunjungan, v.no_rawat, l.kategori, l.kd_jenis_prw, l.kd_dokter_tindakan, l.waktu`

	args := append(visitArgs, lineArgs...)
	r.Log.Debug("stream baris tindakan", zap.String("jenis_rawat", string(f.JenisRawat)), zap.Int("args", len(args)))

	rows, err := r.DB.QueryxContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("query baris tindakan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s rowScan
		if err := rows.StructScan(&s); err != nil {
			return fmt.Errorf("scan baris tindakan: %w", err)
		}
		if err := fn(s.row()); err != nil {
			return err
		}
	}
	return rows.Err()
}
