package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/c14220110/rekap-billing/internal/laporan/models"
)

// Kolom yang dikenali di file match-set.
const (
	colNoSEP           = "no_sep"
	colBiayaRawat      = "biaya_rawat"
	colMaterial        = "material"
	colBHP             = "bhp"
	colTarifTindakanDr = "tarif_tindakandr"
	colTarifTindakanPr = "tarif_tindakanpr"
	colKSO             = "kso"
	colMenejemen       = "menejemen"
)

// headerAliases memetakan nama header (huruf kecil, tanpa spasi/tanda baca) ke kolom.
var headerAliases = map[string]string{
	"nosep":           colNoSEP,
	"sep":             colNoSEP,
	"nomorsep":        colNoSEP,
	"noklaim":         colNoSEP,
	"tarif":           colBiayaRawat,
	"total":           colBiayaRawat,
	"biayarawat":      colBiayaRawat,
	"tarifrs":         colBiayaRawat,
	"tarifklaim":      colBiayaRawat,
	"material":        colMaterial,
	"bhp":             colBHP,
	"tariftindakandr": colTarifTindakanDr,
	"jasadokter":      colTarifTindakanDr,
	"tarifdokter":     colTarifTindakanDr,
	"tariftindakanpr": colTarifTindakanPr,
	"jasaperawat":     colTarifTindakanPr,
	"tarifperawat":    colTarifTindakanPr,
	"kso":             colKSO,
	"menejemen":       colMenejemen,
	"manajemen":       colMenejemen,
}

// matchSetRecord adalah satu baris mentah beserta nomor barisnya di file.
type matchSetRecord struct {
	line  int
	cells []string
}

// MatchSetResolver mengubah isi file unggahan menjadi MatchSet.
type MatchSetResolver struct {
	Log *zap.Logger
}

func NewMatchSetResolver(log *zap.Logger) *MatchSetResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &MatchSetResolver{Log: log}
}

// Resolve memilih parser berdasarkan ekstensi nama file: .xlsx atau CSV.
func (r *MatchSetResolver) Resolve(name string, content []byte) (*models.MatchSet, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return r.ResolveXLSX(name, content)
	}
	return r.ResolveCSV(name, content)
}

// ResolveCSV membaca CSV berpemisah koma atau titik koma.
func (r *MatchSetResolver) ResolveCSV(name string, content []byte) (*models.MatchSet, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(content)) == 0 {
		return models.NewMatchSet(name), nil
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = detectDelimiter(content)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []matchSetRecord
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &models.MalformedMatchSetError{Name: name, Row: perr.Line, Reason: perr.Err.Error()}
			}
			return nil, &models.MalformedMatchSetError{Name: name, Reason: err.Error()}
		}
		line, _ := reader.FieldPos(0)
		records = append(records, matchSetRecord{line: line, cells: cells})
	}
	return r.build(name, records)
}

// ResolveXLSX membaca sheet pertama workbook.
func (r *MatchSetResolver) ResolveXLSX(name string, content []byte) (*models.MatchSet, error) {
	if len(content) == 0 {
		return models.NewMatchSet(name), nil
	}
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &models.MalformedMatchSetError{Name: name, Reason: "file xlsx tidak dapat dibaca: " + err.Error()}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.NewMatchSet(name), nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &models.MalformedMatchSetError{Name: name, Reason: "sheet tidak dapat dibaca: " + err.Error()}
	}

	records := make([]matchSetRecord, 0, len(rows))
	for i, cells := range rows {
		records = append(records, matchSetRecord{line: i + 1, cells: cells})
	}
	return r.build(name, records)
}

func (r *MatchSetResolver) build(name string, records []matchSetRecord) (*models.MatchSet, error) {
	ms := models.NewMatchSet(name)

	// buang baris yang seluruh selnya kosong
	kept := records[:0]
	for _, rec := range records {
		if !blankRow(rec.cells) {
			kept = append(kept, rec)
		}
	}
	records = kept
	if len(records) == 0 {
		return ms, nil
	}

	columns, isHeader := headerColumns(records[0].cells)
	if isHeader {
		if _, ok := columns[colNoSEP]; !ok {
			return nil, &models.MalformedMatchSetError{
				Name: name, Row: records[0].line, Column: colNoSEP, Reason: "kolom nomor SEP tidak ditemukan di header",
			}
		}
		records = records[1:]
	} else {
		columns = map[string]int{colNoSEP: 0, colBiayaRawat: 1}
	}

	for _, rec := range records {
		entry, err := parseEntry(name, rec, columns)
		if err != nil {
			return nil, err
		}
		if prev, dup := ms.Entries[entry.NoSEP]; dup {
			r.Log.Debug("nomor SEP ganda, baris terakhir dipakai",
				zap.String("match_set", name),
				zap.String("no_sep", entry.NoSEP),
				zap.Int("baris_lama", prev.Row),
				zap.Int("baris_baru", entry.Row))
		}
		ms.Entries[entry.NoSEP] = entry
	}

	r.Log.Info("match-set dibaca", zap.String("match_set", name), zap.Int("jumlah_sep", ms.Len()))
	return ms, nil
}

func parseEntry(name string, rec matchSetRecord, columns map[string]int) (models.MatchSetEntry, error) {
	entry := models.MatchSetEntry{NoSEP: cell(rec.cells, columns[colNoSEP]), Row: rec.line}
	if entry.NoSEP == "" {
		return entry, &models.MalformedMatchSetError{Name: name, Row: rec.line, Column: colNoSEP, Reason: "nomor SEP kosong"}
	}

	targets := []struct {
		col string
		dst *decimal.NullDecimal
	}{
		{colBiayaRawat, &entry.Override.BiayaRawat},
		{colMaterial, &entry.Override.Material},
		{colBHP, &entry.Override.BHP},
		{colTarifTindakanDr, &entry.Override.TarifTindakanDr},
		{colTarifTindakanPr, &entry.Override.TarifTindakanPr},
		{colKSO, &entry.Override.KSO},
		{colMenejemen, &entry.Override.Menejemen},
	}
	for _, t := range targets {
		idx, ok := columns[t.col]
		if !ok {
			continue
		}
		raw := cell(rec.cells, idx)
		if raw == "" {
			continue
		}
		v, err := models.ParseRupiah(raw)
		if err != nil {
			return entry, &models.MalformedMatchSetError{
				Name: name, Row: rec.line, Column: t.col, Reason: fmt.Sprintf("nilai %q bukan nominal yang valid", raw),
			}
		}
		*t.dst = decimal.NullDecimal{Decimal: v, Valid: true}
	}
	return entry, nil
}

// headerColumns mengembalikan indeks kolom bila baris pertama memuat setidaknya satu header dikenal.
func headerColumns(cells []string) (map[string]int, bool) {
	columns := make(map[string]int)
	for i, c := range cells {
		col, ok := headerAliases[normalizeHeader(c)]
		if !ok {
			continue
		}
		if _, seen := columns[col]; !seen {
			columns[col] = i
		}
	}
	return columns, len(columns) > 0
}

func normalizeHeader(s string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(strings.TrimSpace(s)) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func detectDelimiter(content []byte) rune {
	first := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		first = content[:i]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
