package models

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Presisi uang: semua nilai masukan dibulatkan ke 2 desimal.
const Presisi int32 = 2

// Tarif adalah kumpulan komponen tarif yang dijumlahkan di setiap grup.
type Tarif struct {
	Material        decimal.Decimal `json:"material"`
	BHP             decimal.Decimal `json:"bhp"`
	TarifTindakanDr decimal.Decimal `json:"tarifTindakanDr"`
	TarifTindakanPr decimal.Decimal `json:"tarifTindakanPr"`
	KSO             decimal.Decimal `json:"kso"`
	Menejemen       decimal.Decimal `json:"menejemen"`
	Total           decimal.Decimal `json:"total"`
}

func (t Tarif) Add(o Tarif) Tarif {
	return Tarif{
		Material:        t.Material.Add(o.Material),
		BHP:             t.BHP.Add(o.BHP),
		TarifTindakanDr: t.TarifTindakanDr.Add(o.TarifTindakanDr),
		TarifTindakanPr: t.TarifTindakanPr.Add(o.TarifTindakanPr),
		KSO:             t.KSO.Add(o.KSO),
		Menejemen:       t.Menejemen.Add(o.Menejemen),
		Total:           t.Total.Add(o.Total),
	}
}

// TarifOverride berisi nilai pengganti dari match-set; komponen yang tidak Valid tidak diganti.
type TarifOverride struct {
	Material        decimal.NullDecimal
	BHP             decimal.NullDecimal
	TarifTindakanDr decimal.NullDecimal
	TarifTindakanPr decimal.NullDecimal
	KSO             decimal.NullDecimal
	Menejemen       decimal.NullDecimal
	BiayaRawat      decimal.NullDecimal
}

// Empty true bila tidak ada satu pun komponen yang diganti.
func (o TarifOverride) Empty() bool {
	return !o.Material.Valid && !o.BHP.Valid && !o.TarifTindakanDr.Valid && !o.TarifTindakanPr.Valid &&
		!o.KSO.Valid && !o.Menejemen.Valid && !o.BiayaRawat.Valid
}

// Spread membagi nilai override satu klaim ke baris-baris tarifnya. Setiap komponen yang
// Valid dibagi proporsional terhadap nilai asli komponen itu (rata bila semuanya nol),
// dibulatkan ke Presisi dengan sisa pembulatan di baris terakhir, sehingga jumlah
// komponen di semua baris sama persis dengan nilai override. BiayaRawat menggantikan Total.
func (o TarifOverride) Spread(base []Tarif) []Tarif {
	out := make([]Tarif, len(base))
	copy(out, base)
	if len(base) == 0 || o.Empty() {
		return out
	}

	type komponen struct {
		v   decimal.NullDecimal
		get func(*Tarif) *decimal.Decimal
	}
	for _, k := range []komponen{
		{o.Material, func(t *Tarif) *decimal.Decimal { return &t.Material }},
		{o.BHP, func(t *Tarif) *decimal.Decimal { return &t.BHP }},
		{o.TarifTindakanDr, func(t *Tarif) *decimal.Decimal { return &t.TarifTindakanDr }},
		{o.TarifTindakanPr, func(t *Tarif) *decimal.Decimal { return &t.TarifTindakanPr }},
		{o.KSO, func(t *Tarif) *decimal.Decimal { return &t.KSO }},
		{o.Menejemen, func(t *Tarif) *decimal.Decimal { return &t.Menejemen }},
		{o.BiayaRawat, func(t *Tarif) *decimal.Decimal { return &t.Total }},
	} {
		if !k.v.Valid {
			continue
		}
		weights := make([]decimal.Decimal, len(out))
		for i := range out {
			weights[i] = *k.get(&out[i])
		}
		for i, share := range apportion(k.v.Decimal, weights) {
			*k.get(&out[i]) = share
		}
	}
	return out
}

func apportion(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	n := decimal.NewFromInt(int64(len(weights)))

	out := make([]decimal.Decimal, len(weights))
	rest := total
	for i, w := range weights {
		if i == len(weights)-1 {
			out[i] = rest
			break
		}
		var share decimal.Decimal
		if sum.IsZero() {
			share = total.Div(n)
		} else {
			share = total.Mul(w).Div(sum)
		}
		share = share.Round(Presisi)
		out[i] = share
		rest = rest.Sub(share)
	}
	return out
}

func orZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal.Round(Presisi)
}

var (
	rupiahPrefix = regexp.MustCompile(`(?i)^(rp\.?|idr)`)
	digitsOnly   = regexp.MustCompile(`^-?[0-9]*\.?[0-9]+$`)

	errNotANumber = errors.New("bukan angka")
	errAmbiguous  = errors.New("pemisah ribuan/desimal ambigu")
)

// ParseRupiah membaca nominal seperti "150000", "150000.50", "Rp 150.000,50" atau "150,5".
// Satu pemisah diikuti tepat tiga digit dianggap pemisah ribuan; bentuk seperti "1234.567"
// ditolak karena tidak jelas ribuan atau desimal.
func ParseRupiah(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = rupiahPrefix.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, errNotANumber
	}

	var err error
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s, err = normalizeSingleSeparator(s, ",")
	case lastDot >= 0:
		s, err = normalizeSingleSeparator(s, ".")
	}
	if err != nil {
		return decimal.Zero, err
	}

	if !digitsOnly.MatchString(s) {
		return decimal.Zero, errNotANumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errNotANumber
	}
	return d.Round(Presisi), nil
}

// normalizeSingleSeparator: pemisah yang diikuti tepat tiga digit hanya sah sebagai pemisah
// ribuan bila bagian depannya 1-3 digit ("1.500"); "1234.567" ditolak karena ambigu.
func normalizeSingleSeparator(s, sep string) (string, error) {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, ""), nil
	}
	i := strings.Index(s, sep)
	if len(s)-i-1 == 3 {
		if digits := len(strings.TrimPrefix(s[:i], "-")); digits < 1 || digits > 3 {
			return "", errAmbiguous
		}
		return strings.Replace(s, sep, "", 1), nil
	}
	return strings.Replace(s, sep, ".", 1), nil
}
