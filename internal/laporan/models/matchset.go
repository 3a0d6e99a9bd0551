package models

// MatchSetEntry adalah satu nomor SEP dari file unggahan beserta tarif penggantinya.
type MatchSetEntry struct {
	NoSEP    string
	Override TarifOverride
	// Row adalah nomor baris (1-based) tempat entri ini terakhir dibaca.
	Row int
}

// MatchSet memetakan nomor SEP ke entrinya. Hanya hidup selama satu request.
type MatchSet struct {
	Name    string
	Entries map[string]MatchSetEntry
}

func NewMatchSet(name string) *MatchSet {
	return &MatchSet{Name: name, Entries: make(map[string]MatchSetEntry)}
}

// Active false untuk match-set nil atau kosong; keduanya berarti tanpa penyaringan SEP.
func (m *MatchSet) Active() bool {
	return m != nil && len(m.Entries) > 0
}

func (m *MatchSet) Lookup(noSEP string) (MatchSetEntry, bool) {
	if m == nil || noSEP == "" {
		return MatchSetEntry{}, false
	}
	e, ok := m.Entries[noSEP]
	return e, ok
}

func (m *MatchSet) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Entries)
}
