package placeholders

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidTable is returned when a name table breaks the alias rules.
var ErrInvalidTable = errors.New("invalid placeholder table")

// Canonical placeholder names
const (
	Rujukan            = "RUJUKAN"
	RujukanTuan        = "RUJUKAN_TUAN"
	NamaSyarikat       = "NAMA_SYARIKAT"
	Alamat             = "ALAMAT"
	Tarikh             = "TARIKH"
	Tarikh2            = "TARIKH2"
	TarikhIslam        = "TARIKH_ISLAM"
	NamaPegawai        = "NAMA_PEGAWAI"
	NoKelulusan        = "NO_KELULUSAN"
	Kategori           = "KATEGORI"
	TempohKelulusan    = "TEMPOH_KELULUSAN"
	Proses             = "PROSES"
	JenisBarang        = "JENIS_BARANG"
	Pengecualian       = "PENGECUALIAN"
	Amount             = "AMOUNT"
	JenisTemplate      = "JENIS_TEMPLATE"
	Status             = "STATUS"
	TarikhMula         = "TARIKH_MULA"
	TarikhTamat        = "TARIKH_TAMAT"
	Tempoh             = "TEMPOH"
	TajukSurat         = "TAJUK_SURAT"
	TajukSurat2        = "TAJUK_SURAT2"
	RujukanInfo        = "RUJUKAN_INFO"
	ScheduleType       = "SCHEDULE_TYPE"
	RegistrationNumber = "REGISTRATION_NUMBER"
	Salutation         = "SALUTATION"
	SenaraiSemak       = "SENARAI_SEMAK"
	LampiranA          = "LAMPIRAN_A"
	TarikhKuatkuasa    = "TARIKH_KUATKUASA"
)

// Aliases
const (
	RujukanKami     = "RUJUKAN_KAMI"
	TarikhMalay     = "TARIKH_MALAY"
	BusinessName    = "BUSINESS_NAME"
	BusinessAddress = "BUSINESS_ADDRESS"
	Checklist       = "CHECKLIST"
	LampiranATable  = "LAMPIRAN_A_TABLE"
)

var defaultCanonical = []string{
	Rujukan, RujukanTuan, NamaSyarikat, Alamat, Tarikh, Tarikh2, TarikhIslam,
	NamaPegawai, NoKelulusan, Kategori, TempohKelulusan, Proses, JenisBarang,
	Pengecualian, Amount, JenisTemplate, Status, TarikhMula, TarikhTamat, Tempoh,
	TajukSurat, TajukSurat2, RujukanInfo, ScheduleType, RegistrationNumber,
	Salutation, SenaraiSemak, LampiranA, TarikhKuatkuasa,
}

var defaultAliases = map[string][]string{
	Rujukan:      {RujukanKami},
	Tarikh2:      {TarikhMalay},
	NamaSyarikat: {BusinessName},
	Alamat:       {BusinessAddress},
	SenaraiSemak: {Checklist},
	LampiranA:    {LampiranATable},
}

var defaultTable = mustTable(defaultCanonical, defaultAliases)

// Default - the built-in name table.
func Default() *Table {
	return defaultTable
}

// Table - canonical placeholder names and their aliases, resolvable both ways.
// Built once and read-only afterwards.
type Table struct {
	canonical []string            // declaration order
	aliases   map[string][]string // canonical -> aliases
	target    map[string]string   // alias -> canonical
}

// NewTable - build and validate a table. Every alias must point at exactly
// one canonical name, must not itself be canonical, and must not repeat.
func NewTable(canonical []string, aliases map[string][]string) (*Table, error) {
	t := &Table{
		aliases: make(map[string][]string, len(aliases)),
		target:  make(map[string]string),
	}

	known := make(map[string]struct{}, len(canonical))
	for _, name := range canonical {
		n := normalize(name)
		if n == "" {
			return nil, fmt.Errorf("%w: empty canonical name", ErrInvalidTable)
		}
		if _, dup := known[n]; dup {
			return nil, fmt.Errorf("%w: canonical name %s declared twice", ErrInvalidTable, n)
		}
		known[n] = struct{}{}
		t.canonical = append(t.canonical, n)
	}

	// sorted walk keeps error messages stable
	owners := make([]string, 0, len(aliases))
	for owner := range aliases {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	for _, owner := range owners {
		c := normalize(owner)
		if _, ok := known[c]; !ok {
			return nil, fmt.Errorf("%w: aliases declared for unknown name %s", ErrInvalidTable, c)
		}
		for _, alias := range aliases[owner] {
			a := normalize(alias)
			switch {
			case a == "":
				return nil, fmt.Errorf("%w: empty alias of %s", ErrInvalidTable, c)
			case a == c:
				return nil, fmt.Errorf("%w: %s aliases itself", ErrInvalidTable, c)
			}
			if _, isCanonical := known[a]; isCanonical {
				return nil, fmt.Errorf("%w: alias %s of %s is a canonical name", ErrInvalidTable, a, c)
			}
			if prev, taken := t.target[a]; taken {
				return nil, fmt.Errorf("%w: alias %s claimed by %s and %s", ErrInvalidTable, a, prev, c)
			}
			t.target[a] = c
			t.aliases[c] = append(t.aliases[c], a)
		}
	}
	return t, nil
}

func mustTable(canonical []string, aliases map[string][]string) *Table {
	t, err := NewTable(canonical, aliases)
	if err != nil {
		panic(err)
	}
	return t
}

// Names - canonical names in declaration order.
func (t *Table) Names() []string {
	return append([]string(nil), t.canonical...)
}

// Canonical - the canonical name for name (itself when canonical or unknown).
func (t *Table) Canonical(name string) string {
	n := normalize(name)
	if c, ok := t.target[n]; ok {
		return c
	}
	return n
}

// Aliases - aliases of a canonical name.
func (t *Table) Aliases(name string) []string {
	return append([]string(nil), t.aliases[normalize(name)]...)
}

// Known reports whether name is canonical or an alias.
func (t *Table) Known(name string) bool {
	n := normalize(name)
	if _, ok := t.target[n]; ok {
		return true
	}
	for _, c := range t.canonical {
		if c == n {
			return true
		}
	}
	return false
}

// normalize - the key form of a name: trimmed, upper-case, without << >>.
func normalize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "<<")
	name = strings.TrimSuffix(name, ">>")
	return strings.ToUpper(strings.TrimSpace(name))
}
