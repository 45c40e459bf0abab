package placeholders

import (
	"errors"
	"testing"
	"time"
)

func TestBuild_AliasesMirrorCanonical(t *testing.T) {
	m := NewBuilder().
		AddRujukan("1234").
		AddNamaSyarikat("syarikat abc sdn bhd").
		AddAlamat("No 1, Jalan Satu", "", "81100 Johor Bahru").
		AddTarikh(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)).
		Build()

	for canonical, aliases := range defaultAliases {
		v, ok := m[canonical]
		if !ok {
			continue
		}
		for _, a := range aliases {
			if m[a] != v {
				t.Errorf("%s = %q, want %q (from %s)", a, m[a], v, canonical)
			}
		}
	}

	if m.Get(RujukanKami) != "KE.JB(90)650/05-02/1234" {
		t.Errorf("RUJUKAN_KAMI = %q", m.Get(RujukanKami))
	}
	if m.Get(BusinessName) != "SYARIKAT ABC SDN BHD" {
		t.Errorf("BUSINESS_NAME = %q", m.Get(BusinessName))
	}
	if m.Get(BusinessAddress) != "No 1, Jalan Satu\n81100 Johor Bahru" {
		t.Errorf("BUSINESS_ADDRESS = %q", m.Get(BusinessAddress))
	}
	if m.Get(TarikhMalay) != "01 Januari 2024" {
		t.Errorf("TARIKH_MALAY = %q", m.Get(TarikhMalay))
	}
}

func TestBuild_ExplicitAliasWins(t *testing.T) {
	m := NewBuilder().
		AddRujukan("1").
		Set(RujukanKami, "OVERRIDE").
		Build()

	if m[Rujukan] != "KE.JB(90)650/05-02/1" {
		t.Errorf("RUJUKAN = %q", m[Rujukan])
	}
	if m[RujukanKami] != "OVERRIDE" {
		t.Errorf("RUJUKAN_KAMI = %q", m[RujukanKami])
	}
}

func TestBuild_AliasBackfillsCanonical(t *testing.T) {
	m := NewBuilder().Set("business_name", "ABC").Build()
	if m[NamaSyarikat] != "ABC" {
		t.Fatalf("NAMA_SYARIKAT = %q", m[NamaSyarikat])
	}
}

func TestBuild_LastSetWins(t *testing.T) {
	b := NewBuilder().Set(Status, "A").Set("status", "B")
	if got := b.Build()[Status]; got != "B" {
		t.Fatalf("STATUS = %q", got)
	}
}

func TestBuild_UnsetNamesAbsent(t *testing.T) {
	m := NewBuilder().AddRujukanTuan("ABC/1").Build()
	if _, ok := m[Rujukan]; ok {
		t.Errorf("RUJUKAN present without being set")
	}
	if _, ok := m[RujukanKami]; ok {
		t.Errorf("RUJUKAN_KAMI present without being set")
	}
	if m.Get("nothing") != "" {
		t.Errorf("Get on unset name is not empty")
	}
}

func TestRujukan_StandardAndAMES(t *testing.T) {
	m := NewBuilder().AddRujukan("1234").AddRujukanAMES("77").Build()
	if m[Rujukan] != RujukanPrefix+"1234" {
		t.Errorf("RUJUKAN = %q", m[Rujukan])
	}
	if m[RujukanKami] != RujukanAMESPrefix+"77" {
		t.Errorf("RUJUKAN_KAMI = %q", m[RujukanKami])
	}

	// either order
	m = NewBuilder().AddRujukanAMES("77").AddRujukan("1234").Build()
	if m[Rujukan] != RujukanPrefix+"1234" || m[RujukanKami] != RujukanAMESPrefix+"77" {
		t.Errorf("reversed: %q / %q", m[Rujukan], m[RujukanKami])
	}
}

func TestRujukanPrefixes(t *testing.T) {
	tests := map[string]struct {
		ames bool
		in   string
		want string
	}{
		"plain":        {false, "1234", RujukanPrefix + "1234"},
		"trimmed":      {false, "  99 ", RujukanPrefix + "99"},
		"already":      {false, RujukanPrefix + "5", RujukanPrefix + "5"},
		"empty":        {false, "", ""},
		"ames":         {true, "77", RujukanAMESPrefix + "77"},
		"ames already": {true, RujukanAMESPrefix + "77", RujukanAMESPrefix + "77"},
	}
	for name, tt := range tests {
		b := NewBuilder()
		if tt.ames {
			b.AddRujukanAMES(tt.in)
		} else {
			b.AddRujukan(tt.in)
		}
		if got := b.Build()[Rujukan]; got != tt.want {
			t.Errorf("%s: got %q, want %q", name, got, tt.want)
		}
	}
}

func TestAddTempoh(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 15, 0, 0, 0, time.UTC)
	m := NewBuilder().AddTempoh(start, end).AddTempohKelulusan(start, end).Build()

	want := map[string]string{
		TarikhMula:      "01/01/2025",
		TarikhTamat:     "31/01/2025",
		Tempoh:          "tiga puluh (30) hari",
		TempohKelulusan: "01/01/2025 hingga 31/01/2025",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %q, want %q", k, m[k], v)
		}
	}
}

func TestAddTarikh(t *testing.T) {
	m := NewBuilder().AddTarikh(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)).Build()
	want := map[string]string{
		Tarikh:      "01/03/2025",
		Tarikh2:     "01 Mac 2025",
		TarikhMalay: "01 Mac 2025",
		TarikhIslam: "1 Ramadhan 1446H",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %q, want %q", k, m[k], v)
		}
	}
}

func TestAddExtra(t *testing.T) {
	m := NewBuilder().
		AddNamaPegawai("ahmad bin ali").
		AddExtra(map[string]string{"nama_pegawai": "Custom", "no_kelulusan": "K-1"}).
		Build()
	if m[NamaPegawai] != "Custom" || m[NoKelulusan] != "K-1" {
		t.Fatalf("extra not applied: %v", m)
	}
}

func TestNewTable_Invalid(t *testing.T) {
	tests := map[string]struct {
		canonical []string
		aliases   map[string][]string
	}{
		"empty name":      {[]string{"A", " "}, nil},
		"duplicate":       {[]string{"A", "a"}, nil},
		"unknown owner":   {[]string{"A"}, map[string][]string{"B": {"C"}}},
		"self alias":      {[]string{"A"}, map[string][]string{"A": {"a"}}},
		"alias canonical": {[]string{"A", "B"}, map[string][]string{"A": {"B"}}},
		"alias twice":     {[]string{"A", "B"}, map[string][]string{"A": {"X"}, "B": {"X"}}},
		"empty alias":     {[]string{"A"}, map[string][]string{"A": {""}}},
	}
	for name, tt := range tests {
		if _, err := NewTable(tt.canonical, tt.aliases); !errors.Is(err, ErrInvalidTable) {
			t.Errorf("%s: expected ErrInvalidTable, got %v", name, err)
		}
	}
}

func TestTableLookups(t *testing.T) {
	tbl := Default()
	if tbl.Canonical("<<rujukan_kami>>") != Rujukan {
		t.Errorf("canonical of alias")
	}
	if tbl.Canonical("SOMETHING") != "SOMETHING" {
		t.Errorf("canonical of unknown")
	}
	if !tbl.Known("checklist") || !tbl.Known(SenaraiSemak) || tbl.Known("NOPE") {
		t.Errorf("Known")
	}
	if got := tbl.Aliases(LampiranA); len(got) != 1 || got[0] != LampiranATable {
		t.Errorf("aliases of LAMPIRAN_A = %v", got)
	}
	if len(tbl.Names()) != len(defaultCanonical) {
		t.Errorf("names = %d", len(tbl.Names()))
	}
}

func TestCustomTable(t *testing.T) {
	tbl, err := NewTable([]string{"NAMA"}, map[string][]string{"NAMA": {"NAME", "NOM"}})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	m := NewBuilderWith(tbl).Set("NAMA", "Siti").Build()
	if m["NAME"] != "Siti" || m["NOM"] != "Siti" {
		t.Fatalf("aliases not filled: %v", m)
	}
}
