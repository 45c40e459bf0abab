package placeholders

import (
	"fmt"
	"strings"
	"time"
)

// Reference number prefixes
const (
	RujukanPrefix     = "KE.JB(90)650/05-02/"
	RujukanAMESPrefix = "KE.JB(90)650/14/AMES/"
)

// Mapping - flat placeholder name -> value map handed to substitution.
// Keys are upper-case.
type Mapping map[string]string

// Get - value for name, "" when never set.
func (m Mapping) Get(name string) string {
	return m[normalize(name)]
}

// Builder collects placeholder values for one document. Set calls on the
// same exact name overwrite each other; Build spreads values across aliases.
type Builder struct {
	table  *Table
	values map[string]string
}

// NewBuilder - a builder over the default table.
func NewBuilder() *Builder {
	return NewBuilderWith(Default())
}

// NewBuilderWith - a builder over a custom table.
func NewBuilderWith(t *Table) *Builder {
	return &Builder{table: t, values: map[string]string{}}
}

// Set - store value under the exact (upper-cased) name.
func (b *Builder) Set(name, value string) *Builder {
	n := normalize(name)
	if n == "" {
		return b
	}
	b.values[n] = value
	return b
}

// AddRujukan - our reference, prefixed unless the caller already did.
// An empty number stays empty.
func (b *Builder) AddRujukan(number string) *Builder {
	return b.Set(Rujukan, prefixed(RujukanPrefix, number))
}

// AddRujukanAMES - our reference for AMES letters, under RUJUKAN_KAMI so a
// standard reference set alongside it survives. RUJUKAN falls back to it.
func (b *Builder) AddRujukanAMES(number string) *Builder {
	return b.Set(RujukanKami, prefixed(RujukanAMESPrefix, number))
}

func prefixed(prefix, number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, prefix) {
		return number
	}
	return prefix + number
}

// AddRujukanTuan - the addressee's reference, kept verbatim.
func (b *Builder) AddRujukanTuan(ref string) *Builder {
	return b.Set(RujukanTuan, strings.TrimSpace(ref))
}

// AddNamaSyarikat - company name, upper-case.
func (b *Builder) AddNamaSyarikat(name string) *Builder {
	return b.Set(NamaSyarikat, strings.ToUpper(strings.TrimSpace(name)))
}

// AddNamaPegawai - signing officer, upper-case.
func (b *Builder) AddNamaPegawai(name string) *Builder {
	return b.Set(NamaPegawai, strings.ToUpper(strings.TrimSpace(name)))
}

// AddAlamat - address lines joined with "\n"; blank lines are dropped.
func (b *Builder) AddAlamat(lines ...string) *Builder {
	var kept []string
	for _, l := range lines {
		for _, part := range strings.Split(l, "\n") {
			if s := strings.TrimSpace(part); s != "" {
				kept = append(kept, s)
			}
		}
	}
	return b.Set(Alamat, strings.Join(kept, "\n"))
}

// AddTarikh - the letter date in all three renderings.
func (b *Builder) AddTarikh(t time.Time) *Builder {
	b.Set(Tarikh, FormatNumeric(t))
	b.AddTarikhMalay(t)
	return b.AddTarikhIslam(t)
}

// AddTarikhMalay - Malay long form under TARIKH2.
func (b *Builder) AddTarikhMalay(t time.Time) *Builder {
	return b.Set(Tarikh2, FormatMalay(t))
}

// AddTarikhIslam - Hijri long form.
func (b *Builder) AddTarikhIslam(t time.Time) *Builder {
	return b.Set(TarikhIslam, FormatHijri(t))
}

// AddTempoh - a start/end period: both dates numeric plus the length in
// days, e.g. "tiga puluh (30) hari".
func (b *Builder) AddTempoh(start, end time.Time) *Builder {
	b.Set(TarikhMula, FormatNumeric(start))
	b.Set(TarikhTamat, FormatNumeric(end))
	days := int(dateOnly(end).Sub(dateOnly(start)).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return b.Set(Tempoh, fmt.Sprintf("%s (%d) hari", MalayWords(days), days))
}

// AddTempohKelulusan - approval period "<start> hingga <end>".
func (b *Builder) AddTempohKelulusan(start, end time.Time) *Builder {
	return b.Set(TempohKelulusan, FormatNumeric(start)+" hingga "+FormatNumeric(end))
}

// AddExtra - caller specific placeholders, set as given.
func (b *Builder) AddExtra(extra map[string]string) *Builder {
	for k, v := range extra {
		b.Set(k, v)
	}
	return b
}

// Build - the flat mapping. Explicit values are kept as set. A canonical
// name's value is copied to each alias that was not set itself. A canonical
// name that was never set takes the value of its first set alias.
func (b *Builder) Build() Mapping {
	out := make(Mapping, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}

	for _, c := range b.table.canonical {
		value, ok := b.values[c]
		if !ok {
			for _, a := range b.table.aliases[c] {
				if v, set := b.values[a]; set {
					value, ok = v, true
					break
				}
			}
			if !ok {
				continue
			}
			out[c] = value
		}
		for _, a := range b.table.aliases[c] {
			if _, explicit := b.values[a]; !explicit {
				out[a] = value
			}
		}
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
