package placeholders

import "strconv"

var (
	malayOnes  = []string{"", "satu", "dua", "tiga", "empat", "lima", "enam", "tujuh", "lapan", "sembilan"}
	malayTeens = []string{"sepuluh", "sebelas", "dua belas", "tiga belas", "empat belas", "lima belas",
		"enam belas", "tujuh belas", "lapan belas", "sembilan belas"}
	malayTens = []string{"", "", "dua puluh", "tiga puluh", "empat puluh", "lima puluh",
		"enam puluh", "tujuh puluh", "lapan puluh", "sembilan puluh"}
)

// MalayWords - n in Malay words for 0..999; larger and negative numbers are
// returned as digits.
func MalayWords(n int) string {
	switch {
	case n < 0 || n >= 1000:
		return strconv.Itoa(n)
	case n == 0:
		return "kosong"
	case n < 10:
		return malayOnes[n]
	case n < 20:
		return malayTeens[n-10]
	case n < 100:
		if n%10 == 0 {
			return malayTens[n/10]
		}
		return malayTens[n/10] + " " + malayOnes[n%10]
	}

	result := "seratus"
	if h := n / 100; h > 1 {
		result = malayOnes[h] + " ratus"
	}
	if rest := n % 100; rest > 0 {
		result += " " + MalayWords(rest)
	}
	return result
}
