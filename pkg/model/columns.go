package model

// MIFLAS extract column names (transliterated Hebrew)
const (
	ColKamutPlita           = "KamutPlita"           // total emitted quantity
	ColKamutPlitaBeTeunot   = "KamutPlitaBeTeunot"   // quantity emitted in accidents
	ColKamutPlitaLoBeTeunot = "KamutPlitaLoBeTeunot" // derived routine quantity
	ColAccidental           = "Accidental"

	ColSachTipulPsoletMesukenet   = "SachTipulPsoletMesukenet"
	ColSachSilukPsoletMesukenet   = "SachSilukPsoletMesukenet"
	ColSachTipulPsoletLoMesukenet = "SachTipulPsoletLoMesukenet"
	ColSachSilukPsoletLoMesukenet = "SachSilukPsoletLoMesukenet"
	ColPsoletMesukenetTotal       = "PsoletMesukenetTotal"
	ColPsoletLoMesukenetTotal     = "PsoletLoMesukenetTotal"

	ColSugPlita         = "SugPlita"
	ColKvutzatMezahamim = "KvutzatMezahamim"
	ColAnafAtarSvivati  = "AnafAtarSvivati"
	ColTchumPeilut      = "TchumPeilutAtarSvivati"
	ColSugPeilut        = "SugPeilutAtarSvivati"
	ColYeshuv           = "YeshuvAtarSvivatiMenifa"
	ColShemAtar         = "ShemAtarSvivatiMenifa"
	ColMisparTaagid     = "MisparTaagidShutfutMenifa"
	ColShnatDivuach     = "ShnatDivuach"
)

// Raw sentinel strings standing in for semantic conditions
const (
	SentinelUnavailable = "נתון לא זמין"
)

var (
	tooLowSentinels      = []string{"פליטה נמוכה מכמות הסף", "הזרמה נמוכה מכמות הסף"}
	nonAccidentSentinels = []string{"לא נפלט בתקלה", "לא הוזרם בתקלה"}
)

// SentinelClass is the semantic category of a raw sentinel string
type SentinelClass int

const (
	SentinelNone SentinelClass = iota
	SentinelClassUnavailable
	SentinelClassTooLow
	SentinelClassNonAccident
)

func (c SentinelClass) String() string {
	switch c {
	case SentinelClassUnavailable:
		return "unavailable"
	case SentinelClassTooLow:
		return "too_low"
	case SentinelClassNonAccident:
		return "non_accident"
	default:
		return "none"
	}
}

// ClassifySentinel maps a cell to its sentinel class; non-text cells are never sentinels
func ClassifySentinel(v Value) SentinelClass {
	s, ok := v.Str()
	if !ok {
		return SentinelNone
	}
	if s == SentinelUnavailable {
		return SentinelClassUnavailable
	}
	for _, t := range tooLowSentinels {
		if s == t {
			return SentinelClassTooLow
		}
	}
	for _, n := range nonAccidentSentinels {
		if s == n {
			return SentinelClassNonAccident
		}
	}
	return SentinelNone
}

// TooLowSentinels returns the recognized below-threshold strings
func TooLowSentinels() []string { return append([]string(nil), tooLowSentinels...) }

// NonAccidentSentinels returns the recognized no-accident strings
func NonAccidentSentinels() []string { return append([]string(nil), nonAccidentSentinels...) }
