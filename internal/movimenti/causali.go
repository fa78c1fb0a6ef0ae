package movimenti

import "strings"

// Canonical causale codes accepted by the Registry.
const (
	CausaleNuovaProduzione    = "NP"
	CausaleMateriali          = "M"
	CausaleTrasporto          = "T"
	CausaleTrasportoEstero    = "TE"
	CausaleRientroTrasporto   = "RT"
	CausaleDetentoreTrasporto = "DT"
	CausaleArrivoTrasporto    = "aT"
	CausaleArrivoRespinto     = "aR"
)

// causaliAliases maps legacy local cause codes onto canonical Registry codes.
// "PS" (prelievo dal sito) predates the Registry schema and maps to new
// production, as does the bare "C" used by early imports.
var causaliAliases = map[string]string{
	"PS": CausaleNuovaProduzione,
	"C":  CausaleNuovaProduzione,
}

var canonicalCausali = map[string]struct{}{
	CausaleNuovaProduzione:    {},
	CausaleMateriali:          {},
	CausaleTrasporto:          {},
	CausaleTrasportoEstero:    {},
	CausaleRientroTrasporto:   {},
	CausaleDetentoreTrasporto: {},
	CausaleArrivoTrasporto:    {},
	CausaleArrivoRespinto:     {},
}

// transportCausali require a transport manifest integration when a manifest
// reference is on hand. The reference is not mandatory: the Registry accepts
// some transport movements without it.
var transportCausali = map[string]struct{}{
	CausaleTrasporto:          {},
	CausaleTrasportoEstero:    {},
	CausaleRientroTrasporto:   {},
	CausaleDetentoreTrasporto: {},
}

// arrivalCausali always carry an acceptance outcome block.
var arrivalCausali = map[string]struct{}{
	CausaleArrivoTrasporto: {},
	CausaleArrivoRespinto:  {},
}

// NormalizeCausale maps aliases onto canonical codes. Unknown values pass
// through unchanged so the validator can report them.
func NormalizeCausale(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := causaliAliases[trimmed]; ok {
		return canonical
	}
	return trimmed
}

func IsCanonicalCausale(c string) bool {
	_, ok := canonicalCausali[c]
	return ok
}

func IsTransportCausale(c string) bool {
	_, ok := transportCausali[c]
	return ok
}

func IsArrivalCausale(c string) bool {
	_, ok := arrivalCausali[c]
	return ok
}

// Acceptance outcome enumerants.
const (
	EsitoAccettato = "Accettato"
	EsitoParziale  = "AccettatoParzialmente"
	EsitoRespinto  = "Respinto"
)

var canonicalEsiti = map[string]struct{}{
	EsitoAccettato: {},
	EsitoParziale:  {},
	EsitoRespinto:  {},
}

func IsCanonicalEsito(e string) bool {
	_, ok := canonicalEsiti[e]
	return ok
}

// Physical state enumerants.
const (
	StatoSolidoPolverulento    = "SolidoPolverulento"
	StatoSolidoNonPolverulento = "SolidoNonPolverulento"
	StatoLiquido               = "Liquido"
	StatoFangoso               = "Fangoso"
	StatoGassoso               = "Gassoso"
)

var statoFisicoByAlias = map[string]string{
	"solido":                StatoSolidoNonPolverulento,
	"solido polverulento":   StatoSolidoPolverulento,
	"solidopolverulento":    StatoSolidoPolverulento,
	"solidononpolverulento": StatoSolidoNonPolverulento,
	"liquido":               StatoLiquido,
	"fangoso":               StatoFangoso,
	"gassoso":               StatoGassoso,
}

// NormalizeStatoFisico maps free-form local values onto canonical codes.
func NormalizeStatoFisico(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case StatoSolidoPolverulento, StatoSolidoNonPolverulento, StatoLiquido, StatoFangoso, StatoGassoso:
		return trimmed, true
	}
	if canonical, ok := statoFisicoByAlias[strings.ToLower(trimmed)]; ok {
		return canonical, true
	}
	return "", false
}

// Provenance enumerants; anything else is dropped by the builder.
const (
	ProvenienzaUrbano   = "Urbano"
	ProvenienzaSpeciale = "Speciale"
)

func IsValidProvenienza(p string) bool {
	return p == ProvenienzaUrbano || p == ProvenienzaSpeciale
}
