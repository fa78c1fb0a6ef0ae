package movimenti

import "fmt"

// FieldError is one validation failure. Failures are collected, not
// short-circuited, so a caller can report every problem with a movement at
// once.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// Validate checks a movement against the Registry's conditional schema
// rules. An empty slice means valid. The validator flags genuinely missing
// mandatory fields only; default substitution (solid state, accepted
// outcome) is exclusively the builder's concern.
func Validate(m *Movimento) []FieldError {
	var errs []FieldError
	add := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	if m.Anno < 1980 || m.Anno > 2050 {
		add("anno", fmt.Sprintf("must be between 1980 and 2050, got %d", m.Anno))
	}
	if m.Progressivo < 1 {
		add("progressivo", fmt.Sprintf("must be at least 1, got %d", m.Progressivo))
	}
	if m.DataRegistrazione.IsZero() {
		add("data_registrazione", "registration timestamp is required")
	}

	causale := NormalizeCausale(m.Causale)
	switch {
	case causale == "":
		add("causale", "cause code is required")
	case !IsCanonicalCausale(causale):
		add("causale", fmt.Sprintf("%q (normalized %q) is not a canonical cause code", m.Causale, causale))
	case causale == CausaleMateriali:
		if m.CodiceMateriale == "" && m.CodiceEER == "" {
			add("codice_materiale", "material code (or waste-code fallback) is required for materials movements")
		}
		if m.Quantita <= 0 {
			add("quantita", "quantity must be greater than zero")
		}
		if m.UnitaMisura == "" {
			add("unita_misura", "unit of measure is required")
		}
	default:
		if m.CodiceEER == "" {
			add("codice_eer", "waste code is required")
		}
		if m.Quantita <= 0 {
			add("quantita", "quantity must be greater than zero")
		}
		if m.UnitaMisura == "" {
			add("unita_misura", "unit of measure is required")
		}
		if m.StatoFisico != "" {
			if _, ok := NormalizeStatoFisico(m.StatoFisico); !ok {
				add("stato_fisico", fmt.Sprintf("%q does not normalize to a canonical physical state", m.StatoFisico))
			}
		}
	}

	if m.EsitoAccettazione != "" && !IsCanonicalEsito(m.EsitoAccettazione) {
		add("esito_accettazione", fmt.Sprintf("%q is not a canonical acceptance outcome", m.EsitoAccettazione))
	}

	return errs
}
