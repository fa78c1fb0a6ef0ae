package movimenti

import (
	"log/slog"
	"time"
)

const noteMaxLen = 500

// materialePlaceholder stands in when a materials movement carries no code at
// all. The Registry's published schema for the materials branch is thin, so a
// logged placeholder beats a hard failure here; the degradation is reported
// so callers can surface it.
const materialePlaceholder = "NON_SPECIFICATO"

// Wire types mirror the Registry's movement schema.

type QuantitaWire struct {
	Valore      float64 `json:"valore"`
	UnitaMisura string  `json:"unita_misura"`
}

type RifiutoWire struct {
	CodiceEER   string       `json:"codice_eer"`
	Descrizione string       `json:"descrizione,omitempty"`
	StatoFisico string       `json:"stato_fisico"`
	Quantita    QuantitaWire `json:"quantita"`
	// CaratteristichePericolo is always present, empty array when none:
	// the Registry distinguishes "no hazards declared" from "field absent".
	CaratteristichePericolo []string `json:"caratteristiche_pericolo"`
	Provenienza             string   `json:"provenienza,omitempty"`
	AttivitaDestinazione    string   `json:"attivita_destinazione,omitempty"`
}

type MaterialeWire struct {
	Codice      string       `json:"codice"`
	Descrizione string       `json:"descrizione,omitempty"`
	Quantita    QuantitaWire `json:"quantita"`
}

type IntegrazioneFIRWire struct {
	NumeroFIR string `json:"numero_fir"`
}

type EsitoWire struct {
	EsitoAccettazione string   `json:"esito_accettazione"`
	QuantitaAccettata *float64 `json:"quantita_accettata,omitempty"`
	Note              string   `json:"note,omitempty"`
}

// MovimentoWire is one element of the submission array.
type MovimentoWire struct {
	Anno              int                  `json:"anno"`
	Progressivo       int                  `json:"progressivo"`
	DataRegistrazione string               `json:"data_registrazione"`
	Causale           string               `json:"causale"`
	Rifiuto           *RifiutoWire         `json:"rifiuto,omitempty"`
	Materiale         *MaterialeWire       `json:"materiale,omitempty"`
	IntegrazioneFIR   *IntegrazioneFIRWire `json:"integrazione_fir,omitempty"`
	Esito             *EsitoWire           `json:"esito,omitempty"`
	Note              string               `json:"note,omitempty"`
}

// Degradation records a field the builder coerced or dropped instead of
// failing. Degradations are explicit so tests and callers can assert on the
// graceful-degradation path itself.
type Degradation struct {
	Field  string
	Reason string
}

// BuildResult is the wire payload plus any degradations applied.
type BuildResult struct {
	Payload      MovimentoWire
	Degradations []Degradation
}

// Builder maps local movements to the Registry wire schema, applying the
// causale-dependent field rules. Defaults ("solid" state, "Accettato"
// outcome) are exclusively a builder concern; the validator never fabricates
// them.
type Builder struct {
	logger *slog.Logger
}

func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build produces the wire form of one movement. Validation is assumed to
// have passed; Build never fails, it degrades.
func (b *Builder) Build(m *Movimento) BuildResult {
	causale := NormalizeCausale(m.Causale)

	result := BuildResult{
		Payload: MovimentoWire{
			Anno:              m.Anno,
			Progressivo:       m.Progressivo,
			DataRegistrazione: m.DataRegistrazione.UTC().Format(time.RFC3339),
			Causale:           causale,
			Note:              truncate(m.Note, noteMaxLen),
		},
	}

	if causale == CausaleMateriali {
		result.Payload.Materiale = b.buildMateriale(m, &result)
	} else {
		result.Payload.Rifiuto = b.buildRifiuto(m, &result)
	}

	if IsTransportCausale(causale) && m.RiferimentoFIR != "" {
		result.Payload.IntegrazioneFIR = &IntegrazioneFIRWire{NumeroFIR: m.RiferimentoFIR}
	}

	if IsArrivalCausale(causale) {
		esito := m.EsitoAccettazione
		if esito == "" {
			// Unspecified means accepted: the dominant real-world case.
			esito = EsitoAccettato
		}
		result.Payload.Esito = &EsitoWire{
			EsitoAccettazione: esito,
			QuantitaAccettata: m.QuantitaAccettata,
			Note:              truncate(m.NoteAccettazione, noteMaxLen),
		}
	}

	return result
}

func (b *Builder) buildRifiuto(m *Movimento, result *BuildResult) *RifiutoWire {
	statoFisico := StatoSolidoNonPolverulento
	if m.StatoFisico != "" {
		if normalized, ok := NormalizeStatoFisico(m.StatoFisico); ok {
			statoFisico = normalized
		}
	}

	hazards := m.CaratteristichePericolo
	if hazards == nil {
		hazards = []string{}
	}

	rifiuto := &RifiutoWire{
		CodiceEER:               m.CodiceEER,
		Descrizione:             m.DescrizioneRifiuto,
		StatoFisico:             statoFisico,
		Quantita:                QuantitaWire{Valore: m.Quantita, UnitaMisura: m.UnitaMisura},
		CaratteristichePericolo: hazards,
		AttivitaDestinazione:    m.AttivitaDestinazione,
	}

	if m.Provenienza != "" {
		if IsValidProvenienza(m.Provenienza) {
			rifiuto.Provenienza = m.Provenienza
		} else {
			result.Degradations = append(result.Degradations, Degradation{
				Field:  "provenienza",
				Reason: "value " + m.Provenienza + " is not a valid enumerant, dropped",
			})
			b.logger.Warn("dropped invalid provenienza",
				slog.String("movimento_id", m.ID.String()),
				slog.String("provenienza", m.Provenienza))
		}
	}
	return rifiuto
}

func (b *Builder) buildMateriale(m *Movimento, result *BuildResult) *MaterialeWire {
	codice := m.CodiceMateriale
	if codice == "" {
		// Older rows stored the material code in the waste-code column.
		codice = m.CodiceEER
	}
	if codice == "" {
		codice = materialePlaceholder
		result.Degradations = append(result.Degradations, Degradation{
			Field:  "materiale.codice",
			Reason: "no material code available, placeholder emitted",
		})
		b.logger.Warn("materials movement without material code",
			slog.String("movimento_id", m.ID.String()))
	}

	return &MaterialeWire{
		Codice:      codice,
		Descrizione: m.DescrizioneRifiuto,
		Quantita:    QuantitaWire{Valore: m.Quantita, UnitaMisura: m.UnitaMisura},
	}
}

// truncate caps s at max characters. The cut lands on a rune boundary so
// accented text is never left with a split UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
