package movimenti

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(errs []FieldError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidate_ValidMovements(t *testing.T) {
	t.Run("waste movement", func(t *testing.T) {
		assert.Empty(t, Validate(wasteMovimento()))
	})

	t.Run("materials movement without waste fields", func(t *testing.T) {
		m := wasteMovimento()
		m.Causale = CausaleMateriali
		m.CodiceEER = ""
		m.CodiceMateriale = "MAT-042"
		assert.Empty(t, Validate(m))
	})

	t.Run("alias causale accepted after normalization", func(t *testing.T) {
		m := wasteMovimento()
		m.Causale = "PS"
		assert.Empty(t, Validate(m))
	})
}

func TestValidate_CoreFields(t *testing.T) {
	t.Run("year out of range", func(t *testing.T) {
		m := wasteMovimento()
		m.Anno = 1979
		assert.Contains(t, fieldsOf(Validate(m)), "anno")

		m.Anno = 2051
		assert.Contains(t, fieldsOf(Validate(m)), "anno")
	})

	t.Run("progressivo below one", func(t *testing.T) {
		m := wasteMovimento()
		m.Progressivo = 0
		assert.Contains(t, fieldsOf(Validate(m)), "progressivo")
	})

	t.Run("missing registration timestamp", func(t *testing.T) {
		m := wasteMovimento()
		m.DataRegistrazione = time.Time{}
		assert.Contains(t, fieldsOf(Validate(m)), "data_registrazione")
	})

	t.Run("unknown causale", func(t *testing.T) {
		m := wasteMovimento()
		m.Causale = "XX"
		errs := Validate(m)
		require.Len(t, errs, 1)
		assert.Equal(t, "causale", errs[0].Field)
	})
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	m := wasteMovimento()
	m.CodiceEER = ""
	m.Quantita = 0
	m.UnitaMisura = ""

	errs := Validate(m)
	assert.ElementsMatch(t, []string{"codice_eer", "quantita", "unita_misura"}, fieldsOf(errs))
}

func TestValidate_ZeroQuantityReportedOnce(t *testing.T) {
	m := wasteMovimento()
	m.Quantita = 0

	errs := Validate(m)
	require.Len(t, errs, 1)
	assert.Equal(t, "quantita", errs[0].Field)
}

func TestValidate_MaterialsBranch(t *testing.T) {
	t.Run("waste-code fallback satisfies the material code", func(t *testing.T) {
		m := wasteMovimento()
		m.Causale = CausaleMateriali
		m.CodiceMateriale = ""
		m.CodiceEER = "160106"
		assert.Empty(t, Validate(m))
	})

	t.Run("no code at all", func(t *testing.T) {
		m := wasteMovimento()
		m.Causale = CausaleMateriali
		m.CodiceMateriale = ""
		m.CodiceEER = ""
		assert.Contains(t, fieldsOf(Validate(m)), "codice_materiale")
	})
}

func TestValidate_NeverAppliesBuilderDefaults(t *testing.T) {
	// A missing physical state is valid input: the builder substitutes the
	// solid default at serialization time, the validator must not demand it.
	m := wasteMovimento()
	m.StatoFisico = ""
	assert.Empty(t, Validate(m))

	m.StatoFisico = "plasma"
	assert.Contains(t, fieldsOf(Validate(m)), "stato_fisico")
}

func TestValidate_AcceptanceOutcome(t *testing.T) {
	m := wasteMovimento()
	m.Causale = CausaleArrivoTrasporto
	m.EsitoAccettazione = ""
	assert.Empty(t, Validate(m))

	m.EsitoAccettazione = "Forse"
	assert.Contains(t, fieldsOf(Validate(m)), "esito_accettazione")

	m.EsitoAccettazione = EsitoRespinto
	assert.Empty(t, Validate(m))
}
