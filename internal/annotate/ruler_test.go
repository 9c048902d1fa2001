package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotext/internal/domain"
)

func TestRuler_OverridesOverlappingModelEntities(t *testing.T) {
	r, err := newRuler([]Pattern{
		{Label: domain.LabelPerson, Pattern: `(?:Phileas|Mr\.?)\s+Fogg`},
		{Label: domain.LabelPerson, Pattern: `Fogg`},
		{Label: domain.LabelGPE, Pattern: `Calcutta`},
	})
	require.NoError(t, err)

	text := "Phileas Fogg left London for Calcutta, and Fogg was calm."
	model := []domain.Entity{
		{Span: "Phileas", Label: domain.LabelGPE},
		{Span: "London", Label: domain.LabelGPE},
		{Span: "Calcutta", Label: domain.LabelPerson},
	}

	got := r.apply(text, model)
	assert.Equal(t, []domain.Entity{
		{Span: "Phileas Fogg", Label: domain.LabelPerson},
		{Span: "London", Label: domain.LabelGPE},
		{Span: "Calcutta", Label: domain.LabelGPE},
		{Span: "Fogg", Label: domain.LabelPerson},
	}, got)
}

func TestRuler_WordBoundaries(t *testing.T) {
	r, err := newRuler([]Pattern{{Label: domain.LabelPerson, Pattern: `Fix`}})
	require.NoError(t, err)

	got := r.apply("Fixing the clock, Fix smiled.", nil)
	assert.Equal(t, []domain.Entity{{Span: "Fix", Label: domain.LabelPerson}}, got)
}

func TestRuler_NoPatternsReturnsModel(t *testing.T) {
	r, err := newRuler(nil)
	require.NoError(t, err)
	model := []domain.Entity{{Span: "Bombay", Label: domain.LabelGPE}}
	assert.Equal(t, model, r.apply("to Bombay", model))
}

func TestRuler_RepeatedMentionsKeepOrder(t *testing.T) {
	r, err := newRuler([]Pattern{{Label: domain.LabelPerson, Pattern: `Passepartout`}})
	require.NoError(t, err)

	text := "Suez, then Passepartout went to Suez again."
	model := []domain.Entity{
		{Span: "Suez", Label: domain.LabelGPE},
		{Span: "Suez", Label: domain.LabelGPE},
	}
	got := r.apply(text, model)
	assert.Equal(t, []domain.Entity{
		{Span: "Suez", Label: domain.LabelGPE},
		{Span: "Passepartout", Label: domain.LabelPerson},
		{Span: "Suez", Label: domain.LabelGPE},
	}, got)
}

func TestNewRuler_RejectsBadPatterns(t *testing.T) {
	_, err := newRuler([]Pattern{{Label: domain.LabelGPE, Pattern: "  "}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = newRuler([]Pattern{{Label: domain.LabelGPE, Pattern: "(unclosed"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIsWord(t *testing.T) {
	for in, want := range map[string]bool{
		"travel": true,
		"don't":  true,
		"well-a": true,
		"":       false,
		",":      false,
		"42":     false,
		"b2b":    false,
		"--":     false,
	} {
		assert.Equal(t, want, isWord(in), in)
	}
}
