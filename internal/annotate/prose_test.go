package annotate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotext/internal/domain"
)

func TestLemmatize_FiltersAndStems(t *testing.T) {
	a, err := New(Options{})
	require.NoError(t, err)

	lemmas, err := a.Lemmatize("The 3 travellers were travelling, quickly!")
	require.NoError(t, err)
	assert.Equal(t, []string{"travel", "travel", "quick"}, lemmas)
}

func TestLemmatize_Empty(t *testing.T) {
	a, err := New(Options{})
	require.NoError(t, err)

	lemmas, err := a.Lemmatize("   ")
	require.NoError(t, err)
	assert.Empty(t, lemmas)
}

func TestLemmatize_CustomStopwords(t *testing.T) {
	a, err := New(Options{Stopwords: []string{"Steamer"}})
	require.NoError(t, err)

	lemmas, err := a.Lemmatize("steamer the")
	require.NoError(t, err)
	assert.Equal(t, []string{"the"}, lemmas)
}

func TestAnnotate_PatternsWin(t *testing.T) {
	a, err := New(Options{Patterns: []Pattern{
		{Label: domain.LabelPerson, Pattern: `Phileas\s+Fogg`},
		{Label: domain.LabelGPE, Pattern: `Calcutta`},
	}})
	require.NoError(t, err)

	ann, err := a.Annotate("Phileas Fogg reached Calcutta. The steamer was late.")
	require.NoError(t, err)

	assert.Contains(t, ann.Entities, domain.Entity{Span: "Phileas Fogg", Label: domain.LabelPerson})
	assert.Contains(t, ann.Entities, domain.Entity{Span: "Calcutta", Label: domain.LabelGPE})
	for _, e := range ann.Entities {
		if e.Span == "Calcutta" {
			assert.Equal(t, domain.LabelGPE, e.Label)
		}
	}
	assert.Len(t, ann.Sentences, 2)
	assert.Contains(t, ann.Lemmas, "steamer")
	assert.NotContains(t, ann.Lemmas, "the")
}

func TestAnnotator_SharedModelConcurrentUse(t *testing.T) {
	a, err := New(Options{})
	require.NoError(t, err)
	require.NotNil(t, a.model)

	const text = "Phileas Fogg left London for Suez. The steamer crossed the Red Sea."
	want, err := a.Annotate(text)
	require.NoError(t, err)

	var wg sync.WaitGroup
	got := make([]domain.Annotation, 8)
	errs := make([]error, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = a.Annotate(text)
		}(i)
	}
	wg.Wait()
	for i := range got {
		require.NoError(t, errs[i])
		assert.Equal(t, want, got[i])
	}
}
