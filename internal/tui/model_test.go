package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotext/internal/domain"
)

type fakeSearch map[string]domain.SearchResult

func (f fakeSearch) Search(_ context.Context, phrase string) domain.SearchResult {
	return f[phrase]
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func query(t *testing.T, m Model, q string) Model {
	t.Helper()
	m.input.SetValue(q)
	return send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestModel_SearchAndHistory(t *testing.T) {
	svc := fakeSearch{
		"sea": {Paragraph: domain.Paragraph{Chapter: 0, Index: 2, Text: "They left port. The sea was calm.", Locations: []string{"Suez", "Suez"}}, Score: 0.8},
	}
	m := New(svc, "Around the World")
	assert.Equal(t, "Loading...", m.View())

	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = query(t, m, "sea")
	require.Len(t, m.history, 1)
	assert.Contains(t, m.status, "Best match")
	assert.Empty(t, m.input.Value())

	view := m.renderCurrent()
	assert.Contains(t, view, "score=0.800")
	assert.Contains(t, view, "places: Suez\n")
	assert.Contains(t, view, "The sea was calm.")

	m = query(t, m, "balloon")
	require.Len(t, m.history, 2)
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.status, "No paragraph matches")
	assert.Contains(t, m.renderCurrent(), "No paragraph scored")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
}

func TestModel_EmptyQueryIgnored(t *testing.T) {
	m := send(t, New(fakeSearch{}, ""), tea.WindowSizeMsg{Width: 80, Height: 24})
	m = query(t, m, "   ")
	assert.Empty(t, m.history)
	assert.Equal(t, "No searches yet.", m.renderCurrent())
}

func TestModel_Quit(t *testing.T) {
	m := New(fakeSearch{}, "")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("The train left. The ship sailed on the sea.", "ship sea")
	assert.True(t, strings.HasPrefix(out, "The train left. "))
	assert.Contains(t, out, "The ship sailed on the sea.")

	assert.Equal(t, "", highlightBestSentence("", "x"))
	assert.Equal(t, "One. Two.", highlightBestSentence("One. Two.", "..."))
}
