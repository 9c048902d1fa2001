package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotext/internal/annotate/annotatetest"
	"geotext/internal/domain"
)

const sample = "Title: X\nAuthor: Y\n\nChapter I\n\nHeader para\n\nBody para1\n\nBody para2\n\nChapter II\n\nHeader2\n\nBody2"

func TestSegment_Example(t *testing.T) {
	s := New(annotatetest.New(), Options{})
	doc, err := s.Segment(context.Background(), sample)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"title": "X", "author": "Y"}, doc.Metadata)
	require.Len(t, doc.Chapters, 2)

	assert.Equal(t, "Header para", doc.Chapters[0].Header)
	require.Len(t, doc.Chapters[0].Paragraphs, 2)
	assert.Equal(t, "Body para1", doc.Chapters[0].Paragraphs[0].Text)
	assert.Equal(t, "Body para2", doc.Chapters[0].Paragraphs[1].Text)

	assert.Equal(t, "Header2", doc.Chapters[1].Header)
	require.Len(t, doc.Chapters[1].Paragraphs, 1)
	assert.Equal(t, "Body2", doc.Chapters[1].Paragraphs[0].Text)

	all := doc.Paragraphs()
	require.Len(t, all, 3)
	for i, p := range all {
		assert.Equal(t, i, p.Index)
	}
	assert.Equal(t, 1, all[2].Chapter)
}

func TestSegment_DropsPreambleAndTrailer(t *testing.T) {
	text := `Title: X
Translator: Z

Preamble that is not part of any chapter.

CHAPTER 1

Header

p2
continued

*** END OF THE PROJECT GUTENBERG EBOOK
Chapter 3

license text
`
	s := New(annotatetest.New(), Options{})
	doc, err := s.Segment(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"title": "X"}, doc.Metadata)
	require.Len(t, doc.Chapters, 1)
	require.Len(t, doc.Chapters[0].Paragraphs, 1)
	assert.Equal(t, "p2 continued", doc.Chapters[0].Paragraphs[0].Text)
}

func TestSegment_NoHeadingMeansNoChapters(t *testing.T) {
	s := New(annotatetest.New(), Options{})
	doc, err := s.Segment(context.Background(), "Title: Loose\n\nJust some prose.\n\nMore prose.")
	require.NoError(t, err)
	assert.Empty(t, doc.Chapters)
	assert.Empty(t, doc.Paragraphs())
	assert.Equal(t, "Loose", doc.Metadata["title"])
}

func TestSegment_HeaderOnlyChapter(t *testing.T) {
	s := New(annotatetest.New(), Options{})
	doc, err := s.Segment(context.Background(), "CHAPTER I. IN WHICH NOTHING HAPPENS\n\n\nChapter II\n\nHeader\n\nBody.")
	require.NoError(t, err)
	require.Len(t, doc.Chapters, 2)
	assert.Equal(t, "IN WHICH NOTHING HAPPENS", doc.Chapters[0].Header)
	assert.Empty(t, doc.Chapters[0].Paragraphs)
	assert.Len(t, doc.Chapters[1].Paragraphs, 1)
}

func TestSegment_HeadingMustStartLine(t *testing.T) {
	s := New(annotatetest.New(), Options{})
	text := "Chapter One\n\nHeader\n\nHe read the chapter twice.\n\n  chapter two\n\nNext."
	chapters := s.Chapters(text)
	require.Len(t, chapters, 2)
	assert.Equal(t, []string{"He read the chapter twice."}, chapters[0].Paragraphs)
	assert.Equal(t, "Next.", chapters[1].Header)
}

func TestSegment_CRLF(t *testing.T) {
	s := New(annotatetest.New(), Options{})
	doc, err := s.Segment(context.Background(), "Title: W\r\n\r\nChapter 1\r\n\r\nheader\r\n\r\nline one\r\nline two\r\n\r\nnext")
	require.NoError(t, err)
	assert.Equal(t, "W", doc.Metadata["title"])
	require.Len(t, doc.Chapters, 1)
	require.Len(t, doc.Chapters[0].Paragraphs, 2)
	assert.Equal(t, "line one line two", doc.Chapters[0].Paragraphs[0].Text)
}

func TestMetadata_LastMatchWins(t *testing.T) {
	s := New(annotatetest.New(), Options{})
	md := s.Metadata("Language: English\nRelease Date: January, 1994\nLANGUAGE: French\nNote: ignored")
	assert.Equal(t, map[string]string{"language": "French", "release date": "January, 1994"}, md)
}

func TestSegment_EntitiesAndProtagonist(t *testing.T) {
	ann := annotatetest.New().
		With(domain.LabelGPE, "Suez", "Bombay").
		With(domain.LabelLOC, "Red Sea").
		With(domain.LabelPerson, "Phileas Fogg", "Passepartout")
	s := New(ann, Options{Protagonist: "Fogg", Workers: 2})

	text := "Chapter 1\n\nheader\n\nPhileas Fogg sailed from Suez through the Red Sea to Suez.\n\nPassepartout stayed in Bombay."
	doc, err := s.Segment(context.Background(), text)
	require.NoError(t, err)

	ps := doc.Paragraphs()
	require.Len(t, ps, 2)
	assert.Equal(t, []string{"Suez", "Red Sea", "Suez"}, ps[0].Locations)
	assert.Equal(t, []string{"Phileas Fogg"}, ps[0].People)
	assert.True(t, ps[0].MentionsProtagonist)
	assert.Contains(t, ps[0].Lemmas, "sailed")

	assert.Equal(t, []string{"Bombay"}, ps[1].Locations)
	assert.False(t, ps[1].MentionsProtagonist)
}

func TestSegment_ProtagonistIsWholeWord(t *testing.T) {
	ann := annotatetest.New().With(domain.LabelPerson, "Foggerty")
	s := New(ann, Options{Protagonist: "Fogg"})
	doc, err := s.Segment(context.Background(), "Chapter 1\n\nh\n\nFoggerty arrived.")
	require.NoError(t, err)
	assert.False(t, doc.Paragraphs()[0].MentionsProtagonist)
}

type failingAnnotator struct{ *annotatetest.Annotator }

func (failingAnnotator) Annotate(string) (domain.Annotation, error) {
	return domain.Annotation{}, errors.New("model unavailable")
}

func TestSegment_AnnotatorErrorPropagates(t *testing.T) {
	s := New(failingAnnotator{annotatetest.New()}, Options{Workers: 1})
	_, err := s.Segment(context.Background(), "Chapter 1\n\nh\n\nbody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestSegment_ParallelKeepsOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("Chapter 1\n\nheader\n\n")
	for i := 0; i < 50; i++ {
		b.WriteString("para ")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString("\n\n")
	}
	s := New(annotatetest.New(), Options{Workers: 8})
	doc, err := s.Segment(context.Background(), b.String())
	require.NoError(t, err)
	ps := doc.Paragraphs()
	require.Len(t, ps, 50)
	for i, p := range ps {
		assert.Equal(t, "para "+strings.Repeat("x", i+1), p.Text)
	}
}
