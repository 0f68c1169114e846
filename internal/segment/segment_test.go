// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper2cmap/internal/extract"
	"github.com/pdiddy/paper2cmap/internal/llm"
	"github.com/pdiddy/paper2cmap/internal/prompt"
	"github.com/pdiddy/paper2cmap/pkg/types"
)

// replying returns a client that answers every call with reply and counts calls.
func replying(reply string, calls *int) llm.Client {
	return llm.ClientFunc(func(_ context.Context, _ []llm.Message) (string, error) {
		*calls++
		return reply, nil
	})
}

func newSegmenter(t *testing.T, client llm.Client) *Segmenter {
	t.Helper()
	b, err := prompt.Default()
	require.NoError(t, err)
	return NewSegmenter(client, b, nil)
}

func TestIdentifyCatalogue(t *testing.T) {
	candidates := []string{"1. Introduction", "2. Method", "Figure 1: overview", "References"}

	tests := []struct {
		name    string
		reply   string
		want    []string
		wantErr error
	}{
		{
			name:  "titles in model order",
			reply: `{"titles": ["2. Method", "1. Introduction"]}`,
			want:  []string{"2. Method", "1. Introduction"},
		},
		{
			name:  "unknown titles dropped",
			reply: `{"titles": ["1. Introduction", "Introduction", "3. Results"]}`,
			want:  []string{"1. Introduction"},
		},
		{
			name:  "repeats dropped",
			reply: `{"titles": ["References", "References"]}`,
			want:  []string{"References"},
		},
		{
			name:  "surrounding whitespace tolerated",
			reply: "\n  {\"titles\": [\" 2. Method \"]}\n",
			want:  []string{"2. Method"},
		},
		{
			name:  "empty list",
			reply: `{"titles": []}`,
			want:  []string{},
		},
		{
			name:    "prose reply",
			reply:   "The titles are 1. Introduction and 2. Method.",
			wantErr: types.ErrMalformedModelOutput,
		},
		{
			name:    "code fence",
			reply:   "```json\n{\"titles\": []}\n```",
			wantErr: types.ErrMalformedModelOutput,
		},
		{
			name:    "missing titles key",
			reply:   `{"sections": ["1. Introduction"]}`,
			wantErr: types.ErrMalformedModelOutput,
		},
		{
			name:    "titles not strings",
			reply:   `{"titles": [1, 2]}`,
			wantErr: types.ErrMalformedModelOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			s := newSegmenter(t, replying(tt.reply, &calls))
			got, err := s.IdentifyCatalogue(context.Background(), candidates)
			assert.Equal(t, 1, calls)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentifyCatalogueSendsCandidates(t *testing.T) {
	var sent []llm.Message
	client := llm.ClientFunc(func(_ context.Context, msgs []llm.Message) (string, error) {
		sent = msgs
		return `{"titles": []}`, nil
	})
	s := newSegmenter(t, client)

	_, err := s.IdentifyCatalogue(context.Background(), []string{"1. Introduction"})
	require.NoError(t, err)
	require.NotEmpty(t, sent)
	assert.Equal(t, llm.RoleSystem, sent[0].Role)
	assert.Contains(t, sent[len(sent)-1].Content, `["1. Introduction"]`)
}

func TestIdentifyCatalogueNoCandidates(t *testing.T) {
	calls := 0
	s := newSegmenter(t, replying(`{"titles": []}`, &calls))

	got, err := s.IdentifyCatalogue(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, calls)
}

func TestIdentifyCatalogueClientError(t *testing.T) {
	boom := errors.New("connection refused")
	s := newSegmenter(t, llm.ClientFunc(func(context.Context, []llm.Message) (string, error) {
		return "", boom
	}))

	_, err := s.IdentifyCatalogue(context.Background(), []string{"1. Introduction"})
	require.ErrorIs(t, err, boom)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		catalogue []string
		want      []types.Section
	}{
		{
			name:      "two titles",
			text:      "1. Intro\nhello world\n2. Method\nwe did things\n",
			catalogue: []string{"1. Intro", "2. Method"},
			want: []types.Section{
				{Index: 0, Title: "1. Intro", Offset: 0, Text: "1. Intro\nhello world"},
				{Index: 1, Title: "2. Method", Offset: 21, Text: "2. Method\nwe did things"},
			},
		},
		{
			name:      "catalogue order does not matter",
			text:      "A title\naaa\nB title\nbbb",
			catalogue: []string{"B title", "A title"},
			want: []types.Section{
				{Index: 0, Title: "A title", Offset: 0, Text: "A title\naaa"},
				{Index: 1, Title: "B title", Offset: 12, Text: "B title\nbbb"},
			},
		},
		{
			name:      "text before first title is discarded",
			text:      "Preamble text. Abstract here\nbody",
			catalogue: []string{"Abstract"},
			want: []types.Section{
				{Index: 0, Title: "Abstract", Offset: 15, Text: "Abstract here\nbody"},
			},
		},
		{
			name:      "repeated title splits at every occurrence",
			text:      "Note one. Note two.",
			catalogue: []string{"Note"},
			want: []types.Section{
				{Index: 0, Title: "Note", Offset: 0, Text: "Note one."},
				{Index: 1, Title: "Note", Offset: 10, Text: "Note two."},
			},
		},
		{
			name:      "duplicate catalogue entries collapse",
			text:      "Intro x Method y",
			catalogue: []string{"Intro", "Intro", "Method"},
			want: []types.Section{
				{Index: 0, Title: "Intro", Offset: 0, Text: "Intro x"},
				{Index: 1, Title: "Method", Offset: 8, Text: "Method y"},
			},
		},
		{
			name:      "longer title wins at a shared offset",
			text:      "Results and Discussion\nbody",
			catalogue: []string{"Results", "Results and Discussion"},
			want: []types.Section{
				{Index: 0, Title: "Results and Discussion", Offset: 0, Text: "Results and Discussion\nbody"},
			},
		},
		{
			name:      "empty catalogue yields whole document",
			text:      "  just some text  ",
			catalogue: nil,
			want:      []types.Section{{Index: 0, Offset: 0, Text: "just some text"}},
		},
		{
			name:      "no title found yields whole document",
			text:      "body only",
			catalogue: []string{"Missing", ""},
			want:      []types.Section{{Index: 0, Offset: 0, Text: "body only"}},
		},
		{
			name:      "blank document yields no sections",
			text:      " \n\t ",
			catalogue: []string{"Intro"},
			want:      []types.Section{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text, tt.catalogue))
		})
	}
}

func TestSplitNineHundredCharacterDocument(t *testing.T) {
	intro := "1. Introduction" + strings.Repeat("a", 485)
	method := "2. Method" + strings.Repeat("b", 391)
	text := intro + method
	require.Len(t, text, 900)

	sections := Split(text, []string{"1. Introduction", "2. Method"})
	require.Len(t, sections, 2)
	assert.Equal(t, text[0:500], sections[0].Text)
	assert.Equal(t, text[500:900], sections[1].Text)
	assert.Equal(t, 500, sections[1].Offset)
}

// TestSplitProperties checks ordering, coverage, and start-of-section
// properties over generated documents.
func TestSplitProperties(t *testing.T) {
	titles := []string{"Abstract", "1. Introduction", "2. Related Work", "3. Method", "References"}

	for seed := 0; seed < 40; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			var b strings.Builder
			b.WriteString(strings.Repeat("p", seed%7))
			for i := 0; i < 1+seed%9; i++ {
				b.WriteString(titles[(seed+i*3)%len(titles)])
				b.WriteString(strings.Repeat("x", (seed*i)%13))
				b.WriteString("\n")
			}
			text := b.String()

			catalogue := append([]string(nil), titles...)
			sort.Sort(sort.Reverse(sort.StringSlice(catalogue)))
			sections := Split(text, catalogue)

			var want []int
			for _, title := range titles {
				want = append(want, findAll(text, title)...)
			}
			sort.Ints(want)
			require.Len(t, sections, len(want))

			for i, s := range sections {
				assert.Equal(t, i, s.Index)
				assert.Equal(t, want[i], s.Offset)
				assert.True(t, strings.HasPrefix(s.Text, s.Title), "section %d starts with %q", i, s.Title)
				if i > 0 {
					assert.Less(t, sections[i-1].Offset, s.Offset)
				}
				end := len(text)
				if i+1 < len(sections) {
					end = sections[i+1].Offset
				}
				assert.Equal(t, strings.TrimSpace(text[s.Offset:end]), s.Text)
			}
		})
	}
}

func TestFindAll(t *testing.T) {
	assert.Equal(t, []int{0, 2, 4}, findAll("aaaaaa", "aa"))
	assert.Equal(t, []int{1}, findAll("xyz", "yz"))
	assert.Nil(t, findAll("short", "much longer token"))
}

func TestSegment(t *testing.T) {
	ex := &extract.Extraction{
		FullText:  "Title page\nAbstract\nwe study x\n1. Introduction\nx matters",
		Fragments: []types.Fragment{{Text: "Title page"}, {Text: "Abstract"}, {Text: "1. Introduction"}},
	}
	calls := 0
	s := newSegmenter(t, replying(`{"titles": ["Abstract", "1. Introduction"]}`, &calls))

	catalogue, sections, err := s.Segment(context.Background(), ex)
	require.NoError(t, err)
	assert.Equal(t, []string{"Abstract", "1. Introduction"}, catalogue)
	require.Len(t, sections, 2)
	assert.Equal(t, "Abstract\nwe study x", sections[0].Text)
	assert.Equal(t, "1. Introduction\nx matters", sections[1].Text)
}

// --- Reader ---

type fakeExtractor struct {
	result *extract.Extraction
	err    error
}

func (f fakeExtractor) Extract(string) (*extract.Extraction, error) { return f.result, f.err }

func TestReaderRead(t *testing.T) {
	ex := &extract.Extraction{
		FullText: "1. Intro\nhello\n2. Method\nthings",
		Fragments: []types.Fragment{
			{Text: "1. Intro", Page: 1},
			{Text: "2. Method", Page: 1},
			{Text: "1. Intro", Page: 2},
		},
	}
	var sent []llm.Message
	client := llm.ClientFunc(func(_ context.Context, msgs []llm.Message) (string, error) {
		sent = msgs
		return `{"titles": ["1. Intro", "2. Method"]}`, nil
	})
	r := NewReader(fakeExtractor{result: ex}, newSegmenter(t, client), nil)

	paper, err := r.Read(context.Background(), "paper.pdf")
	require.NoError(t, err)
	assert.Equal(t, "paper.pdf", paper.Path)
	assert.Equal(t, []string{"1. Intro", "2. Method"}, paper.Catalogue)
	require.Len(t, paper.Sections, 2)
	assert.Equal(t, "2. Method\nthings", paper.Sections[1].Text)
	assert.Len(t, paper.Fragments, 3)
	assert.Contains(t, sent[len(sent)-1].Content, `["1. Intro","2. Method"]`)
}

func TestReaderReadErrors(t *testing.T) {
	t.Run("extraction", func(t *testing.T) {
		r := NewReader(fakeExtractor{err: fmt.Errorf("%w: opening x", types.ErrExtraction)}, newSegmenter(t, replying(`{}`, new(int))), nil)
		_, err := r.Read(context.Background(), "x.pdf")
		require.ErrorIs(t, err, types.ErrExtraction)
	})

	t.Run("malformed catalogue", func(t *testing.T) {
		ex := &extract.Extraction{FullText: "text", Fragments: []types.Fragment{{Text: "Intro"}}}
		r := NewReader(fakeExtractor{result: ex}, newSegmenter(t, replying(`not json`, new(int))), nil)
		_, err := r.Read(context.Background(), "x.pdf")
		require.ErrorIs(t, err, types.ErrMalformedModelOutput)
		assert.Contains(t, err.Error(), "x.pdf")
	})
}
