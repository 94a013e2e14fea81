package browser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/browsercmd/pkg/browser/browsertest"
)

const articleHTML = `<html>
	<head>
		<title>Test Page</title>
		<meta name="description" content="Test description">
		<script>alert('evil');</script>
		<style>body { color: red; }</style>
	</head>
	<body>
		<h1 id="main-title">Hello World</h1>
		<p class="intro">This is a <strong>test</strong> of <a href="/docs">the docs</a>.</p>
		<ul><li>One</li><li>Two</li></ul>
		<form action="/submit" method="post">
			<input type="text" name="username" placeholder="Enter name" data-test="username-field" onclick="x()">
		</form>
	</body>
</html>`

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		name    string
		format  ContentFormat
		want    []string
		wantNot []string
	}{
		{
			name:    "html keeps structure and useful attributes",
			format:  FormatHTML,
			want:    []string{`<h1 id="main-title">`, "Hello World", `<p class="intro">`, `<a href="/docs">`, `<form action="/submit" method="post">`, `data-test="username-field"`, `placeholder="Enter name"`},
			wantNot: []string{"<script>", "alert", "<style>", "color: red", "onclick", "<title>"},
		},
		{
			name:    "text drops markup",
			format:  FormatText,
			want:    []string{"Hello World", "This is a test of the docs.", "One", "Two"},
			wantNot: []string{"<", "alert", "color: red"},
		},
		{
			name:    "markdown renders headings links and lists",
			format:  FormatMarkdown,
			want:    []string{"# Hello World", "This is a **test** of [the docs](/docs).", "- One", "- Two"},
			wantNot: []string{"alert", "<h1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanHTML(articleHTML, tt.format, 10000)
			require.NoError(t, err)
			assert.Equal(t, "Test Page", got.Title)
			assert.Equal(t, "Test description", got.Description)
			assert.False(t, got.Truncated)
			for _, w := range tt.want {
				assert.Contains(t, got.Body, w)
			}
			for _, w := range tt.wantNot {
				assert.NotContains(t, got.Body, w)
			}
		})
	}
}

func TestCleanHTMLTruncates(t *testing.T) {
	raw := "<html><body><p>" + strings.Repeat("word ", 100) + "</p></body></html>"

	got, err := CleanHTML(raw, FormatText, 20)
	require.NoError(t, err)
	assert.True(t, got.Truncated)
	assert.Equal(t, "word word word word ...", got.Body)
}

func TestCleanHTMLTruncatesOnRuneBoundary(t *testing.T) {
	got, err := CleanHTML("<p>héllo</p>", FormatText, 2)
	require.NoError(t, err)
	assert.Equal(t, "h...", got.Body)
}

func TestParseContentFormat(t *testing.T) {
	f, err := ParseContentFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	f, err = ParseContentFormat("TEXT")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseContentFormat("pdf")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSessionExtractContent(t *testing.T) {
	m, d := newTestManager()
	s, err := m.Ensure(context.Background())
	require.NoError(t, err)

	page := d.last().Page(0)
	page.HTML = articleHTML
	page.Elements["#list"] = &browsertest.Element{HTML: "<li>Only</li>"}
	page.Titles["https://a.test"] = "Live Title"
	page.Navigate("https://a.test")

	content, err := s.ExtractContent("", FormatText, 0)
	require.NoError(t, err)
	assert.Equal(t, "Test Page", content.Title)
	assert.Contains(t, content.Body, "Hello World")

	content, err = s.ExtractContent("#list", FormatMarkdown, 0)
	require.NoError(t, err)
	assert.Equal(t, "Live Title", content.Title)
	assert.Equal(t, "- Only", content.Body)
}
