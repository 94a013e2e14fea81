package browser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/browsercmd/pkg/browser"
	"github.com/entrhq/browsercmd/pkg/browser/browsertest"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

// testPDF builds a minimal PDF with the given number of empty pages and a
// correct cross-reference table.
func testPDF(pages int) []byte {
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages),
	}
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

func capturePage(p *browsertest.Page) {
	p.Image = pngBytes
	p.Elements["#logo"] = &browsertest.Element{
		Screenshot: []byte("logo"),
		Text:       "ACME",
		Attrs:      map[string]string{"href": "/home"},
	}
	p.Elements["#gone"] = &browsertest.Element{Err: errors.New("element is not attached to the DOM")}
}

func TestScreenshot(t *testing.T) {
	h := newHarness(t, capturePage)

	res := h.ok("screenshot", nil)
	images := res.Images()
	require.Len(t, images, 1)
	assert.Equal(t, "image/png", images[0].MimeType)
	assert.Equal(t, pngBytes, images[0].Data)
	assert.Contains(t, res.Text(), "Screenshot of viewport")
	assert.Equal(t, "screenshot fullPage=false", lastAction(t, h.page(0)))

	res = h.ok("screenshot", map[string]interface{}{"fullPage": true})
	assert.Contains(t, res.Text(), "Screenshot of full page")
	assert.Equal(t, "screenshot fullPage=true", lastAction(t, h.page(0)))

	res = h.ok("screenshot", map[string]interface{}{"selector": "#logo"})
	assert.Equal(t, []byte("logo"), res.Images()[0].Data)
	assert.Equal(t, "screenshot #logo", lastAction(t, h.page(0)))

	h.fail("screenshot", map[string]interface{}{"selector": "#gone"}, browser.KindDriver)
}

func TestScreenshotSavesInsideWorkspace(t *testing.T) {
	h := newHarness(t, capturePage)

	res := h.ok("screenshot", map[string]interface{}{"path": "shots/home.png"})
	want := filepath.Join(h.dir, "shots", "home.png")
	assert.Equal(t, want, res.Metadata["path"])
	assert.Contains(t, res.Text(), "saved to "+want)

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	res = h.fail("screenshot", map[string]interface{}{"path": "../escape.png"}, browser.KindPolicy)
	assert.Contains(t, res.Text(), "outside workspace boundaries")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(h.dir), "escape.png"))

	h.env.Workspace = nil
	res = h.fail("screenshot", map[string]interface{}{"path": "a.png"}, browser.KindPolicy)
	assert.Contains(t, res.Text(), "no workspace configured")
}

func TestPDF(t *testing.T) {
	h := newHarness(t, func(p *browsertest.Page) {
		p.PDFData = testPDF(2)
	})

	res := h.ok("pdf", map[string]interface{}{"path": "out/page.pdf"})
	want := filepath.Join(h.dir, "out", "page.pdf")
	assert.Equal(t, want, res.Metadata["path"])
	assert.Equal(t, 2, res.Metadata["pages"])
	assert.Contains(t, res.Text(), "Saved 2-page PDF to "+want)
	assert.FileExists(t, want)
	assert.Equal(t, "pdf", lastAction(t, h.page(0)))
}

func TestPDFWithUnreadablePageCount(t *testing.T) {
	h := newHarness(t, func(p *browsertest.Page) {
		p.PDFData = []byte("not a pdf")
	})

	res := h.ok("pdf", map[string]interface{}{"path": "broken.pdf"})
	assert.Contains(t, res.Text(), "page count unavailable")
	assert.NotContains(t, res.Metadata, "pages")
	assert.FileExists(t, filepath.Join(h.dir, "broken.pdf"))
}

func TestPdfPageCount(t *testing.T) {
	n, err := pdfPageCount(testPDF(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = pdfPageCount([]byte("%PDF-1.4\n"))
	assert.Error(t, err)
}

func TestGetTextAndAttribute(t *testing.T) {
	h := newHarness(t, capturePage)

	assert.Equal(t, "ACME", h.ok("getText", map[string]interface{}{"selector": "#logo"}).Text())

	res := h.ok("getAttribute", map[string]interface{}{"selector": "#logo", "attribute": "href"})
	assert.Equal(t, "/home", res.Text())
	assert.Equal(t, "href", res.Metadata["attribute"])

	assert.Equal(t, "", h.ok("getAttribute", map[string]interface{}{"selector": "#logo", "attribute": "title"}).Text())

	h.fail("getText", map[string]interface{}{"selector": "#gone"}, browser.KindDriver)
}

func TestEvaluate(t *testing.T) {
	h := newHarness(t, nil)
	h.ok("getUrl", nil)
	page := h.page(0)

	page.EvalResult = "Example Domain"
	res := h.ok("evaluate", map[string]interface{}{"script": "document.title"})
	assert.Contains(t, res.Text(), "Result:\nExample Domain")
	assert.Equal(t, []string{"document.title"}, page.Evaluated())

	page.EvalResult = map[string]interface{}{"links": 3}
	res = h.ok("evaluate", map[string]interface{}{"script": "({links: document.links.length})"})
	assert.Contains(t, res.Text(), "{\n  \"links\": 3\n}")

	page.EvalResult = nil
	page.EvalErr = errors.New("ReferenceError: foo is not defined")
	res = h.fail("evaluate", map[string]interface{}{"script": "foo.bar"}, browser.KindDriver)
	assert.Contains(t, res.Text(), "ReferenceError: foo is not defined")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"undefined", nil, "undefined"},
		{"string", "plain", "plain"},
		{"number", 42.5, "42.5"},
		{"bool", true, "true"},
		{"array", []interface{}{1, "a"}, "[\n  1,\n  \"a\"\n]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.value))
		})
	}

	// values JSON cannot encode fall back to their Go formatting
	assert.NotEmpty(t, formatValue(make(chan int)))
}

func TestExtractContent(t *testing.T) {
	h := newHarness(t, func(p *browsertest.Page) {
		p.HTML = `<html><head><title>Docs</title><meta name="description" content="All the docs"></head>
<body><script>track()</script><h1>Hello</h1><p>See <a href="/guide">the guide</a>.</p></body></html>`
		p.Elements["#intro"] = &browsertest.Element{HTML: "<p>Only the intro</p>"}
	})

	res := h.ok("extractContent", nil)
	text := res.Text()
	assert.Contains(t, text, "Title: Docs")
	assert.Contains(t, text, "Description: All the docs")
	assert.Contains(t, text, "# Hello")
	assert.Contains(t, text, "[the guide](/guide)")
	assert.NotContains(t, text, "track()")
	assert.Equal(t, "markdown", res.Metadata["format"])
	assert.Equal(t, false, res.Metadata["truncated"])

	res = h.ok("extractContent", map[string]interface{}{"format": "text"})
	assert.Contains(t, res.Text(), "See the guide.")

	res = h.ok("extractContent", map[string]interface{}{"selector": "#intro"})
	assert.Contains(t, res.Text(), "Only the intro")
	assert.NotContains(t, res.Text(), "Hello")
}
