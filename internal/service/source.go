package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxSourceBytes caps how much of a remote document is read.
const maxSourceBytes = 32 << 20

var sourceClient = &http.Client{Timeout: 60 * time.Second}

// ReadSource loads document text from a local file or an http(s) URL.
// HTML content is reduced to its visible text, one blank line between blocks.
func ReadSource(ctx context.Context, src string) (string, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		data, err := os.ReadFile(src)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", src, err)
		}
		switch strings.ToLower(filepath.Ext(src)) {
		case ".html", ".htm", ".xhtml":
			return htmlText(strings.NewReader(string(data)))
		}
		return string(data), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", src, err)
	}
	req.Header.Set("Accept", "text/plain, text/html;q=0.9")
	resp, err := sourceClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching %s: %s", src, resp.Status)
	}
	body := io.LimitReader(resp.Body, maxSourceBytes)
	if isHTML(resp.Header.Get("Content-Type")) {
		text, err := htmlText(body)
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", src, err)
		}
		return text, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", src, err)
	}
	return string(data), nil
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "blockquote": true,
	"pre": true, "li": true, "ul": true, "ol": true, "table": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "body": true,
}

var (
	spaceRun   = regexp.MustCompile(`[ \t\f\v]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// htmlText extracts the visible text of an HTML document. Script, style and
// head content is dropped.
func htmlText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("head, script, style, noscript, template, svg").Remove()

	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			switch {
			case name == "#text":
				b.WriteString(c.Text())
			case name == "br":
				b.WriteString("\n")
			case blockElements[name]:
				b.WriteString("\n\n")
				walk(c)
				b.WriteString("\n\n")
			case strings.HasPrefix(name, "#"):
				// comments
			default:
				walk(c)
			}
		})
	}
	walk(doc.Selection)

	lines := strings.Split(strings.ReplaceAll(b.String(), "\r", ""), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}
	text := newlineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text), nil
}
