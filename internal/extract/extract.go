// Package extract strips boilerplate from article HTML.
package extract

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Content is the readable part of a page.
type Content struct {
	Title    string
	Text     string
	ImageURL string
}

// Extract runs a readability pass over documentHTML. Entities are decoded and
// runs of whitespace collapsed. An error is returned only when pageURL is
// invalid; an unreadable page yields empty Content.
func Extract(documentHTML, pageURL string) (Content, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return Content{}, fmt.Errorf("parse page url: %w", err)
	}

	var out Content
	out.ImageURL = ogImage(documentHTML, parsedURL)

	if strings.TrimSpace(documentHTML) == "" {
		return out, nil
	}

	article, err := readability.FromReader(strings.NewReader(documentHTML), parsedURL)
	if err != nil {
		return out, nil
	}

	out.Title = clean(article.Title)
	out.Text = clean(article.TextContent)
	return out, nil
}

func ogImage(documentHTML string, base *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(documentHTML))
	if err != nil {
		return ""
	}

	content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	content = strings.TrimSpace(content)
	if !ok || content == "" {
		return ""
	}

	ref, err := url.Parse(content)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func clean(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
