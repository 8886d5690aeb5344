package adapter

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
)

// htmlPage is a Canvas content page: a title, ordered meta tags and a
// body kept byte for byte.
type htmlPage struct {
	Title string
	Meta  []metaTag
	Body  string
}

type metaTag struct {
	Name    string
	Content string
}

func (p htmlPage) meta(name string) (string, bool) {
	for _, m := range p.Meta {
		if m.Name == name {
			return m.Content, true
		}
	}
	return "", false
}

func renderHTMLPage(p htmlPage) []byte {
	var b strings.Builder
	b.WriteString("<html>\n<head>\n")
	b.WriteString(`<meta http-equiv="Content-Type" content="text/html; charset=utf-8"/>` + "\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(p.Title))
	for _, m := range p.Meta {
		fmt.Fprintf(&b, "<meta name=\"%s\" content=\"%s\"/>\n", html.EscapeString(m.Name), html.EscapeString(m.Content))
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(p.Body)
	b.WriteString("\n</body>\n</html>\n")
	return []byte(b.String())
}

// parseHTMLPage reads back a page written by renderHTMLPage. The body is
// reassembled from the raw bytes of its tokens so markup is not
// re-serialized; everything up to the last </body> belongs to it.
func parseHTMLPage(data []byte) (htmlPage, error) {
	var (
		page    htmlPage
		body    bytes.Buffer
		inTitle bool
		inBody  bool
		sawBody bool
		bodyEnd = -1
	)

	z := xhtml.NewTokenizer(bytes.NewReader(data))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		raw := z.Raw()

		if inBody {
			if tt == xhtml.EndTagToken {
				if name, _ := z.TagName(); string(name) == "body" {
					bodyEnd = body.Len()
				}
			}
			body.Write(raw)
			continue
		}

		switch tt {
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "title":
				inTitle = tt == xhtml.StartTagToken
			case "meta":
				if m, ok := readMeta(z, hasAttr); ok {
					page.Meta = append(page.Meta, m)
				}
			case "body":
				inBody, sawBody = true, true
			}
		case xhtml.TextToken:
			if inTitle {
				page.Title += string(z.Text())
			}
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); string(name) == "title" {
				inTitle = false
			}
		}
	}

	if !sawBody {
		return htmlPage{}, fmt.Errorf("parse html: no <body>")
	}
	raw := body.Bytes()
	if bodyEnd >= 0 {
		raw = raw[:bodyEnd]
	}
	s := strings.TrimPrefix(string(raw), "\n")
	s = strings.TrimSuffix(s, "\n")
	page.Body = s
	return page, nil
}

func readMeta(z *xhtml.Tokenizer, hasAttr bool) (metaTag, bool) {
	var m metaTag
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		switch string(key) {
		case "name":
			m.Name = string(val)
		case "content":
			m.Content = string(val)
		}
	}
	return m, m.Name != ""
}
