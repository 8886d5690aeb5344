package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLPage_Layout(t *testing.T) {
	got := renderHTMLPage(htmlPage{
		Title: "A & B",
		Meta:  []metaTag{{"identifier", "g1"}},
		Body:  "<p>x</p>",
	})
	want := "<html>\n<head>\n" +
		`<meta http-equiv="Content-Type" content="text/html; charset=utf-8"/>` + "\n" +
		"<title>A &amp; B</title>\n" +
		`<meta name="identifier" content="g1"/>` + "\n" +
		"</head>\n<body>\n<p>x</p>\n</body>\n</html>\n"
	assert.Equal(t, want, string(got))
}

func TestParseHTMLPage_RoundTrip(t *testing.T) {
	bodies := []string{
		"",
		"<p>Hello</p>",
		"<p>Line one</p>\n<ul><li>a &amp; b</li></ul>",
		"trailing newline\n",
		"\nleading newline",
		"<img src=\"x.png\"/> <br> unclosed <b>bold",
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			in := htmlPage{
				Title: "Intro <1>",
				Meta:  []metaTag{{"identifier", "g1"}, {"workflow_state", "unpublished"}},
				Body:  body,
			}
			out, err := parseHTMLPage(renderHTMLPage(in))
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestParseHTMLPage_MissingBody(t *testing.T) {
	_, err := parseHTMLPage([]byte("<html><head><title>x</title></head></html>"))
	assert.Error(t, err)
}

func TestHTMLPage_Meta(t *testing.T) {
	p := htmlPage{Meta: []metaTag{{"workflow_state", "published"}}}
	v, ok := p.meta("workflow_state")
	assert.True(t, ok)
	assert.Equal(t, "published", v)
	_, ok = p.meta("identifier")
	assert.False(t, ok)
}
