package extract

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(sels []*goquery.Selection) []string {
	out := make([]string, 0, len(sels))
	for _, s := range sels {
		out = append(out, cleanText(s))
	}
	return out
}

func TestCascade_First(t *testing.T) {
	doc := mustDoc(t, `<h2 class="title">  </h2><h3>Platform   Engineer</h3><h2 class="title">Later</h2>`)
	c := MustCompile("h2.title", "h3")

	s, ok := c.First(doc.Selection, func(s *goquery.Selection) bool { return cleanText(s) != "" })
	require.True(t, ok)
	assert.Equal(t, "Later", cleanText(s), "earlier selector wins over document order")

	text, ok := MustCompile("h3", "h2.title").FirstText(doc.Selection, nil)
	require.True(t, ok)
	assert.Equal(t, "Platform Engineer", text)

	_, ok = MustCompile("article").First(doc.Selection, nil)
	assert.False(t, ok)
}

func TestCascade_All(t *testing.T) {
	doc := mustDoc(t, `<span class="tag a">Go</span><span class="tag">Rust</span><em class="a">SQL</em>`)
	c := MustCompile(".tag", ".a")

	assert.Equal(t, []string{"Go", "Rust", "SQL"}, texts(c.All(doc.Selection)))
	assert.Empty(t, MustCompile("table").All(doc.Selection))
}

func TestCascade_Group(t *testing.T) {
	doc := mustDoc(t, `
<div class="card" id="outer">
  <div class="card">one</div>
  <div class="card">two</div>
</div>
<li class="item">fallback</li>`)

	got := MustCompile("div.card", "li.item").Group(doc.Selection, nil)
	assert.Equal(t, []string{"one", "two"}, texts(got))

	got = MustCompile("div.card", "li.item").Group(doc.Selection, func(s *goquery.Selection) bool {
		return s.Is("li")
	})
	assert.Equal(t, []string{"fallback"}, texts(got))
}

func TestCompile_InvalidSelector(t *testing.T) {
	_, err := Compile([]string{"div.ok", "div[unclosed"})
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile("::bogus(") })
}
