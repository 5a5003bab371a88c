package markup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leaf struct{ E int }

func (l leaf) Fields() []Field { return []Field{Scalar("E", l.E)} }

type inner struct{ C int }

func (i inner) Fields() []Field { return []Field{Scalar("C", i.C)} }

type outer struct {
	A int
	B inner
	D []leaf
}

func (o outer) Fields() []Field {
	return []Field{
		Scalar("A", o.A),
		Nested("B", o.B),
		Collection("D", o.D),
	}
}

func TestFlatten(t *testing.T) {
	ctx, err := Flatten(outer{A: 1, B: inner{C: 2}, D: []leaf{{E: 3}, {E: 4}}})
	require.NoError(t, err)

	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"A", "B_C", "D"}, keys)
	assert.Equal(t, 1, ctx["A"])
	assert.Equal(t, 2, ctx["B_C"])
	assert.Equal(t, []Context{{"E": 3}, {"E": 4}}, ctx["D"])
}

func TestFlatten_ShapeIndependentOfValues(t *testing.T) {
	a, err := Flatten(outer{})
	require.NoError(t, err)
	b, err := Flatten(outer{A: 9, B: inner{C: 9}, D: []leaf{{E: 1}}})
	require.NoError(t, err)

	assert.Len(t, a, len(b))
	for k := range a {
		assert.Contains(t, b, k)
	}
}

type dated struct {
	When    time.Time
	Maybe   *time.Time
	Amount  decimal.Decimal
	Comment *string
}

func (d dated) Fields() []Field {
	return []Field{
		Scalar("When", d.When),
		Scalar("Maybe", d.Maybe),
		Scalar("Amount", d.Amount),
		Scalar("Comment", d.Comment),
	}
}

func TestFlatten_Scalars(t *testing.T) {
	ctx, err := Flatten(dated{
		When:   time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
		Amount: decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)

	assert.Equal(t, "05/03/2024", ctx["When"])
	assert.Nil(t, ctx["Maybe"])
	assert.Equal(t, "12.5", ctx["Amount"])
	assert.Nil(t, ctx["Comment"])
}

type cyclic struct{ self *cyclic }

func (c *cyclic) Fields() []Field { return []Field{Nested("Self", c.self)} }

func TestFlatten_TooDeep(t *testing.T) {
	c := &cyclic{}
	c.self = c

	_, err := Flatten(c)
	assert.True(t, errors.Is(err, ErrTooDeep), "err = %v", err)
}

func TestRenderer_TwoPass(t *testing.T) {
	store := MapStore{
		"header.html": "<h1>{{Title}}</h1>",
		"footer.html": "<p>{{Footer}}</p>",
		"body.html":   "{{{HeaderHtml}}}|{{#Items}}[{{E}}]{{/Items}}|{{Missing}}|{{{FooterHtml}}}",
	}
	ctx := Context{
		"Title":   "Order",
		"Footer":  "page",
		"Missing": nil,
		"Items":   []Context{{"E": 1}, {"E": 2}},
	}

	out, err := NewRenderer(store).Render(ctx, Templates{Body: "body.html", Header: "header.html", Footer: "footer.html"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Order</h1>|[1][2]||<p>page</p>", string(out))

	// the input context is left untouched
	assert.NotContains(t, ctx, HeaderKey)
	assert.Nil(t, ctx["Missing"])
}

func TestRenderer_EscapesValues(t *testing.T) {
	store := MapStore{"b": "{{V}}"}
	out, err := NewRenderer(store).Render(Context{"V": "<b>&"}, Templates{Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;&amp;", string(out))
}

func TestRenderer_MissingTemplate(t *testing.T) {
	_, err := NewRenderer(MapStore{}).Render(Context{}, Templates{Body: "nope.html"})
	assert.True(t, errors.Is(err, ErrTemplateNotFound), "err = %v", err)

	_, err = NewRenderer(MapStore{}).Render(Context{}, Templates{})
	assert.Error(t, err)
}

func TestDirStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "partials"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r.html"), []byte("a {{> partials/sig.html}}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partials", "sig.html"), []byte("signed {{Who}}"), 0o644))

	store := NewDirStore(dir)

	out, err := NewRenderer(store).Render(Context{"Who": "x"}, Templates{Body: "r.html"})
	require.NoError(t, err)
	assert.Equal(t, "a signed x", string(out))

	tests := []string{"../secret.html", "/etc/passwd", "partials/../../x", ""}
	for _, name := range tests {
		_, err := store.Load(name)
		if assert.Error(t, err, name) {
			assert.True(t, strings.Contains(err.Error(), "escapes"), "Load(%q) error = %v", name, err)
		}
	}

	_, err = store.Load("absent.html")
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}
