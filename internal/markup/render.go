package markup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cbroglie/mustache"
)

// Keys under which pre-rendered fragments are exposed to the body.
const (
	HeaderKey = "HeaderHtml"
	TitleKey  = "TitleHtml"
	FooterKey = "FooterHtml"
)

// ErrTemplateNotFound is returned by stores for unknown template names.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateStore loads template sources by name.
type TemplateStore interface {
	Load(name string) (string, error)
}

// DirStore reads templates from a directory. Names are slash-separated
// paths relative to the root; names that leave the root are rejected.
type DirStore struct {
	root string
}

// NewDirStore returns a store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{root: dir}
}

// Load reads the named template.
func (s *DirStore) Load(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if name == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("template %q: path escapes template root", name)
	}

	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return "", fmt.Errorf("read template %s: %w", name, err)
	}
	return string(data), nil
}

// MapStore serves templates from memory.
type MapStore map[string]string

// Load returns the named template.
func (m MapStore) Load(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return src, nil
}

// partials adapts a store to mustache partial lookups. Missing partials
// render empty, as mustache specifies.
type partials struct {
	store TemplateStore
}

func (p partials) Get(name string) (string, error) {
	src, err := p.store.Load(name)
	if errors.Is(err, ErrTemplateNotFound) {
		return "", nil
	}
	return src, err
}

// Templates names the templates of one document. Only Body is required.
type Templates struct {
	Body   string
	Header string
	Title  string
	Footer string
}

// Renderer renders flattened contexts.
type Renderer struct {
	store TemplateStore
}

// NewRenderer returns a renderer loading templates from store.
func NewRenderer(store TemplateStore) *Renderer {
	return &Renderer{store: store}
}

// Render renders the header, title and footer templates first and exposes
// their output to the body as HeaderHtml, TitleHtml and FooterHtml. ctx is
// not modified.
func (r *Renderer) Render(ctx Context, t Templates) ([]byte, error) {
	if t.Body == "" {
		return nil, errors.New("markup: body template is required")
	}

	view := viewOf(ctx)
	for _, frag := range []struct{ key, name string }{
		{HeaderKey, t.Header},
		{TitleKey, t.Title},
		{FooterKey, t.Footer},
	} {
		if frag.name == "" {
			continue
		}
		out, err := r.render(frag.name, view)
		if err != nil {
			return nil, err
		}
		view[frag.key] = out
	}

	out, err := r.render(t.Body, view)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (r *Renderer) render(name string, view map[string]any) (string, error) {
	src, err := r.store.Load(name)
	if err != nil {
		return "", err
	}
	tmpl, err := mustache.ParseStringPartials(src, partials{store: r.store})
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", name, err)
	}
	out, err := tmpl.Render(view)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(out), nil
}

// viewOf copies ctx for rendering. Nil scalars become empty strings so
// they render as nothing instead of "<nil>".
func viewOf(ctx Context) map[string]any {
	view := make(map[string]any, len(ctx)+3)
	for k, v := range ctx {
		switch t := v.(type) {
		case nil:
			view[k] = ""
		case []Context:
			items := make([]map[string]any, len(t))
			for i, it := range t {
				items[i] = viewOf(it)
			}
			view[k] = items
		default:
			view[k] = v
		}
	}
	return view
}
