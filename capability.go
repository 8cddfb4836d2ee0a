package homepage

// Platform capabilities the playground depends on.  Each front-end injects
// its own: the web server backs Storage with a per-visitor bbolt bucket and
// Query with the request URL, the terminal UI uses the local bbolt file and
// the system clipboard.

// Storage is a best-effort persistent key-value store.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Query reads a parameter from the page address.  ok is false when the
// parameter is absent.
type Query interface {
	Param(name string) (value string, ok bool, err error)
}

// Clipboard receives copied output.
type Clipboard interface {
	WriteText(text string) error
}

// QueryMap is a Query over a fixed set of parameters.
type QueryMap map[string]string

// Param implements Query.
func (q QueryMap) Param(name string) (string, bool, error) {
	v, ok := q[name]
	return v, ok, nil
}

const (
	// CodeParam is the page parameter carrying initial source text.
	CodeParam = "code"
	// CodeKey is the storage key holding the last evaluated source text.
	CodeKey = "yini:playground:code"
	// ThemeKey is the storage key holding the theme preference.
	ThemeKey = "theme"
)

// DefaultSnippet is the sample shown on a first visit.
const DefaultSnippet = `^ App
name = "Demo"
version = "1.0.0"
features = ["search", "dark-mode"] # comments allowed

^ Database
host = "localhost"
port = 5432
auth = { user: "admin", pass: "secret" }
`

// InitialText picks the text a playground opens with: the code parameter,
// then the persisted draft, then DefaultSnippet.  Read failures count as
// "nothing saved"; either capability may be nil.
func InitialText(q Query, st Storage) string {
	if q != nil {
		if v, ok, err := q.Param(CodeParam); err == nil && ok && v != "" {
			return v
		}
	}
	if st != nil {
		if v, err := st.Get(CodeKey); err == nil && v != "" {
			return v
		}
	}
	return DefaultSnippet
}
