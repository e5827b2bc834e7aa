package retrieval

import (
	"strings"

	"github.com/yungbote/ragvault/internal/platform/apierr"
)

// SearchType is a closed set. Adding a member means handling it in
// Engine.Search, which panics on anything it does not know.
type SearchType int

const (
	SearchHybrid SearchType = iota
	SearchVector
	SearchLexical
)

func (t SearchType) String() string {
	switch t {
	case SearchVector:
		return "vector"
	case SearchLexical:
		return "lexical"
	case SearchHybrid:
		return "hybrid"
	}
	return "unknown"
}

func (t SearchType) needsVector() bool  { return t == SearchVector || t == SearchHybrid }
func (t SearchType) needsLexical() bool { return t == SearchLexical || t == SearchHybrid }

// ParseSearchType accepts the wire names. An empty string means hybrid.
func ParseSearchType(s string) (SearchType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hybrid":
		return SearchHybrid, nil
	case "vector":
		return SearchVector, nil
	case "lexical":
		return SearchLexical, nil
	}
	return 0, apierr.Invalid("search_type must be one of vector, lexical, hybrid")
}

func (t SearchType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *SearchType) UnmarshalText(b []byte) error {
	v, err := ParseSearchType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
