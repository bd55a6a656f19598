package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// apolloState is the normalized Apollo cache embedded in a Next.js page.
// Keys keep document order so extraction output is deterministic.
type apolloState struct {
	keys    []string
	objects map[string]json.RawMessage
}

func nextData(doc *goquery.Document) (*apolloState, error) {
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return nil, fmt.Errorf("__NEXT_DATA__: %w", ErrNoStructuredData)
	}

	var payload struct {
		Props struct {
			PageProps struct {
				ApolloState json.RawMessage `json:"__APOLLO_STATE__"`
			} `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(script.Text()), &payload); err != nil {
		return nil, fmt.Errorf("decoding __NEXT_DATA__: %w", err)
	}

	raw := payload.Props.PageProps.ApolloState
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("__APOLLO_STATE__: %w", ErrNoStructuredData)
	}

	state, err := decodeOrdered(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding __APOLLO_STATE__: %w", err)
	}
	return state, nil
}

func decodeOrdered(raw json.RawMessage) (*apolloState, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	state := &apolloState{objects: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if _, dup := state.objects[key]; !dup {
			state.keys = append(state.keys, key)
		}
		state.objects[key] = value
	}
	return state, nil
}

// withPrefix returns the keys starting with prefix, in document order
func (s *apolloState) withPrefix(prefix string) []string {
	var keys []string
	for _, k := range s.keys {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

// lookup decodes the object stored under key into v
func (s *apolloState) lookup(key string, v any) bool {
	raw, ok := s.objects[key]
	if !ok || key == "" {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// apolloRef is a pointer to another cache entry, or an inlined copy of it
type apolloRef struct {
	Ref string `json:"__ref"`
	ID  string `json:"id"`
}

// key returns the cache key referenced, trying the typename-qualified id
// when only a bare id is present
func (r *apolloRef) key(s *apolloState, typename string) string {
	if r == nil {
		return ""
	}
	if r.Ref != "" {
		return r.Ref
	}
	if r.ID == "" {
		return ""
	}
	if _, ok := s.objects[r.ID]; ok {
		return r.ID
	}
	return typename + ":" + r.ID
}

type apolloPhoto struct {
	HighResURL string `json:"highResUrl"`
	Source     string `json:"source"`
}

func (p apolloPhoto) url() string {
	if p.HighResURL != "" {
		return p.HighResURL
	}
	return p.Source
}
