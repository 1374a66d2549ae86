package refresh

import (
	"fmt"
	"net/url"
)

const (
	EntityParam     = "pot_id"
	DefaultEntityID = "1"
)

// ResolveEntityID reads pot_id from the page query, falling back to "1" when
// it is absent or empty.
func ResolveEntityID(q url.Values) string {
	return ResolveEntityIDOr(q, DefaultEntityID)
}

func ResolveEntityIDOr(q url.Values, fallback string) string {
	if id := q.Get(EntityParam); id != "" {
		return id
	}
	return fallback
}

func EntityIDFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse page url: %w", err)
	}
	return ResolveEntityID(u.Query()), nil
}
