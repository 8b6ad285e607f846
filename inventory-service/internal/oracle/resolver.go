package oracle

import (
	"strings"
	"unicode"
)

// Resolver reconciles catalog book ids with ledger SKU codes. The catalog and
// the ledger were keyed independently, so a book may be stocked under its
// id, an explicit alias, or a slug of its title.
type Resolver struct {
	aliases map[string]string
}

func NewResolver(aliases map[string]string) *Resolver {
	a := make(map[string]string, len(aliases))
	for k, v := range aliases {
		a[k] = v
	}
	return &Resolver{aliases: a}
}

// Candidates lists the SKU codes to try for bookID, most specific first,
// without duplicates.
func (r *Resolver) Candidates(bookID string) []string {
	out := make([]string, 0, 3)
	add := func(sku string) {
		if sku == "" {
			return
		}
		for _, c := range out {
			if c == sku {
				return
			}
		}
		out = append(out, sku)
	}

	add(bookID)
	add(r.aliases[bookID])
	add(Slug(bookID))
	return out
}

// Slug lower-cases s and collapses every run of non-alphanumerics into a
// single underscore, trimming underscores at both ends.
// "The Mythical Man-Month" becomes "the_mythical_man_month".
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}
