package store

import (
	"strconv"
	"strings"

	"github.com/vbonduro/pantry/internal/db"
)

// rebind rewrites ? placeholders as $1, $2, ... for postgres. Queries in this
// package never contain a literal question mark.
func rebind(dialect db.Dialect, query string) string {
	if dialect != db.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
