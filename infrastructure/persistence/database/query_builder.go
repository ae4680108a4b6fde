package database

import (
	"strings"

	"gorm.io/gorm"
)

// QueryBuilder collects AND-joined predicates with their bound arguments. Values are never
// interpolated into the condition text.
type QueryBuilder struct {
	Conditions []string
	Args       []any
}

func (qb *QueryBuilder) Add(condition string, args ...any) {
	qb.Conditions = append(qb.Conditions, condition)
	qb.Args = append(qb.Args, args...)
}

// AddIf adds the predicate only when ok is true, which is how optional filters are expressed.
func (qb *QueryBuilder) AddIf(ok bool, condition string, args ...any) {
	if ok {
		qb.Add(condition, args...)
	}
}

func (qb *QueryBuilder) Build() (string, []any) {
	if len(qb.Conditions) == 0 {
		return "", nil
	}
	return strings.Join(qb.Conditions, " AND "), qb.Args
}

// Scope returns a gorm scope applying the built predicate, or a no-op when empty.
func (qb *QueryBuilder) Scope() func(*gorm.DB) *gorm.DB {
	where, args := qb.Build()
	return func(db *gorm.DB) *gorm.DB {
		if where == "" {
			return db
		}
		return db.Where(where, args...)
	}
}

// LikeEscape is the escape character used by ContainsPattern.
const LikeEscape = `\`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns s into a lowercase LIKE pattern matching s anywhere, with the wildcards
// in s taken literally. Pair it with "LOWER(col) LIKE ? ESCAPE '\'".
func ContainsPattern(s string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(s)) + "%"
}
