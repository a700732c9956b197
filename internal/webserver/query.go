package webserver

import (
	"strings"

	"gorm.io/gorm"
)

// LikeAny adds a case insensitive substring match of q against any of the columns.
// Postgres gets ILIKE, sqlite LOWER() LIKE.
func LikeAny(db *gorm.DB, q string, columns ...string) *gorm.DB {
	q = strings.TrimSpace(q)
	if q == "" || len(columns) == 0 {
		return db
	}
	format, arg := "LOWER(%s) LIKE ?", "%"+strings.ToLower(q)+"%"
	if strings.EqualFold(db.Dialector.Name(), "postgres") {
		format, arg = "%s ILIKE ?", "%"+q+"%"
	}
	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		conds[i] = strings.Replace(format, "%s", col, 1)
		args[i] = arg
	}
	return db.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// SortClause whitelists the sort column and direction, falling back to def DESC
func SortClause(field, order string, allowed map[string]string, def string) string {
	col, ok := allowed[strings.TrimSpace(field)]
	if !ok || col == "" {
		col = def
	}
	dir := strings.ToUpper(strings.TrimSpace(order))
	if dir != "ASC" && dir != "DESC" {
		dir = "DESC"
	}
	return col + " " + dir
}
