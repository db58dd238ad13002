package reviews

import "strings"

const reviewColumns = `id, title, author, rating, review_text, user_id, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match itself inside a LIKE pattern using ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// buildListSQL builds the filtered, sorted page query. q must be normalized.
func buildListSQL(q ListQuery) (string, []any) {
	sqlStr := `SELECT ` + reviewColumns + ` FROM reviews`

	var where []string
	var args []any

	if q.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.Title != "" {
		where = append(where, "title = ?")
		args = append(args, q.Title)
	}
	if q.Author != "" {
		where = append(where, "author = ?")
		args = append(args, q.Author)
	}
	if q.ReviewID != "" {
		where = append(where, "id = ?")
		args = append(args, q.ReviewID)
	}
	if q.SearchTerm != "" {
		where = append(where, `(ulower(title) LIKE ? ESCAPE '\' OR ulower(author) LIKE ? ESCAPE '\')`)
		kw := "%" + escapeLike(strings.ToLower(q.SearchTerm)) + "%"
		args = append(args, kw, kw)
	}

	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	dir := "DESC"
	if q.SortAsc {
		dir = "ASC"
	}
	// id breaks ties so offset paging is stable
	sqlStr += " ORDER BY " + sortColumns[q.SortField] + " " + dir + ", id " + dir
	sqlStr += " LIMIT ? OFFSET ?"
	args = append(args, q.PageSize, q.StartIndex)

	return sqlStr, args
}

// buildCountSQL counts reviews for the owner filter alone. The other list
// filters are deliberately not applied to the total.
func buildCountSQL(userID string) (string, []any) {
	if userID == "" {
		return `SELECT COUNT(*) FROM reviews`, nil
	}
	return `SELECT COUNT(*) FROM reviews WHERE user_id = ?`, []any{userID}
}
