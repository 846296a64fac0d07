package database

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// ExistsQuery builds "is column=value used by a row other than excludeID" for table.
// excludeID zero excludes nothing.
func ExistsQuery(table, column, value string, excludeID uint) (string, []any, error) {
	inner := psql.Select("1").
		From(table).
		Where(sq.Eq{column: value}).
		Limit(1)
	if excludeID != 0 {
		inner = inner.Where(sq.NotEq{"id": excludeID})
	}
	innerSQL, args, err := inner.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build exists query for %s.%s: %w", table, column, err)
	}
	return "SELECT EXISTS(" + innerSQL + ")", args, nil
}

// PeopleFilter narrows the people listing.
type PeopleFilter struct {
	Search      string
	DancingRole string
	Couple      *bool
}

// PeopleWhere returns the WHERE clause and args for filter, empty when nothing is set.
func PeopleWhere(filter PeopleFilter) (string, []any, error) {
	and := sq.And{}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		and = append(and, sq.Or{
			sq.Like{"firstname": like},
			sq.Like{"lastname": like},
			sq.Like{"email": like},
		})
	}
	if filter.DancingRole != "" {
		and = append(and, sq.Eq{"dancing_role": filter.DancingRole})
	}
	if filter.Couple != nil {
		and = append(and, sq.Eq{"couple": *filter.Couple})
	}
	if len(and) == 0 {
		return "", nil, nil
	}
	where, args, err := and.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build people filter: %w", err)
	}
	return where, args, nil
}
