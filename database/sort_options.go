package database

const (
	SortNameAsc     = "name_asc"
	SortNameNat     = "name_nat"
	SortCreatedDesc = "created_desc"
	SortCreatedAsc  = "created_asc"
)

const DefaultSortOrder = SortNameAsc

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortNameAsc, SortNameNat, SortCreatedDesc, SortCreatedAsc:
		return true
	default:
		return false
	}
}

// OrderClause maps a sort order to SQL. SortNameNat sorts by name in SQL and is
// refined in Go with a natural sort.
func OrderClause(order string) string {
	switch order {
	case SortCreatedDesc:
		return "created_at DESC, id DESC"
	case SortCreatedAsc:
		return "created_at ASC, id ASC"
	default:
		return "lastname ASC, firstname ASC, id ASC"
	}
}
