package gorm

import (
	"gorm.io/gorm/clause"
)

// eq builds a quoted equality condition on column.
func eq(column string, value any) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: column}, Value: value}
}

// chronological orders rows oldest first. Record ids are uuid v7, so the
// id tiebreak keeps insertion order for equal timestamps.
func chronological() clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "timestamp"}},
		{Column: clause.Column{Name: "id"}},
	}}
}
