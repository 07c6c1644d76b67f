package connection

import "database/sql"

// scanCapped drains rs into Rows, stopping after limit rows when limit > 0.
// Shared by all three dialect files since database/sql's Rows scanning
// shape is identical across drivers.
func scanCapped(rs *sql.Rows, limit int) (*Rows, error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}

	out := &Rows{Columns: cols}
	for rs.Next() {
		if limit > 0 && len(out.Rows) >= limit {
			break
		}

		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rs.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out.Rows = append(out.Rows, row)
	}
	return out, rs.Err()
}
