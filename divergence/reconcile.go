package divergence

// Reconciliation splits the names of two sides into three disjoint lists.
type Reconciliation struct {
	Missing []string // in source, not in destination
	Extra   []string // in destination, not in source
	Common  []string
}

// Reconcile compares two name sequences. Missing and Common keep the order of
// source, Extra keeps the order of dest, duplicates are reported once.
func Reconcile(source, dest []string) Reconciliation {
	inSource := make(map[string]bool, len(source))
	for _, name := range source {
		inSource[name] = true
	}
	inDest := make(map[string]bool, len(dest))
	for _, name := range dest {
		inDest[name] = true
	}

	var r Reconciliation
	seen := make(map[string]bool, len(source))
	for _, name := range source {
		if seen[name] {
			continue
		}
		seen[name] = true
		if inDest[name] {
			r.Common = append(r.Common, name)
		} else {
			r.Missing = append(r.Missing, name)
		}
	}

	seen = make(map[string]bool, len(dest))
	for _, name := range dest {
		if seen[name] || inSource[name] {
			continue
		}
		seen[name] = true
		r.Extra = append(r.Extra, name)
	}

	return r
}

// keyedRows is a query result folded by its key column, keeping row order.
type keyedRows struct {
	names []string
	rows  map[string]Row
}

func foldRows(rows []Row, key string, keep func(string) bool) (keyedRows, bool) {
	k := keyedRows{rows: make(map[string]Row, len(rows))}
	for _, row := range rows {
		name, ok := keyName(row[key])
		if !ok {
			return k, false
		}
		if keep != nil && !keep(name) {
			continue
		}
		if _, dup := k.rows[name]; !dup {
			k.names = append(k.names, name)
		}
		k.rows[name] = row
	}
	return k, true
}

func keyName(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		if t == nil {
			return "", false
		}
		return string(t), true
	default:
		return "", false
	}
}
