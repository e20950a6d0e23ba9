package divergence

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcile(t *testing.T) {
	r := Reconcile([]string{"users", "orders", "items"}, []string{"payments", "users", "items"})
	assert.Equal(t, []string{"orders"}, r.Missing)
	assert.Equal(t, []string{"payments"}, r.Extra)
	assert.Equal(t, []string{"users", "items"}, r.Common)
}

func TestReconcileIsCaseSensitive(t *testing.T) {
	r := Reconcile([]string{"Users"}, []string{"users"})
	assert.Equal(t, []string{"Users"}, r.Missing)
	assert.Equal(t, []string{"users"}, r.Extra)
	assert.Empty(t, r.Common)
}

func TestReconcileEmptyAndDuplicates(t *testing.T) {
	r := Reconcile(nil, nil)
	assert.Empty(t, r.Missing)
	assert.Empty(t, r.Extra)
	assert.Empty(t, r.Common)

	r = Reconcile([]string{"a", "a", "b"}, []string{"b", "c", "c"})
	assert.Equal(t, []string{"a"}, r.Missing)
	assert.Equal(t, []string{"c"}, r.Extra)
	assert.Equal(t, []string{"b"}, r.Common)
}

func TestReconcilePartitionsTheUnion(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	randomSet := func() []string {
		var names []string
		seen := map[string]bool{}
		for i := rnd.Intn(30); i > 0; i-- {
			name := fmt.Sprintf("t%d", rnd.Intn(40))
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		return names
	}

	for i := 0; i < 200; i++ {
		a, b := randomSet(), randomSet()
		r := Reconcile(a, b)

		assert.Equal(t, len(a), len(r.Missing)+len(r.Common))
		assert.Equal(t, len(b), len(r.Extra)+len(r.Common))

		inA, inB := toSet(a), toSet(b)
		for _, name := range r.Missing {
			assert.True(t, inA[name] && !inB[name], name)
		}
		for _, name := range r.Extra {
			assert.True(t, inB[name] && !inA[name], name)
		}
		for _, name := range r.Common {
			assert.True(t, inA[name] && inB[name], name)
		}

		union := toSet(append(append([]string{}, a...), b...))
		parts := append(append(append([]string{}, r.Missing...), r.Extra...), r.Common...)
		assert.Len(t, parts, len(union))
		assert.Equal(t, union, toSet(parts))
	}
}

func TestFoldRows(t *testing.T) {
	rows := []Row{
		{"TABLE_NAME": "b", "ENGINE": "InnoDB"},
		{"TABLE_NAME": []byte("a"), "ENGINE": "MyISAM"},
		{"TABLE_NAME": "skip"},
	}
	k, ok := foldRows(rows, TableKey, func(name string) bool { return name != "skip" })
	assert.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, k.names)
	assert.Equal(t, "MyISAM", k.rows["a"]["ENGINE"])

	_, ok = foldRows([]Row{{"TABLE_NAME": nil}}, TableKey, nil)
	assert.False(t, ok)
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
