// Package inmemdb implements the repositories on top of in-process maps.
// Used by tests and the "inmem" database engine.
package inmemdb

import (
	"sort"
	"sync"
	"time"

	"github.com/trezcool/bursar/core/exam"
	"github.com/trezcool/bursar/core/familyfee"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/salary"
	"github.com/trezcool/bursar/core/school"
)

type table[T any] struct {
	mutex sync.RWMutex
	rows  map[string]*T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T)}
}

// all returns copies of every row. Callers must hold the lock.
func (t *table[T]) all() []T {
	rows := make([]T, 0, len(t.rows))
	for _, r := range t.rows {
		rows = append(rows, *r)
	}
	return rows
}

type DB struct {
	classes        *table[school.Class]
	students       *table[school.Student]
	teachers       *table[school.Teacher]
	subjects       *table[school.Subject]
	fees           *table[fee.Fee]
	familyFees     *table[familyfee.FamilyFee]
	salaries       *table[salary.Salary]
	financeEntries *table[finance.Entry]
	exams          *table[exam.Exam]
}

func Open() *DB {
	return &DB{
		classes:        newTable[school.Class](),
		students:       newTable[school.Student](),
		teachers:       newTable[school.Teacher](),
		subjects:       newTable[school.Subject](),
		fees:           newTable[fee.Fee](),
		familyFees:     newTable[familyfee.FamilyFee](),
		salaries:       newTable[salary.Salary](),
		financeEntries: newTable[finance.Entry](),
		exams:          newTable[exam.Exam](),
	}
}

// sortByCreation orders rows by creation time, then id.
func sortByCreation[T any](rows []T, key func(T) (time.Time, string)) {
	sort.Slice(rows, func(i, j int) bool {
		ti, idi := key(rows[i])
		tj, idj := key(rows[j])
		if ti.Equal(tj) {
			return idi < idj
		}
		return ti.Before(tj)
	})
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func cloneStrings(s []string) []string {
	return append([]string{}, s...)
}
