package engine

import "luamend/pkg/value"

// tableStore is the arena behind every TableRef produced during a run.
// Tables are interned once and addressed by index so that aliasing works:
// two references to the same id observe each other's mutations.
type tableStore struct {
	tables []*value.Table
}

func (s *tableStore) insert(t *value.Table) value.TableID {
	id := value.TableID(len(s.tables))
	s.tables = append(s.tables, t)
	return id
}

// get panics on an unknown id: references are only minted by insert, so a
// dangling one indicates a bug in the engine rather than bad input.
func (s *tableStore) get(id value.TableID) *value.Table {
	index := int(id)
	if index < 0 || index >= len(s.tables) {
		panic("engine: table id out of range")
	}
	return s.tables[index]
}

func (s *tableStore) len() int {
	return len(s.tables)
}
