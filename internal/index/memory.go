package index

// MemoryStore is an in-memory PreviewStore, used in tests and anywhere the
// on-disk index is not wanted.
type MemoryStore struct {
	previews map[int64]Preview
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{previews: make(map[int64]Preview)}
}

func (m *MemoryStore) Put(msgID int64, p Preview) error {
	m.previews[msgID] = p
	return nil
}

func (m *MemoryStore) Get(msgID int64) (*Preview, error) {
	p, ok := m.previews[msgID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryStore) Close() error { return nil }
