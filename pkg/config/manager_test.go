package config

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSection is a test implementation of the Section interface
type mockSection struct {
	id          string
	data        map[string]interface{}
	validateErr error
}

func (m *mockSection) ID() string                                { return m.id }
func (m *mockSection) Title() string                             { return m.id }
func (m *mockSection) Description() string                       { return "" }
func (m *mockSection) Data() map[string]interface{}              { return m.data }
func (m *mockSection) SetData(data map[string]interface{}) error { m.data = data; return nil }
func (m *mockSection) Validate() error                           { return m.validateErr }
func (m *mockSection) Reset()                                    { m.data = make(map[string]interface{}) }

// mockStore is a test implementation of the Store interface
type mockStore struct {
	sections map[string]map[string]interface{}
	loadErr  error
	saveErr  error
	saves    int
}

func newMockStore() *mockStore {
	return &mockStore{sections: make(map[string]map[string]interface{})}
}

func (m *mockStore) Load() error { return m.loadErr }

func (m *mockStore) Save() error {
	m.saves++
	return m.saveErr
}

func (m *mockStore) GetSection(id string) (map[string]interface{}, error) {
	if data, ok := m.sections[id]; ok {
		return data, nil
	}
	return make(map[string]interface{}), nil
}

func (m *mockStore) SetSection(id string, data map[string]interface{}) error {
	m.sections[id] = data
	return nil
}

func (m *mockStore) GetAll() (map[string]map[string]interface{}, error) { return m.sections, nil }

func (m *mockStore) SetAll(data map[string]map[string]interface{}) error {
	m.sections = data
	return nil
}

func TestManager_RegisterSection(t *testing.T) {
	store := newMockStore()
	manager := NewManager(store)
	assert.Same(t, store, manager.Store())
	assert.Empty(t, manager.GetSections())

	require.NoError(t, manager.RegisterSection(&mockSection{id: "first"}))
	require.NoError(t, manager.RegisterSection(&mockSection{id: "second"}))
	require.NoError(t, manager.RegisterSection(&mockSection{id: "third"}))
	assert.Error(t, manager.RegisterSection(&mockSection{id: "second"}), "duplicate IDs are rejected")

	sections := manager.GetSections()
	require.Len(t, sections, 3)
	assert.Equal(t, "first", sections[0].ID())
	assert.Equal(t, "second", sections[1].ID())
	assert.Equal(t, "third", sections[2].ID())

	got, ok := manager.GetSection("second")
	require.True(t, ok)
	assert.Equal(t, "second", got.ID())

	_, ok = manager.GetSection("missing")
	assert.False(t, ok)
}

func TestManager_LoadAll(t *testing.T) {
	store := newMockStore()
	store.sections["a"] = map[string]interface{}{"key": "value"}

	manager := NewManager(store)
	a := &mockSection{id: "a", data: map[string]interface{}{}}
	b := &mockSection{id: "b", data: map[string]interface{}{"kept": true}}
	require.NoError(t, manager.RegisterSection(a))
	require.NoError(t, manager.RegisterSection(b))

	require.NoError(t, manager.LoadAll())
	assert.Equal(t, "value", a.data["key"])
	assert.Equal(t, true, b.data["kept"], "sections without stored data keep their defaults")

	store.loadErr = fmt.Errorf("load error")
	assert.Error(t, manager.LoadAll())
}

func TestManager_SaveAll(t *testing.T) {
	t.Run("saves every section", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		require.NoError(t, manager.RegisterSection(&mockSection{id: "a", data: map[string]interface{}{"k": 1}}))
		require.NoError(t, manager.RegisterSection(&mockSection{id: "b", data: map[string]interface{}{"k": 2}}))

		require.NoError(t, manager.SaveAll())
		assert.Equal(t, 1, store.sections["a"]["k"])
		assert.Equal(t, 2, store.sections["b"]["k"])
		assert.Equal(t, 1, store.saves)
	})

	t.Run("validates before writing", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		require.NoError(t, manager.RegisterSection(&mockSection{id: "ok", data: map[string]interface{}{"k": 1}}))
		require.NoError(t, manager.RegisterSection(&mockSection{id: "bad", validateErr: fmt.Errorf("bad")}))

		assert.Error(t, manager.SaveAll())
		assert.Empty(t, store.sections, "nothing is written when a section is invalid")
		assert.Zero(t, store.saves)
	})

	t.Run("store error", func(t *testing.T) {
		store := newMockStore()
		store.saveErr = fmt.Errorf("disk full")
		manager := NewManager(store)
		require.NoError(t, manager.RegisterSection(&mockSection{id: "a"}))

		assert.Error(t, manager.SaveAll())
	})
}

func TestManager_ResetAll(t *testing.T) {
	manager := NewManager(newMockStore())
	manager.ResetAll()

	a := &mockSection{id: "a", data: map[string]interface{}{"k": 1}}
	require.NoError(t, manager.RegisterSection(a))
	manager.ResetAll()
	assert.Empty(t, a.data)
}

func TestManager_ConcurrentRegistration(t *testing.T) {
	manager := NewManager(newMockStore())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = manager.RegisterSection(&mockSection{id: fmt.Sprintf("section%d", i)})
			manager.GetSections()
		}(i)
	}
	wg.Wait()

	assert.Len(t, manager.GetSections(), 10)
}
