package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wicchain/storage"
)

func TestFlushPromotesToParent(t *testing.T) {
	db := storage.NewMemDB()
	root := NewRootStore[string, uint64](StoreSysParam, "s", db)
	child := NewChildStore(root)

	child.Set("A", 11)
	if _, ok, _ := root.Get("A"); ok {
		t.Fatal("parent saw write before flush")
	}
	require.NoError(t, child.Flush())

	v, ok, err := root.Get("A")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(11), v)
}

func TestDropWithoutFlushLeavesParentUnchanged(t *testing.T) {
	db := storage.NewMemDB()
	root := NewRootStore[string, uint64](StoreSysParam, "s", db)
	root.Set("A", 1)
	require.NoError(t, root.Flush())

	child := NewChildStore(root)
	child.Set("A", 99)
	child = nil // dropped without flush
	_ = child

	v, ok, err := root.Get("A")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), v)
}

func TestTombstoneWinsOverParent(t *testing.T) {
	db := storage.NewMemDB()
	root := NewRootStore[string, uint64](StoreSysParam, "s", db)
	root.Set("A", 1)
	require.NoError(t, root.Flush())

	child := NewChildStore(root)
	child.Erase("A")
	if _, ok, _ := child.Get("A"); ok {
		t.Fatal("tombstoned key still visible")
	}
	// Parent unaffected until flush.
	if _, ok, _ := root.Get("A"); !ok {
		t.Fatal("parent lost key before flush")
	}
	require.NoError(t, child.Flush())
	if _, ok, _ := root.Get("A"); ok {
		t.Fatal("tombstone not promoted")
	}
	// Root flush pushes the delete into backing.
	require.NoError(t, root.Flush())
	if _, ok, _ := root.Get("A"); ok {
		t.Fatal("backing still holds deleted key")
	}
}

func TestUndoRestoresPreviousValues(t *testing.T) {
	db := storage.NewMemDB()
	store := NewRootStore[string, uint64](StoreSysParam, "s", db)
	store.Set("A", 1)
	store.Set("B", 2)

	log := NewUndoLog()
	store.SetUndoLog(log)
	store.Set("A", 100)
	store.Set("C", 3)
	store.Erase("B")
	require.Equal(t, 3, log.Len())

	log.Apply()

	v, ok, _ := store.Get("A")
	require.True(t, ok)
	require.Equal(t, uint64(1), v)
	v, ok, _ = store.Get("B")
	require.True(t, ok)
	require.Equal(t, uint64(2), v)
	if _, ok, _ := store.Get("C"); ok {
		t.Fatal("undo left an inserted key behind")
	}
}

func TestGetAllElementsMergesTiers(t *testing.T) {
	db := storage.NewMemDB()
	root := NewRootStore[string, uint64](StoreSysParam, "x", db)
	root.Set("p1", 1)
	root.Set("p2", 2)
	root.Set("q1", 9)
	require.NoError(t, root.Flush()) // into backing

	child := NewChildStore(root)
	child.Set("p3", 3)
	child.Erase("p2")

	elems, err := child.GetAllElements("p")
	require.NoError(t, err)
	require.Len(t, elems, 2)
	require.Equal(t, "p1", string(elems[0].Key))
	require.Equal(t, uint64(1), elems[0].Value)
	require.Equal(t, "p3", string(elems[1].Key))
	require.Equal(t, uint64(3), elems[1].Value)
}

func TestReadsSeePrecedingWritesInProgramOrder(t *testing.T) {
	db := storage.NewMemDB()
	store := NewRootStore[string, uint64](StoreSysParam, "s", db)
	store.Set("A", 1)
	v, ok, _ := store.Get("A")
	require.True(t, ok)
	require.Equal(t, uint64(1), v)
	store.Set("A", 2)
	v, _, _ = store.Get("A")
	require.Equal(t, uint64(2), v)
}
