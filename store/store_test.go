package store

import (
	"context"
	"errors"
	"testing"
)

// testStore runs the Store contract against st.
func testStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := st.Get(ctx, "economyData"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}
	if err := st.Set(ctx, "economyData", Value(`{"v":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := st.Get(ctx, "economyData")
	if err != nil || !ok || v != `{"v":1}` {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	if err := st.Set(ctx, "economyData", Value(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}
	if v, _, _ := st.Get(ctx, "economyData"); v != `{"v":2}` {
		t.Errorf("overwrite = %q", v)
	}
	if err := st.Set(ctx, "economyData", nil); err != nil {
		t.Fatalf("erase failed: %v", err)
	}
	if _, ok, _ := st.Get(ctx, "economyData"); ok {
		t.Error("key present after erase")
	}
	if err := st.Set(ctx, "never-set", nil); err != nil {
		t.Errorf("erasing a missing key: %v", err)
	}

	if l, ok := st.(Lister); ok {
		st.Set(ctx, "backups/b", Value("2"))
		st.Set(ctx, "backups/a", Value("1"))
		st.Set(ctx, "other", Value("x"))
		keys, err := l.List(ctx, "backups/")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(keys) != 2 || keys[0] != "backups/a" || keys[1] != "backups/b" {
			t.Errorf("List = %v", keys)
		}
	}
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	st, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	testStore(t, st)
}

func TestFile_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	a, _ := NewFile(dir)
	if err := a.Set(ctx, "shop/System Data", Value("blob")); err != nil {
		t.Fatal(err)
	}
	b, _ := NewFile(dir)
	if v, ok, _ := b.Get(ctx, "shop/System Data"); !ok || v != "blob" {
		t.Errorf("reopened Get = %q, %v", v, ok)
	}
}

func TestCached(t *testing.T) {
	st, err := NewCached(NewMemory(), 2)
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, st)
}

type countingStore struct {
	Store
	gets int
	fail bool
}

func (c *countingStore) Get(ctx context.Context, key string) (string, bool, error) {
	c.gets++
	return c.Store.Get(ctx, key)
}

func (c *countingStore) Set(ctx context.Context, key string, value *string) error {
	if c.fail {
		return errors.New("boom")
	}
	return c.Store.Set(ctx, key, value)
}

func TestCached_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: NewMemory()}
	c, _ := NewCached(inner, 8)

	c.Set(ctx, "k", Value("v"))
	for i := 0; i < 3; i++ {
		if v, ok, _ := c.Get(ctx, "k"); !ok || v != "v" {
			t.Fatalf("Get = %q, %v", v, ok)
		}
	}
	if inner.gets != 0 {
		t.Errorf("inner gets = %d, want 0", inner.gets)
	}

	c.Get(ctx, "missing")
	c.Get(ctx, "missing")
	if inner.gets != 1 {
		t.Errorf("inner gets = %d, want 1 (negative result cached)", inner.gets)
	}

	inner.fail = true
	if err := c.Set(ctx, "k", Value("new")); err == nil {
		t.Fatal("expected error")
	}
	inner.fail = false
	if v, _, _ := c.Get(ctx, "k"); v != "v" {
		t.Errorf("after failed write Get = %q, want old value", v)
	}
}

func TestPrefixed(t *testing.T) {
	inner := NewMemory()
	p := NewPrefixed(inner, "world1/")
	testStore(t, p)

	ctx := context.Background()
	p.Set(ctx, "economyData", Value("x"))
	if _, ok, _ := inner.Get(ctx, "world1/economyData"); !ok {
		t.Error("prefix not applied")
	}
	if _, ok, _ := NewPrefixed(inner, "world2/").Get(ctx, "economyData"); ok {
		t.Error("prefixes not isolated")
	}
}
