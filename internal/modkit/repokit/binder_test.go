package repokit

import (
	"context"
	"testing"
)

type fakeRepo struct{ q Queryer }

type fakeQueryer struct{}

func (fakeQueryer) Exec(context.Context, string, ...any) (CommandTag, error) { return nil, nil }
func (fakeQueryer) Query(context.Context, string, ...any) (Rows, error)      { return nil, nil }
func (fakeQueryer) QueryRow(context.Context, string, ...any) Row             { return nil }

func TestBindFunc(t *testing.T) {
	t.Parallel()

	b := BindFunc[fakeRepo](func(q Queryer) fakeRepo { return fakeRepo{q: q} })
	q := fakeQueryer{}
	got := MustBind[fakeRepo](b, q)
	if got.q != Queryer(q) {
		t.Fatalf("bound repo did not capture queryer")
	}
}

func TestMustBindPanicsOnNil(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on nil queryer")
		}
	}()
	b := BindFunc[fakeRepo](func(q Queryer) fakeRepo { return fakeRepo{q: q} })
	_ = MustBind[fakeRepo](b, nil)
}
