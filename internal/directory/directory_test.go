package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kidsact/admin-console/internal/domain"
)

type fakeSource struct {
	users map[string]domain.User
	calls [][]string
	err   error
}

func (f *fakeSource) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	f.calls = append(f.calls, ids)
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func TestLookupWithoutCacheDedupesIDs(t *testing.T) {
	src := &fakeSource{users: map[string]domain.User{
		"u1": {ID: "u1", Email: "one@example.com", Role: domain.RoleManager},
	}}
	d := NewCached(src, nil, time.Minute, zap.NewNop())

	got, err := d.Lookup(context.Background(), []string{"u1", "", "u1", "ghost"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 1 || got["u1"].Email != "one@example.com" {
		t.Fatalf("lookup = %v", got)
	}
	if len(src.calls) != 1 || len(src.calls[0]) != 2 {
		t.Fatalf("source calls = %v, want one call with [u1 ghost]", src.calls)
	}
}

func TestLookupEmptySkipsSource(t *testing.T) {
	src := &fakeSource{}
	d := NewCached(src, nil, 0, zap.NewNop())
	got, err := d.Lookup(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("lookup = %v, %v", got, err)
	}
	if len(src.calls) != 0 {
		t.Fatal("source should not be called")
	}
	d.Invalidate(context.Background(), "u1")
}

func TestLookupPropagatesSourceError(t *testing.T) {
	boom := errors.New("db down")
	d := NewCached(&fakeSource{err: boom}, nil, 0, zap.NewNop())
	if _, err := d.Lookup(context.Background(), []string{"u1"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
