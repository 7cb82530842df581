package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubRepo struct{ kind string }

func (stubRepo) EnsureSchema(context.Context) error                   { return nil }
func (stubRepo) InsertEvents(context.Context, []Event) (int64, error) { return 0, nil }
func (stubRepo) TopColors(context.Context, string, string, int) ([]ColorCount, error) {
	return nil, nil
}
func (stubRepo) Close() {}

func TestRegisterAndNew(t *testing.T) {
	Register("stub", func(ctx context.Context, cfg Config) (Repository, error) {
		return stubRepo{kind: cfg.Kind}, nil
	})

	repo, err := New(context.Background(), Config{Kind: "stub"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := repo.(stubRepo); !ok {
		t.Fatalf("New returned %T", repo)
	}
}

func TestNewUnknownKindListsRegistered(t *testing.T) {
	Register("stub", func(ctx context.Context, cfg Config) (Repository, error) {
		return stubRepo{}, nil
	})

	_, err := New(context.Background(), Config{Kind: "clickhouse"})
	if err == nil {
		t.Fatal("New succeeded for unknown kind")
	}
	if !strings.Contains(err.Error(), "clickhouse") || !strings.Contains(err.Error(), "stub") {
		t.Errorf("error %q should name the unknown kind and list registered ones", err)
	}
}

func TestNewPropagatesFactoryError(t *testing.T) {
	boom := errors.New("dial failed")
	Register("failing", func(ctx context.Context, cfg Config) (Repository, error) {
		return nil, boom
	})

	_, err := New(context.Background(), Config{Kind: "failing"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want factory error", err)
	}
}

func TestUserKeyStable(t *testing.T) {
	const id = "p0sXpmkcmg1KLiCdK5e4xKdudb1f8cjscGs35082sKpGBfQIw92nZ7yGvWbQ/ggB1+kkRBaYu1zy6n16yL/yjA=="
	a, b := UserKey(id), UserKey(id)
	if a != b {
		t.Fatalf("UserKey not deterministic: %x vs %x", a, b)
	}
	if UserKey(id) == UserKey(id+"x") {
		t.Fatal("distinct ids collided")
	}
	if UserKey("") == 0 {
		t.Skip("zero hash for empty id is legal but unexpected for xxh3")
	}
}

func TestParseCoordinate(t *testing.T) {
	cases := []struct {
		in      string
		x, y    int
		wantErr bool
	}{
		{in: "0,0", x: 0, y: 0},
		{in: "1999,1999", x: 1999, y: 1999},
		{in: " 12 , 34 ", x: 12, y: 34},
		{in: "5,10,20,30", x: 5, y: 10}, // rectangle event → first corner
		{in: "42", wantErr: true},
		{in: "a,b", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		x, y, err := ParseCoordinate(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseCoordinate(%q) = (%d,%d), want error", tc.in, x, y)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCoordinate(%q): %v", tc.in, err)
			continue
		}
		if x != tc.x || y != tc.y {
			t.Errorf("ParseCoordinate(%q) = (%d,%d), want (%d,%d)", tc.in, x, y, tc.x, tc.y)
		}
	}
}
