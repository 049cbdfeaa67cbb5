package presentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ---------------------------------------------------------------------------
// Test helpers — mock DB types
// ---------------------------------------------------------------------------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	data   [][]any
	idx    int
	err    error
	closed bool
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	return assignRow(row, dest)
}

// assignRow copies one row of column values into scan destinations, covering
// the column types the presentations table uses.
func assignRow(row []any, dest []any) error {
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		case **time.Time:
			if v == nil {
				*d = nil
			} else {
				tv := v.(time.Time)
				*d = &tv
			}
		default:
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
	}
	return nil
}

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// ---------------------------------------------------------------------------
// PostgresStore tests
// ---------------------------------------------------------------------------

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
				if !strings.Contains(sql, "CREATE TABLE") {
					t.Errorf("Migrate SQL should contain CREATE TABLE, got: %s", sql)
				}
				return pgconn.CommandTag{}, nil
			},
		}
		if err := NewPostgresStore(db).Migrate(context.Background()); err != nil {
			t.Fatalf("Migrate() unexpected error: %v", err)
		}
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, errors.New("connection refused")
			},
		}
		err := NewPostgresStore(db).Migrate(context.Background())
		if err == nil {
			t.Fatal("Migrate() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "presentation: migrate:") {
			t.Errorf("error = %q, want prefix 'presentation: migrate:'", err.Error())
		}
	})
}

func TestPostgresStore_Save(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("upsert with slides and generated_at", func(t *testing.T) {
		t.Parallel()

		var capturedSQL string
		var capturedArgs []any
		db := &mockDB{
			execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				capturedSQL = sql
				capturedArgs = args
				return pgconn.CommandTag{}, nil
			},
		}

		p := New("분기 발표", "deck.pdf", 2)
		p.CreatedAt = fixedTime
		p.FullScript = "전체 대본"
		p.FullScriptGeneratedAt = fixedTime
		sl, _ := p.Slide(1)
		sl.Notes = "- grafana"
		sl.Takes = []Take{{ID: "1700000000000", Transcript: "안녕하세요", TakeNumber: 1, Mode: ModeDraft}}
		p = p.WithSlide(sl)

		if err := NewPostgresStore(db).Save(context.Background(), p); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}
		if !strings.Contains(capturedSQL, "ON CONFLICT (id) DO UPDATE") {
			t.Errorf("Save SQL should upsert, got: %s", capturedSQL)
		}
		if len(capturedArgs) != 8 {
			t.Fatalf("Save passed %d args, want 8", len(capturedArgs))
		}
		if capturedArgs[0] != p.ID || capturedArgs[1] != "분기 발표" {
			t.Errorf("id/name args = %v, %v", capturedArgs[0], capturedArgs[1])
		}

		var slides []Slide
		if err := json.Unmarshal(capturedArgs[4].([]byte), &slides); err != nil {
			t.Fatalf("slides arg is not valid JSON: %v", err)
		}
		if len(slides) != 2 || len(slides[0].Takes) != 1 || slides[0].Takes[0].Transcript != "안녕하세요" {
			t.Errorf("slides JSON round-trip = %+v", slides)
		}

		generatedAt, ok := capturedArgs[6].(*time.Time)
		if !ok || generatedAt == nil || !generatedAt.Equal(fixedTime) {
			t.Errorf("full_script_generated_at arg = %v, want %v", capturedArgs[6], fixedTime)
		}
	})

	t.Run("zero generated_at stored as NULL", func(t *testing.T) {
		t.Parallel()

		var capturedArgs []any
		db := &mockDB{
			execFunc: func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
				capturedArgs = args
				return pgconn.CommandTag{}, nil
			},
		}

		if err := NewPostgresStore(db).Save(context.Background(), New("빈 발표", "", 1)); err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}
		if got := capturedArgs[6].(*time.Time); got != nil {
			t.Errorf("full_script_generated_at arg = %v, want nil for zero time", got)
		}
	})

	t.Run("exec error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, errors.New("violates something")
			},
		}
		if err := NewPostgresStore(db).Save(context.Background(), New("x", "", 1)); err == nil {
			t.Fatal("Save() expected error, got nil")
		}
	})
}

func TestPostgresStore_Get(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		slidesJSON, err := json.Marshal([]Slide{
			{Page: 1, Notes: "노트", Takes: []Take{{ID: "t1", Transcript: "안녕하세요", TakeNumber: 1, Mode: ModeFinal}}},
		})
		if err != nil {
			t.Fatalf("marshal fixture: %v", err)
		}

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
				if len(args) != 1 || args[0] != "p-1" {
					t.Errorf("Get args = %v, want [p-1]", args)
				}
				return &mockRow{scanFunc: func(dest ...any) error {
					return assignRow([]any{
						"p-1", "분기 발표", "deck.pdf", 1, []byte(slidesJSON),
						"전체 대본", fixedTime, fixedTime,
					}, dest)
				}}
			},
		}

		p, err := NewPostgresStore(db).Get(context.Background(), "p-1")
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if p.ID != "p-1" || p.Name != "분기 발표" || p.PageCount != 1 {
			t.Errorf("presentation = %+v", p)
		}
		if len(p.Slides) != 1 || len(p.Slides[0].Takes) != 1 || p.Slides[0].Takes[0].Mode != ModeFinal {
			t.Errorf("slides = %+v", p.Slides)
		}
		if !p.FullScriptGeneratedAt.Equal(fixedTime) {
			t.Errorf("FullScriptGeneratedAt = %v, want %v", p.FullScriptGeneratedAt, fixedTime)
		}
	})

	t.Run("null generated_at scans to zero time", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{scanFunc: func(dest ...any) error {
					return assignRow([]any{
						"p-1", "발표", "", 0, []byte(`[]`),
						"", nil, fixedTime,
					}, dest)
				}}
			},
		}

		p, err := NewPostgresStore(db).Get(context.Background(), "p-1")
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if !p.FullScriptGeneratedAt.IsZero() {
			t.Errorf("FullScriptGeneratedAt = %v, want zero", p.FullScriptGeneratedAt)
		}
	})

	t.Run("no rows maps to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		// The zero mockDB returns pgx.ErrNoRows from QueryRow.
		_, err := NewPostgresStore(&mockDB{}).Get(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})
}

func TestPostgresStore_List(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("orders rows as returned", func(t *testing.T) {
		t.Parallel()

		rows := &mockRows{data: [][]any{
			{"p-1", "첫 발표", "", 1, []byte(`[]`), "", nil, fixedTime},
			{"p-2", "둘째 발표", "", 2, []byte(`[]`), "", nil, fixedTime.Add(time.Hour)},
		}}
		db := &mockDB{
			queryFunc: func(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
				if !strings.Contains(sql, "ORDER BY created_at") {
					t.Errorf("List SQL should order by created_at, got: %s", sql)
				}
				return rows, nil
			},
		}

		got, err := NewPostgresStore(db).List(context.Background())
		if err != nil {
			t.Fatalf("List() unexpected error: %v", err)
		}
		if len(got) != 2 || got[0].ID != "p-1" || got[1].ID != "p-2" {
			t.Errorf("List() = %+v", got)
		}
		if !rows.closed {
			t.Error("List() did not close rows")
		}
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
				return nil, errors.New("connection refused")
			},
		}
		if _, err := NewPostgresStore(db).List(context.Background()); err == nil {
			t.Fatal("List() expected error, got nil")
		}
	})

	t.Run("rows error surfaces", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
				return &mockRows{err: errors.New("broken pipe")}, nil
			},
		}
		if _, err := NewPostgresStore(db).List(context.Background()); err == nil {
			t.Fatal("List() expected error, got nil")
		}
	})
}

func TestPostgresStore_Delete(t *testing.T) {
	t.Parallel()

	t.Run("deletes", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				if !strings.Contains(sql, "DELETE FROM presentations") {
					t.Errorf("Delete SQL = %s", sql)
				}
				if len(args) != 1 || args[0] != "p-1" {
					t.Errorf("Delete args = %v, want [p-1]", args)
				}
				return pgconn.NewCommandTag("DELETE 1"), nil
			},
		}
		if err := NewPostgresStore(db).Delete(context.Background(), "p-1"); err != nil {
			t.Fatalf("Delete() unexpected error: %v", err)
		}
	})

	t.Run("zero rows maps to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("DELETE 0"), nil
			},
		}
		if err := NewPostgresStore(db).Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete() error = %v, want ErrNotFound", err)
		}
	})
}
