package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewDialect(t *testing.T) {
	if name := NewDialect("sqlite").Name(); name != "sqlite" {
		t.Fatalf("sqlite dialect name = %q", name)
	}
	if name := NewDialect("postgres").Name(); name != "postgres" {
		t.Fatalf("postgres dialect name = %q", name)
	}
	// Unknown drivers fall back to the default backend.
	if name := NewDialect("mystery").Name(); name != "postgres" {
		t.Fatalf("fallback dialect name = %q", name)
	}
}

func TestParamBuilderPlaceholders(t *testing.T) {
	cases := []struct {
		driver string
		first  string
		second string
	}{
		{"postgres", "$1", "$2"},
		{"sqlite", "?1", "?2"},
	}
	for _, tc := range cases {
		pb := NewDialect(tc.driver).NewParamBuilder()
		if ph := pb.Add("a"); ph != tc.first {
			t.Fatalf("%s: first placeholder = %q, want %q", tc.driver, ph, tc.first)
		}
		if ph := pb.Add(42); ph != tc.second {
			t.Fatalf("%s: second placeholder = %q, want %q", tc.driver, ph, tc.second)
		}
		if got := pb.Params(); !reflect.DeepEqual(got, []any{"a", 42}) {
			t.Fatalf("%s: params = %#v", tc.driver, got)
		}
	}
}

func TestIntervalDeleteExpr(t *testing.T) {
	for _, driver := range []string{"postgres", "sqlite"} {
		d := NewDialect(driver)
		pb := d.NewParamBuilder()
		expr := d.IntervalDeleteExpr("created_at", pb, "7")
		if !strings.Contains(expr, "created_at <") {
			t.Fatalf("%s: expr = %q", driver, expr)
		}
		if !strings.Contains(expr, d.Placeholder(1)) {
			t.Fatalf("%s: days not bound through the builder: %q", driver, expr)
		}
		if got := pb.Params(); !reflect.DeepEqual(got, []any{"7"}) {
			t.Fatalf("%s: params = %#v", driver, got)
		}
	}
}

func TestPostgresScanArray(t *testing.T) {
	d := &PostgresDialect{}
	cases := []struct {
		name string
		src  any
		want []string
	}{
		{"nil", nil, []string{}},
		{"slice passthrough", []string{"admin", "user"}, []string{"admin", "user"}},
		{"any slice", []any{"admin", "user"}, []string{"admin", "user"}},
		{"pg literal bytes", []byte("{admin,user}"), []string{"admin", "user"}},
		{"pg literal quoted", `{"admin","rule editor"}`, []string{"admin", "rule editor"}},
		{"pg empty", "{}", []string{}},
		{"json migrated row", `["admin"]`, []string{"admin"}},
	}
	for _, tc := range cases {
		got, err := d.ScanArray(tc.src)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %#v, want %#v", tc.name, got, tc.want)
		}
	}
}

func TestSQLiteArrayRoundTrip(t *testing.T) {
	d := &SQLiteDialect{}

	if p := d.ArrayParam(nil); p != "[]" {
		t.Fatalf("nil slice param = %#v", p)
	}
	param := d.ArrayParam([]string{"admin", "user"})
	got, err := d.ScanArray(param)
	if err != nil {
		t.Fatalf("scan own param: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"admin", "user"}) {
		t.Fatalf("round trip = %#v", got)
	}

	if got, err := d.ScanArray(""); err != nil || len(got) != 0 {
		t.Fatalf("empty text: got %#v, err %v", got, err)
	}
	if _, err := d.ScanArray("{not json}"); err == nil {
		t.Fatal("malformed array text must fail the scan")
	}
}

func TestMapErrorSentinels(t *testing.T) {
	cases := []struct {
		driver string
		msg    string
	}{
		{"postgres", `ERROR: duplicate key value violates unique constraint "formula_rules_pkey" (SQLSTATE 23505)`},
		{"sqlite", "constraint failed: UNIQUE constraint failed: _users.email (2067)"},
	}
	for _, tc := range cases {
		d := NewDialect(tc.driver)
		if err := d.MapError(nil); err != nil {
			t.Fatalf("%s: nil error mapped to %v", tc.driver, err)
		}
		plain := errors.New("connection reset")
		if err := d.MapError(plain); err != plain {
			t.Fatalf("%s: unrelated error rewritten to %v", tc.driver, err)
		}
		mapped := d.MapError(errors.New(tc.msg))
		if !errors.Is(mapped, ErrUniqueViolation) {
			t.Fatalf("%s: %q not mapped to ErrUniqueViolation, got %v", tc.driver, tc.msg, mapped)
		}
	}
}

func TestUniqueViolationFromDriver(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	insert := func() error {
		pb := s.Dialect.NewParamBuilder()
		sqlStr := fmt.Sprintf(
			"INSERT INTO _users (id, email, password_hash, roles) VALUES (%s, %s, %s, %s)",
			pb.Add(uuid.New().String()),
			pb.Add("taken@example.com"),
			pb.Add("x"),
			pb.Add(s.Dialect.ArrayParam(nil)),
		)
		_, err := Exec(ctx, s.DB, sqlStr, pb.Params()...)
		return err
	}

	if err := insert(); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := insert()
	if err == nil {
		t.Fatal("duplicate email must fail")
	}
	if !errors.Is(MapError(s.Dialect, err), ErrUniqueViolation) {
		t.Fatalf("duplicate email error = %v, want ErrUniqueViolation", err)
	}
}
