package schema

import (
	"reflect"
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/go-cmp/cmp"
)

const (
	userName  = "github.com/hugr-lab/listfilter/schema.user"
	auditName = "github.com/hugr-lab/listfilter/schema.audit"
)

type audit struct {
	CreatedBy string
	createdAt int64
}

type user struct {
	audit
	GivenName string
	Surname   string
	Age       int
	password  string
}

func TestFromType(t *testing.T) {
	tests := []struct {
		name     string
		typ      reflect.Type
		wantName string
		want     []string
	}{
		{
			name:     "struct",
			typ:      reflect.TypeFor[user](),
			wantName: userName,
			want:     []string{"Age", "CreatedBy", "GivenName", "Surname"},
		},
		{
			name:     "pointer to struct",
			typ:      reflect.TypeFor[**user](),
			wantName: userName,
			want:     []string{"Age", "CreatedBy", "GivenName", "Surname"},
		},
		{
			name:     "non-struct",
			typ:      reflect.TypeFor[int](),
			wantName: "int",
			want:     []string{},
		},
		{
			name:     "nil type",
			typ:      nil,
			wantName: "",
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := FromType(tt.typ)
			if s.Name() != tt.wantName {
				t.Errorf("expected name '%s', got '%s'", tt.wantName, s.Name())
			}
			if diff := cmp.Diff(tt.want, s.Fields()); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOf(t *testing.T) {
	s := Of[user]()
	if !s.Has("GivenName") {
		t.Error("expected GivenName to be declared")
	}
	if s.Has("password") {
		t.Error("expected unexported field to be skipped")
	}
	if s.Has("audit") {
		t.Error("expected embedded struct itself to be skipped")
	}
	if !s.HasField(userName, "Surname") {
		t.Error("expected HasField to match own type name")
	}
	if s.HasField(auditName, "Surname") {
		t.Error("expected HasField to reject other type names")
	}
}

func TestFromArrow(t *testing.T) {
	as := arrow.NewSchema([]arrow.Field{
		{Name: "GivenName", Type: arrow.BinaryTypes.String},
		{Name: "Age", Type: arrow.PrimitiveTypes.Int64},
		{Name: "Enabled", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	}, nil)

	s := FromArrow(userName, as)

	want := []string{"Age", "Enabled", "GivenName"}
	if diff := cmp.Diff(want, s.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if s.Has("Surname") {
		t.Error("expected Surname to be undeclared")
	}

	empty := FromArrow("x", nil)
	if len(empty.Fields()) != 0 {
		t.Errorf("expected no fields for nil schema, got %v", empty.Fields())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(New(userName, "GivenName"))

	if !r.HasField(userName, "GivenName") {
		t.Error("expected registered field")
	}
	if r.HasField(userName, "Surname") {
		t.Error("expected explicit schema to hide reflected fields")
	}
	if r.HasField(auditName, "CreatedBy") {
		t.Error("expected unknown type to declare no fields")
	}

	// Ensure keeps an explicit schema.
	s := r.Ensure(reflect.TypeFor[*user]())
	if s.Has("Surname") {
		t.Error("expected Ensure to return the registered schema")
	}

	// Ensure reflects unknown types.
	a := r.Ensure(reflect.TypeFor[audit]())
	if !a.Has("CreatedBy") || a.Has("createdAt") {
		t.Errorf("unexpected reflected fields %v", a.Fields())
	}
	if got, ok := r.Schema(auditName); !ok || got != a {
		t.Error("expected Ensure to register the reflected schema")
	}

	r.Register(New(userName, "Surname"))
	if !r.HasField(userName, "Surname") || r.HasField(userName, "GivenName") {
		t.Error("expected Register to replace the schema")
	}
}

func TestRegistryZeroValue(t *testing.T) {
	var r Registry
	if r.HasField(userName, "Age") {
		t.Error("expected empty registry to declare no fields")
	}
	r.Ensure(reflect.TypeFor[user]())
	if !r.HasField(userName, "Age") {
		t.Error("expected Ensure to work on zero registry")
	}
}

func TestRegistryConcurrentEnsure(t *testing.T) {
	r := NewRegistry()
	typ := reflect.TypeFor[user]()

	const workers = 16
	results := make([]*Schema, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.Ensure(typ)
		}()
	}
	wg.Wait()

	for i, s := range results {
		if s != results[0] {
			t.Fatalf("worker %d got a different schema instance", i)
		}
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want string
	}{
		{"named", reflect.TypeFor[user](), userName},
		{"pointer", reflect.TypeFor[*audit](), auditName},
		{"other package", reflect.TypeFor[arrow.Field](), "github.com/apache/arrow-go/v18/arrow.Field"},
		{"predeclared", reflect.TypeFor[string](), "string"},
		{"unnamed", reflect.TypeFor[struct{ A int }](), "struct { A int }"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeName(tt.typ); got != tt.want {
				t.Errorf("expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestRegistryEnsureSameNamedTypes(t *testing.T) {
	first := func() reflect.Type {
		type account struct{ Mail string }
		return reflect.TypeFor[account]()
	}()
	second := func() reflect.Type {
		type account struct{ Login string }
		return reflect.TypeFor[account]()
	}()
	if TypeName(first) != TypeName(second) {
		t.Fatalf("expected local types to share a name, got '%s' and '%s'", TypeName(first), TypeName(second))
	}

	r := NewRegistry()
	a := r.Ensure(first)
	b := r.Ensure(second)

	if !a.Has("Mail") || a.Has("Login") {
		t.Errorf("unexpected fields for first type: %v", a.Fields())
	}
	if !b.Has("Login") || b.Has("Mail") {
		t.Errorf("unexpected fields for second type: %v", b.Fields())
	}
	if r.Ensure(second) != b {
		t.Error("expected Ensure to return the schema reflected earlier")
	}
}
