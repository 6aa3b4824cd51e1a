package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

type kindErr struct{ kind string }

func (k kindErr) Error() string { return k.kind }
func (k kindErr) Kind() string  { return k.kind }

func TestMetadataFor(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:    http.StatusBadRequest,
		CodeAvailability:  http.StatusConflict,
		CodeStateConflict: http.StatusUnprocessableEntity,
		CodeNotFound:      http.StatusNotFound,
		Code("UNKNOWN"):   http.StatusInternalServerError,
	}
	for code, status := range cases {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Fatalf("code %s: expected %d got %d", code, status, got)
		}
	}
	if !MetadataFor(CodeAvailability).DetailsAllowed {
		t.Fatal("availability errors must expose details")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("root")
	err := Wrap(CodeDependency, cause, "load catalog")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if CodeOf(fmt.Errorf("outer: %w", err)) != CodeDependency {
		t.Fatal("expected CodeOf to unwrap")
	}
	if CodeOf(cause) != CodeInternal {
		t.Fatal("untyped errors map to internal")
	}
}

func TestDumpCollectsKinds(t *testing.T) {
	err := Wrap(CodeAvailability, kindErr{kind: "insufficient_stock"}, "stock conflict")
	d := Dump(err)

	if d.Code != CodeAvailability {
		t.Fatalf("unexpected dump code %s", d.Code)
	}
	if len(d.Kinds) != 1 || d.Kinds[0] != "insufficient_stock" {
		t.Fatalf("unexpected kinds %v", d.Kinds)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %v", d.Chain)
	}
	fields := d.Fields()
	if _, ok := fields["pg_code"]; ok {
		t.Fatal("pg fields should be omitted when absent")
	}
}
