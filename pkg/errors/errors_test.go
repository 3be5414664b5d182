package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrap_PreservesChain(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := Wrap(cause, CodeStoreAppend, "insert row failed").WithContext("table", "tickers_data")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if !IsCode(err, CodeStoreAppend) {
		t.Errorf("code = %v, want %s", GetCode(err), CodeStoreAppend)
	}

	msg := err.Error()
	for _, want := range []string{"[E303]", "insert row failed", "table=tickers_data", "disk gone"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestWrap_NilCause(t *testing.T) {
	if err := Wrap(nil, CodeParseFailed, "x"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestIsCode_ThroughFmtWrap(t *testing.T) {
	inner := New(CodeEmptyTable, "file has no header line")
	outer := fmt.Errorf("normalize data.csv: %w", inner)

	if !IsCode(outer, CodeEmptyTable) {
		t.Error("code not found through fmt.Errorf wrapping")
	}
	if GetCode(stderrors.New("plain")) != CodeUnknown {
		t.Error("plain error should map to CodeUnknown")
	}
}

func TestErrorClasses(t *testing.T) {
	tests := []struct {
		code           Code
		classification bool
		format         bool
		store          bool
	}{
		{CodeFileNotFound, true, false, false},
		{CodeNotStooq, true, false, false},
		{CodeParseFailed, false, true, false},
		{CodeEmptyTable, false, true, false},
		{CodeStoreCreate, false, false, true},
		{CodeCanceled, false, false, false},
	}
	for _, tt := range tests {
		err := New(tt.code, "x")
		if got := IsClassification(err); got != tt.classification {
			t.Errorf("IsClassification(%s) = %v, want %v", tt.code, got, tt.classification)
		}
		if got := IsFormat(err); got != tt.format {
			t.Errorf("IsFormat(%s) = %v, want %v", tt.code, got, tt.format)
		}
		if got := IsStore(err); got != tt.store {
			t.Errorf("IsStore(%s) = %v, want %v", tt.code, got, tt.store)
		}
	}
}

func TestMultiError_Combined(t *testing.T) {
	var m MultiError
	if m.Combined() != nil {
		t.Error("empty MultiError should combine to nil")
	}

	first := New(CodeParseFailed, "bad file")
	m.Add(first)
	m.Add(nil)
	if got := m.Combined(); got != first {
		t.Errorf("single error should combine to itself, got %v", got)
	}

	m.Add(New(CodeEmptyTable, "empty file"))
	combined := m.Combined()
	if combined == nil || !strings.Contains(combined.Error(), "2 errors occurred") {
		t.Errorf("combined = %v", combined)
	}
}
