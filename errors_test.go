package entitycache

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/unkn0wn-root/entitycache/groupindex"
	"github.com/unkn0wn-root/entitycache/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want FaultClass
	}{
		{nil, ""},
		{&HTTPError{Status: 404, Message: "x"}, ClassHTTP},
		{&DecodeError{Status: 200, Type: "T", Err: errors.New("bad")}, ClassDecode},
		{&TransportError{Op: "GET /", Err: errors.New("refused")}, ClassTransport},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), ClassTransport},
		{&model.ValidationError{Problems: []string{"Name is required"}}, ClassValidation},
		{&groupindex.DuplicateKeyError{Key: 1, Group: 2, Existing: 3}, ClassDuplicateKey},
		{&PanicError{Value: "x"}, ClassPanic},
		{errors.New("other"), ClassInternal},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	if !errors.Is(&TransportError{Op: "op", Err: inner}, inner) {
		t.Fatal("TransportError does not unwrap")
	}
	if !errors.Is(&DecodeError{Err: inner}, inner) {
		t.Fatal("DecodeError does not unwrap")
	}
	if !errors.Is(&PanicError{Value: inner}, inner) {
		t.Fatal("PanicError does not unwrap an error value")
	}
	if (&HTTPError{Status: 500, Message: "m"}).Error() != "m" {
		t.Fatal("HTTPError text must be the message")
	}
}
