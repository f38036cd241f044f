package credential

import (
	"errors"
	"strings"
	"testing"
)

// testParams keeps the suite fast; production uses DefaultParams.
func testCodec() *Codec {
	return New(Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, KeyLength: 32})
}

func TestHashAndVerify_OK(t *testing.T) {
	c := testCodec()

	h, err := c.Hash("123456aA")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(h, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected encoding: %s", h)
	}
	if err := c.Verify(h, "123456aA"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	c := testCodec()

	h, err := c.Hash("123456aA")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if err := c.Verify(h, "123456aB"); !errors.Is(err, ErrWrongCredentials) {
		t.Fatalf("expected ErrWrongCredentials, got %v", err)
	}
}

func TestHash_FreshSaltEachCall(t *testing.T) {
	c := testCodec()

	a, _ := c.Hash("SamePassword")
	b, _ := c.Hash("SamePassword")
	if a == b {
		t.Fatalf("expected distinct encodings for the same password")
	}
}

func TestVerify_MalformedHashLooksLikeMismatch(t *testing.T) {
	c := testCodec()

	cases := []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=16$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5a2V5a2V5a2V5a2V5a2V5",
	}
	for _, h := range cases {
		if err := c.Verify(h, "whatever"); !errors.Is(err, ErrWrongCredentials) {
			t.Fatalf("hash %q: expected ErrWrongCredentials, got %v", h, err)
		}
	}
}

func TestVerify_RejectsExcessiveCost(t *testing.T) {
	strong := New(Params{MemoryKiB: 64 * 1024, Iterations: 2, Parallelism: 1, KeyLength: 32})
	h, err := strong.Hash("123456aA")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	weak := testCodec()
	if err := weak.Verify(h, "123456aA"); !errors.Is(err, ErrWrongCredentials) {
		t.Fatalf("expected bound rejection, got %v", err)
	}
}

func TestNew_FillsDefaults(t *testing.T) {
	c := New(Params{})
	def := DefaultParams()
	if c.params != def {
		t.Fatalf("expected defaults %+v, got %+v", def, c.params)
	}
	if def.Parallelism != defaultParallelism {
		t.Fatalf("expected fixed parallelism %d, got %d", defaultParallelism, def.Parallelism)
	}
}

func TestVerify_AcceptsHashFromHostWithMoreLanes(t *testing.T) {
	wide := New(Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 4, KeyLength: 32})
	h, err := wide.Hash("Secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	narrow := New(Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32})
	if err := narrow.Verify(h, "Secret1"); err != nil {
		t.Fatalf("expected p=4 hash to verify under p=1 codec, got %v (hash=%s)", err, h)
	}
}

func TestVerify_RejectsParallelismAboveCap(t *testing.T) {
	h, err := New(Params{MemoryKiB: 1024, Iterations: 1, Parallelism: maxParallelism + 1, KeyLength: 32}).Hash("Secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	c := New(Params{MemoryKiB: 1024, Iterations: 1, Parallelism: maxParallelism})
	if err := c.Verify(h, "Secret1"); !errors.Is(err, ErrWrongCredentials) {
		t.Fatalf("expected cap rejection, got %v", err)
	}
}
