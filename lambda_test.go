package storefront

import "testing"

func TestLambda_Value(t *testing.T) {
	l := Value(42)

	if Resolve(l) != 42 {
		t.Errorf("expected 42, got %d", Resolve(l))
	}
	if IsLambda(l) {
		t.Error("expected plain value not to be a lambda")
	}
}

func TestLambda_ProducerNotCached(t *testing.T) {
	upstream := 1
	l := Producer(func() int { return upstream * 10 })

	if !IsLambda(l) {
		t.Fatal("expected producer to be a lambda")
	}
	if got := Resolve(l); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}

	upstream = 2
	if got := Resolve(l); got != 20 {
		t.Errorf("expected 20 after upstream change, got %d", got)
	}
}

func TestLambda_NilProducer(t *testing.T) {
	l := Producer[string](nil)

	if IsLambda(l) {
		t.Error("expected nil producer not to be a lambda")
	}
	if Resolve(l) != "" {
		t.Errorf("expected zero value, got %q", Resolve(l))
	}
}

func TestLambda_Zero(t *testing.T) {
	var l Lambda[*int]
	if l.Resolve() != nil {
		t.Error("expected nil from zero lambda")
	}
}
