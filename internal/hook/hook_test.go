package hook

import (
	"context"
	"reflect"
	"testing"
)

func collectFilter(order *[]string, tag string) FilterFunc {
	return func(ctx context.Context, value interface{}, args ...interface{}) interface{} {
		*order = append(*order, tag)
		return value
	}
}

func TestApplyFiltersRunsInPriorityOrder(t *testing.T) {
	r := NewRegistry()
	var order []string

	r.AddFilter("init", "late", collectFilter(&order, "late"), 20)
	r.AddFilter("init", "early", collectFilter(&order, "early"), 1)
	r.AddFilter("init", "mid-b", collectFilter(&order, "mid-b"), DefaultPriority)
	r.AddFilter("init", "mid-a", collectFilter(&order, "mid-a"), DefaultPriority)

	r.ApplyFilters(context.Background(), "init", nil)

	want := []string{"early", "mid-b", "mid-a", "late"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestApplyFiltersThreadsValue(t *testing.T) {
	r := NewRegistry()
	r.AddFilter("title", "upper", func(ctx context.Context, v interface{}, args ...interface{}) interface{} {
		return v.(string) + "!"
	}, 10)
	r.AddFilter("title", "prefix", func(ctx context.Context, v interface{}, args ...interface{}) interface{} {
		return ">" + v.(string)
	}, 5)

	got := r.ApplyFilters(context.Background(), "title", "hello")
	if got != ">hello!" {
		t.Fatalf("filtered value = %q, want %q", got, ">hello!")
	}
}

func TestApplyFiltersUnknownHookReturnsValue(t *testing.T) {
	r := NewRegistry()
	if got := r.ApplyFilters(context.Background(), "nope", 42); got != 42 {
		t.Fatalf("value = %v, want 42", got)
	}
}

func TestRemoveFilter(t *testing.T) {
	r := NewRegistry()
	var order []string
	r.AddFilter("save", "a", collectFilter(&order, "a"), 10)
	r.AddFilter("save", "b", collectFilter(&order, "b"), 10)

	if !r.RemoveFilter("save", "a", 10) {
		t.Fatal("RemoveFilter returned false for registered callback")
	}
	if r.RemoveFilter("save", "a", 10) {
		t.Fatal("RemoveFilter returned true for already-removed callback")
	}
	// Wrong priority does not match.
	if r.RemoveFilter("save", "b", 20) {
		t.Fatal("RemoveFilter matched wrong priority")
	}

	r.ApplyFilters(context.Background(), "save", nil)
	if !reflect.DeepEqual(order, []string{"b"}) {
		t.Fatalf("order = %v, want [b]", order)
	}
}

func TestHasFilter(t *testing.T) {
	r := NewRegistry()
	r.AddFilter("gate", "check", collectFilter(new([]string), "check"), 7)

	if p, ok := r.HasFilter("gate", "check"); !ok || p != 7 {
		t.Fatalf("HasFilter = (%d, %v), want (7, true)", p, ok)
	}
	if _, ok := r.HasFilter("gate", "other"); ok {
		t.Fatal("HasFilter matched unregistered tag")
	}
	if _, ok := r.HasFilter("gate", ""); !ok {
		t.Fatal("HasFilter with empty tag should report any callback")
	}
	if _, ok := r.HasFilter("empty", ""); ok {
		t.Fatal("HasFilter reported callbacks for empty hook")
	}
}

func TestCallbackCanRemoveItselfDuringDispatch(t *testing.T) {
	r := NewRegistry()
	var runs int
	r.AddFilter("once", "self", func(ctx context.Context, v interface{}, args ...interface{}) interface{} {
		runs++
		r.RemoveFilter("once", "self", 10)
		return v
	}, 10)
	r.AddFilter("once", "after", collectFilter(new([]string), "after"), 20)

	r.DoAction(context.Background(), "once")
	r.DoAction(context.Background(), "once")

	if runs != 1 {
		t.Fatalf("self-removing callback ran %d times, want 1", runs)
	}
}

func TestCallbackCanRemoveLaterCallbackDuringDispatch(t *testing.T) {
	r := NewRegistry()
	var order []string
	r.AddFilter("chain", "first", func(ctx context.Context, v interface{}, args ...interface{}) interface{} {
		order = append(order, "first")
		r.RemoveFilter("chain", "victim", 20)
		return v
	}, 10)
	r.AddFilter("chain", "victim", collectFilter(&order, "victim"), 20)
	r.AddFilter("chain", "last", collectFilter(&order, "last"), 30)

	r.DoAction(context.Background(), "chain")

	want := []string{"first", "last"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestCallbackAddedAtLaterPriorityRunsSameDispatch(t *testing.T) {
	r := NewRegistry()
	var order []string
	r.AddFilter("boot", "adder", func(ctx context.Context, v interface{}, args ...interface{}) interface{} {
		order = append(order, "adder")
		r.AddFilter("boot", "added", collectFilter(&order, "added"), 20)
		return v
	}, 10)

	r.DoAction(context.Background(), "boot")

	want := []string{"adder", "added"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestCallbackAddedAtEarlierPriorityWaitsForNextDispatch(t *testing.T) {
	r := NewRegistry()
	var order []string
	r.AddFilter("boot", "adder", func(ctx context.Context, v interface{}, args ...interface{}) interface{} {
		order = append(order, "adder")
		if _, ok := r.HasFilter("boot", "early"); !ok {
			r.AddFilter("boot", "early", collectFilter(&order, "early"), 1)
		}
		return v
	}, 10)

	r.DoAction(context.Background(), "boot")
	if !reflect.DeepEqual(order, []string{"adder"}) {
		t.Fatalf("first dispatch order = %v, want [adder]", order)
	}

	order = nil
	r.DoAction(context.Background(), "boot")
	if !reflect.DeepEqual(order, []string{"early", "adder"}) {
		t.Fatalf("second dispatch order = %v, want [early adder]", order)
	}
}

func TestNestedDispatchOfSameHook(t *testing.T) {
	r := NewRegistry()
	depth := 0
	var maxDepth int
	r.AddFilter("recurse", "nest", func(ctx context.Context, v interface{}, args ...interface{}) interface{} {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		if depth < 3 {
			if !r.Doing("recurse") {
				t.Fatal("Doing(recurse) = false inside dispatch")
			}
			r.DoAction(ctx, "recurse")
		}
		depth--
		return v
	}, 10)

	r.DoAction(context.Background(), "recurse")

	if maxDepth != 3 {
		t.Fatalf("max nesting depth = %d, want 3", maxDepth)
	}
	if r.Fired("recurse") != 3 {
		t.Fatalf("Fired = %d, want 3", r.Fired("recurse"))
	}
	if r.Doing("recurse") {
		t.Fatal("Doing(recurse) = true after dispatch completed")
	}
}

func TestCurrentTracksInnermostHook(t *testing.T) {
	r := NewRegistry()
	r.AddFilter("outer", "probe", func(ctx context.Context, v interface{}, args ...interface{}) interface{} {
		if got := r.Current(); got != "outer" {
			t.Fatalf("Current = %q, want outer", got)
		}
		r.AddFilter("inner", "probe", func(ctx context.Context, v interface{}, args ...interface{}) interface{} {
			if got := r.Current(); got != "inner" {
				t.Fatalf("Current = %q inside nested dispatch, want inner", got)
			}
			return v
		}, 10)
		r.DoAction(ctx, "inner")
		if got := r.Current(); got != "outer" {
			t.Fatalf("Current = %q after nested dispatch, want outer", got)
		}
		return v
	}, 10)

	r.DoAction(context.Background(), "outer")
	if got := r.Current(); got != "" {
		t.Fatalf("Current = %q after dispatch, want empty", got)
	}
}

func TestReRegisteringSameTagReplacesCallback(t *testing.T) {
	r := NewRegistry()
	var order []string
	r.AddFilter("swap", "cb", collectFilter(&order, "v1"), 10)
	r.AddFilter("swap", "cb", collectFilter(&order, "v2"), 10)

	r.DoAction(context.Background(), "swap")
	if !reflect.DeepEqual(order, []string{"v2"}) {
		t.Fatalf("order = %v, want [v2]", order)
	}
}

func TestActionsReceiveArgs(t *testing.T) {
	r := NewRegistry()
	var gotID string
	r.AddAction("user.blocked", "audit", func(ctx context.Context, args ...interface{}) {
		if len(args) > 0 {
			gotID, _ = args[0].(string)
		}
	}, 10)

	r.DoAction(context.Background(), "user.blocked", "user-123")
	if gotID != "user-123" {
		t.Fatalf("action arg = %q, want user-123", gotID)
	}
}

func TestRemoveAll(t *testing.T) {
	r := NewRegistry()
	var order []string
	r.AddFilter("teardown", "a", collectFilter(&order, "a"), 10)
	r.AddFilter("teardown", "b", collectFilter(&order, "b"), 20)

	r.RemoveAll("teardown")
	r.DoAction(context.Background(), "teardown")

	if len(order) != 0 {
		t.Fatalf("callbacks ran after RemoveAll: %v", order)
	}
}
