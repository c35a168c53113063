package stage

import (
	"testing"

	catalog "github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/order/entity"
)

func testIndex() *Index {
	return NewIndex([]catalog.StageDefinition{
		{ID: "s1", Name: "Design", Type: catalog.StageTypeStandard, Sequence: 1},
		{ID: "s2", Name: "Casting", Type: catalog.StageTypeStandard, Sequence: 2},
		{ID: "s3", Name: "Polishing", Type: catalog.StageTypeStandard, Sequence: 3},
		{ID: "s4", Name: "Quality Hold", Type: catalog.StageTypeOnHold, Sequence: 4, RequiresReason: true, Reasons: "Defect,Customer Request"},
		{ID: "s5", Name: "Delivered", Type: catalog.StageTypeCompleted, Sequence: 5},
	})
}

func TestDeriveOrderStatus(t *testing.T) {
	idx := testIndex()

	cases := []struct {
		name   string
		stages []string
		want   string
	}{
		{"all completed", []string{"Delivered", "Delivered", "Delivered"}, entity.OrderStatusCompleted},
		{"mixed completed and pending", []string{"Delivered", "Delivered", "PENDING"}, entity.OrderStatusProcessing},
		{"all pending implicit", []string{"PENDING", "PENDING"}, entity.OrderStatusPending},
		{"mixed production", []string{"Casting", "Polishing"}, entity.OrderStatusProcessing},
		{"on hold counts as processing", []string{"Quality Hold"}, entity.OrderStatusProcessing},
		{"no items", nil, entity.OrderStatusPending},
	}

	for _, tc := range cases {
		if got := idx.DeriveOrderStatus(tc.stages); got != tc.want {
			t.Fatalf("%s: derived %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDeriveOrderStatusLegacyNameFallback(t *testing.T) {
	// 注册表中没有 CANCELLED 行时，工序名本身即类型（遗留数据兼容）
	idx := NewIndex(nil)

	if got := idx.DeriveOrderStatus([]string{"CANCELLED", "CANCELLED"}); got != entity.OrderStatusCancelled {
		t.Fatalf("derived %q, want CANCELLED", got)
	}
	if got := idx.DeriveOrderStatus([]string{"COMPLETED"}); got != entity.OrderStatusCompleted {
		t.Fatalf("derived %q, want COMPLETED", got)
	}
	if got := idx.DeriveOrderStatus([]string{"COMPLETED", "CANCELLED"}); got != entity.OrderStatusProcessing {
		t.Fatalf("derived %q, want PROCESSING", got)
	}
}

func TestProgress(t *testing.T) {
	idx := testIndex()

	// 两个行项在序号 2 和 4，最大序号 5：(2+4)/(2×5)×100 = 60%
	if got := idx.Progress([]string{"Casting", "Quality Hold"}); got != 60 {
		t.Fatalf("progress = %d, want 60", got)
	}

	// 未注册工序贡献序号 0
	if got := idx.Progress([]string{"Ghost Stage", "Delivered"}); got != 50 {
		t.Fatalf("progress with unregistered stage = %d, want 50", got)
	}

	if got := idx.Progress(nil); got != 0 {
		t.Fatalf("progress with no items = %d, want 0", got)
	}
}

func TestProgressNoStagesConfigured(t *testing.T) {
	// 未配置任何工序时最大序号下限为1，不除零
	idx := NewIndex(nil)
	if got := idx.Progress([]string{"PENDING", "PENDING"}); got != 0 {
		t.Fatalf("progress = %d, want 0", got)
	}
	if idx.MaxSequence() != 1 {
		t.Fatalf("max sequence floor = %d, want 1", idx.MaxSequence())
	}
}

func TestReasonRequired(t *testing.T) {
	idx := testIndex()

	if !idx.ReasonRequired("Quality Hold") {
		t.Fatal("Quality Hold should require a reason")
	}
	if idx.ReasonRequired("Casting") {
		t.Fatal("Casting should not require a reason")
	}
	// 未注册工序不要求原因
	if idx.ReasonRequired("Ghost Stage") {
		t.Fatal("unregistered stage should not require a reason")
	}
}

func TestResolveImplicitPending(t *testing.T) {
	idx := testIndex()
	r := idx.Resolve("")
	if r.Name != "PENDING" {
		t.Fatalf("empty stage resolved to %q", r.Name)
	}
	if r.Def != nil {
		t.Fatal("implicit PENDING should not be backed by a registry row")
	}
	if r.Sequence() != 0 {
		t.Fatalf("implicit PENDING sequence = %d, want 0", r.Sequence())
	}
}
