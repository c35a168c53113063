package weight

import (
	"math"
	"math/rand"
	"testing"
	"time"

	catalog "github.com/bitfantasy/gemflow/internal/catalog/entity"
)

func testRegistry() *Registry {
	materials := []catalog.Material{
		{ID: "mat-gold", Name: "Gold", MinOrderWeight: 50},
		{ID: "mat-silver", Name: "Silver", MinOrderWeight: 0},
	}
	metals := []catalog.Metal{
		{ID: "m-24k", Name: "24K Gold", MaterialID: "mat-gold", ConversionRatio: 1.0, Purity: 99.9},
		{ID: "m-22k", Name: "22K Gold", MaterialID: "mat-gold", ConversionRatio: 0.916, Purity: 91.6},
		{ID: "m-18k", Name: "18K Gold", MaterialID: "mat-gold", ConversionRatio: 0.75, Purity: 75},
		{ID: "m-925", Name: "925 Silver", MaterialID: "mat-silver", ConversionRatio: 1.0, Purity: 0},
	}
	return NewRegistry(metals, materials)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeGrossWeight(t *testing.T) {
	reg := testRegistry()

	// 毛重 = 基准重量 × 换算系数 × 数量，qty 取 1/5/100
	for _, qty := range []int{1, 5, 100} {
		line := Line{MetalType: "18K Gold", Quantity: qty, BaseWeight: 4.2}
		w := Compute(line, reg)

		want := 4.2 * 0.75 * float64(qty)
		if !almostEqual(w.Gross, want) {
			t.Fatalf("qty=%d: gross = %v, want %v", qty, w.Gross, want)
		}
		wantPure := want * 0.75
		if !almostEqual(w.Pure, wantPure) {
			t.Fatalf("qty=%d: pure = %v, want %v", qty, w.Pure, wantPure)
		}
		if !w.MetalKnown {
			t.Fatalf("qty=%d: expected metal to resolve", qty)
		}
	}
}

func TestComputeSilverPureNotApplicable(t *testing.T) {
	reg := testRegistry()
	w := Compute(Line{MetalType: "925 Silver", Quantity: 3, BaseWeight: 10}, reg)

	if w.Pure != 0 {
		t.Fatalf("pure = %v, want 0", w.Pure)
	}
	// 纯度未设置要与"合法的零"区分开，由 PureApplicable 标记
	if w.PureApplicable {
		t.Fatal("silver pure weight should be flagged not applicable")
	}
	if w.Gross != 30 {
		t.Fatalf("gross = %v, want 30", w.Gross)
	}
}

func TestResolveUnknownMetalFallback(t *testing.T) {
	reg := testRegistry()

	// 未注册金属不报错：系数1、纯度0兜底，Known=false 供界面标记
	r := reg.Resolve("14K Gold")
	if r.Known {
		t.Fatal("expected unknown metal")
	}
	if r.ConversionRatio != 1 || r.Purity != 0 {
		t.Fatalf("fallback = {ratio:%v purity:%v}, want {ratio:1 purity:0}", r.ConversionRatio, r.Purity)
	}
	if r.MaterialName != UnknownMaterial {
		t.Fatalf("material = %q, want %q", r.MaterialName, UnknownMaterial)
	}

	w := Compute(Line{MetalType: "14K Gold", Quantity: 2, BaseWeight: 5}, reg)
	if w.Gross != 10 || w.MetalKnown {
		t.Fatalf("unknown metal weight = %+v", w)
	}
}

func sampleLines() []Line {
	return []Line{
		{OrderNumber: "ORD-2026-0001", DistributorName: "Acme", CategoryName: "Rings", MetalType: "18K Gold", Stage: "Casting", Quantity: 2, BaseWeight: 4},
		{OrderNumber: "ORD-2026-0001", DistributorName: "Acme", CategoryName: "Necklaces", MetalType: "22K Gold", Stage: "Polishing", Quantity: 1, BaseWeight: 12},
		{OrderNumber: "ORD-2026-0002", DistributorName: "Lux", CategoryName: "Rings", MetalType: "925 Silver", Stage: "", Quantity: 5, BaseWeight: 8},
		{OrderNumber: "ORD-2026-0003", DistributorName: "Lux", CategoryName: "Earrings", MetalType: "Ghost Metal", Stage: "Casting", Quantity: 3, BaseWeight: 2},
	}
}

func TestAggregatePermutationInvariant(t *testing.T) {
	reg := testRegistry()
	lines := sampleLines()

	want := Aggregate(lines, GroupByMaterial, reg)

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]Line, len(lines))
		copy(shuffled, lines)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Aggregate(shuffled, GroupByMaterial, reg)
		if len(got) != len(want) {
			t.Fatalf("bucket count changed under permutation: %d vs %d", len(got), len(want))
		}
		for k, wb := range want {
			gb := got[k]
			if gb.Count != wb.Count || !almostEqual(gb.Gross, wb.Gross) || !almostEqual(gb.Pure, wb.Pure) {
				t.Fatalf("bucket %q drifted under permutation: %+v vs %+v", k, gb, wb)
			}
		}
	}
}

func TestAggregateCrossGroupingConsistency(t *testing.T) {
	reg := testRegistry()
	lines := sampleLines()

	// 不同分组维度的总毛重必须一致
	groupings := []GroupBy{GroupByMaterial, GroupByMetalType, GroupByCategory, GroupByDistributor, GroupByStage}
	var totals []float64
	for _, g := range groupings {
		sum := 0.0
		for _, b := range Aggregate(lines, g, reg) {
			sum += b.Gross
		}
		totals = append(totals, sum)
	}
	for i := 1; i < len(totals); i++ {
		if !almostEqual(totals[i], totals[0]) {
			t.Fatalf("grand total drifted across groupings: %v", totals)
		}
	}
}

func TestAggregateUnknownMetalBucket(t *testing.T) {
	reg := testRegistry()
	buckets := Aggregate(sampleLines(), GroupByMaterial, reg)

	b, ok := buckets[UnknownMaterial]
	if !ok {
		t.Fatal("expected Unknown bucket for unresolvable metal")
	}
	if b.Count != 3 || !almostEqual(b.Gross, 6) {
		t.Fatalf("unknown bucket = %+v", b)
	}
}

func TestAggregateStageDefaultsPending(t *testing.T) {
	reg := testRegistry()
	buckets := Aggregate(sampleLines(), GroupByStage, reg)

	if _, ok := buckets[DefaultStage]; !ok {
		t.Fatal("item with empty stage should land in PENDING bucket")
	}
}

func TestFilterComposition(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	lines := []Line{
		{OrderNumber: "ORD-1", DistributorID: "d1", Stage: "Casting", MetalType: "18K Gold", Quantity: 1, BaseWeight: 4, CreatedAt: base},
		{OrderNumber: "ORD-2", DistributorID: "d1", Stage: "Polishing", MetalType: "18K Gold", Quantity: 1, BaseWeight: 4, CreatedAt: base.AddDate(0, 0, 10)},
		{OrderNumber: "ORD-3", DistributorID: "d2", Stage: "Casting", MetalType: "18K Gold", Quantity: 1, BaseWeight: 4, CreatedAt: base},
	}

	from := base.AddDate(0, 0, -1)
	to := base.AddDate(0, 0, 1)
	got := Filter{From: &from, To: &to, DistributorID: "d1"}.Apply(lines)
	if len(got) != 1 || got[0].OrderNumber != "ORD-1" {
		t.Fatalf("composed filter result = %+v", got)
	}

	got = Filter{Stage: "Casting"}.Apply(lines)
	if len(got) != 2 {
		t.Fatalf("stage filter matched %d lines, want 2", len(got))
	}

	got = Filter{OrderNumber: "ORD-2"}.Apply(lines)
	if len(got) != 1 || got[0].DistributorID != "d1" {
		t.Fatalf("order number filter result = %+v", got)
	}
}

func TestRound2(t *testing.T) {
	if Round2(12.3456) != 12.35 {
		t.Fatalf("Round2(12.3456) = %v", Round2(12.3456))
	}
	if Round2(49.994999) != 49.99 {
		t.Fatalf("Round2(49.994999) = %v", Round2(49.994999))
	}
}
