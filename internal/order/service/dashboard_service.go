package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bitfantasy/gemflow/internal/cache"
	catalog "github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/order/entity"
	"github.com/bitfantasy/gemflow/internal/order/repository"
	"github.com/bitfantasy/gemflow/internal/order/stage"
	"github.com/bitfantasy/gemflow/internal/order/weight"
)

// 看板时间窗预设
const (
	RangeToday      = "TODAY"
	RangeThisWeek   = "THIS_WEEK" // 周一起算
	RangeThisMonth  = "THIS_MONTH"
	RangeLast3Month = "LAST_3_MONTHS"
	RangeThisYear   = "THIS_YEAR"
	RangeAll        = "ALL"
	RangeCustom     = "CUSTOM"
)

// ResolveRange 解析时间窗预设为起止时间，ALL 返回双 nil
func ResolveRange(preset string, from, to *time.Time) (*time.Time, *time.Time, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch preset {
	case RangeToday:
		return &today, nil, nil
	case RangeThisWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		monday := today.AddDate(0, 0, -(weekday - 1))
		return &monday, nil, nil
	case RangeThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return &start, nil, nil
	case RangeLast3Month:
		start := today.AddDate(0, -3, 0)
		return &start, nil, nil
	case RangeThisYear:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return &start, nil, nil
	case RangeAll, "":
		return nil, nil, nil
	case RangeCustom:
		return from, to, nil
	}
	return nil, nil, fmt.Errorf("unknown date range preset %q", preset)
}

// DistributorSummary 经销商维度汇总
type DistributorSummary struct {
	DistributorID    string         `json:"distributor_id"`
	CompanyName      string         `json:"company_name"`
	Orders           int            `json:"orders"`
	Pieces           int            `json:"pieces"`
	Gross            float64        `json:"gross"`
	Pure             float64        `json:"pure"`
	PiecesByCategory map[string]int `json:"pieces_by_category"`
	PiecesByMetal    map[string]int `json:"pieces_by_metal"`
}

// ProductStat 产品热度
type ProductStat struct {
	ModelNo string `json:"model_no"`
	Pieces  int    `json:"pieces"`
}

// UrgentOrder 临近交期的未完结订单
type UrgentOrder struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CompanyName   string    `json:"company_name"`
	Status        string    `json:"status"`
	DeliveryDate  time.Time `json:"delivery_date"`
	DaysRemaining int       `json:"days_remaining"`
}

// Dashboard 运营看板
type Dashboard struct {
	Range               string                   `json:"range"`
	TotalOrders         int                      `json:"total_orders"`
	StatusCounts        map[string]int           `json:"status_counts"`
	StageStats          map[string]weight.Bucket `json:"stage_stats"`
	ActiveByMaterial    map[string]weight.Bucket `json:"active_by_material"`
	ActiveByMetal       map[string]weight.Bucket `json:"active_by_metal"`
	DeliveredByMaterial map[string]weight.Bucket `json:"delivered_by_material"`
	DeliveredByMetal    map[string]weight.Bucket `json:"delivered_by_metal"`
	Distributors        []DistributorSummary     `json:"distributors"`
	TopProducts         []ProductStat            `json:"top_products"`
	UrgentOrders        []UrgentOrder            `json:"urgent_orders"`
	GeneratedAt         time.Time                `json:"generated_at"`
}

// DashboardService 看板服务
type DashboardService struct {
	repo  *repository.OrderRepository
	snap  *snapshotLoader
	views *cache.Views
}

func NewDashboardService(repo *repository.OrderRepository, snap *snapshotLoader, views *cache.Views) *DashboardService {
	return &DashboardService{repo: repo, snap: snap, views: views}
}

// Build 构建看板，预设时间窗走缓存，CUSTOM 直接重算
func (s *DashboardService) Build(ctx context.Context, preset string, from, to *time.Time) (*Dashboard, error) {
	rangeFrom, rangeTo, err := ResolveRange(preset, from, to)
	if err != nil {
		return nil, err
	}

	cacheKey := ""
	if preset != RangeCustom {
		cacheKey = cache.KeyDashboard + ":" + preset
		var cached Dashboard
		if s.views.Get(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	orders, err := s.repo.FindAllForAnalytics(ctx, rangeFrom, rangeTo)
	if err != nil {
		return nil, err
	}
	reg, err := s.snap.Registry(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := s.snap.Stages(ctx)
	if err != nil {
		return nil, err
	}

	d := buildDashboard(orders, reg, idx)
	d.Range = preset
	if preset == "" {
		d.Range = RangeAll
	}

	if cacheKey != "" {
		s.views.Set(ctx, cacheKey, d)
	}
	return d, nil
}

func buildDashboard(orders []entity.Order, reg *weight.Registry, idx *stage.Index) *Dashboard {
	lines := LinesFromOrders(orders)

	// 行项按工序类型切成在制/已交付两个子集
	var active, delivered []weight.Line
	for _, l := range lines {
		r := idx.Resolve(l.StageOrDefault())
		switch {
		case r.Type() == catalog.StageTypeCompleted || r.Name == catalog.StageTypeCompleted:
			delivered = append(delivered, l)
		case r.Type() == catalog.StageTypeCancelled || r.Name == catalog.StageTypeCancelled:
			// 已取消行项不计入任何重量汇总
		default:
			active = append(active, l)
		}
	}

	d := &Dashboard{
		TotalOrders:         len(orders),
		StatusCounts:        make(map[string]int),
		StageStats:          roundBuckets(weight.Aggregate(lines, weight.GroupByStage, reg)),
		ActiveByMaterial:    roundBuckets(weight.Aggregate(active, weight.GroupByMaterial, reg)),
		ActiveByMetal:       roundBuckets(weight.Aggregate(active, weight.GroupByMetalType, reg)),
		DeliveredByMaterial: roundBuckets(weight.Aggregate(delivered, weight.GroupByMaterial, reg)),
		DeliveredByMetal:    roundBuckets(weight.Aggregate(delivered, weight.GroupByMetalType, reg)),
		GeneratedAt:         time.Now(),
	}

	for i := range orders {
		o := &orders[i]

		stages := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			stages = append(stages, it.Stage)
		}
		status := idx.DeriveOrderStatus(stages)
		d.StatusCounts[status]++

		d.Distributors = appendDistributor(d.Distributors, o, LinesFromOrder(o), reg)

		if u, ok := urgentFrom(o, status); ok {
			d.UrgentOrders = append(d.UrgentOrders, u)
		}
	}

	// 先按交期排序再截断，避免按遍历顺序丢掉最紧急的
	sort.Slice(d.UrgentOrders, func(i, j int) bool {
		return d.UrgentOrders[i].DeliveryDate.Before(d.UrgentOrders[j].DeliveryDate)
	})
	if len(d.UrgentOrders) > 20 {
		d.UrgentOrders = d.UrgentOrders[:20]
	}

	sort.Slice(d.Distributors, func(i, j int) bool {
		return d.Distributors[i].Gross > d.Distributors[j].Gross
	})
	// 累计期间保持未舍入，呈现时统一舍入
	for i := range d.Distributors {
		d.Distributors[i].Gross = weight.Round2(d.Distributors[i].Gross)
		d.Distributors[i].Pure = weight.Round2(d.Distributors[i].Pure)
	}

	d.TopProducts = topProducts(lines, 10)
	return d
}

func roundBuckets(buckets map[string]weight.Bucket) map[string]weight.Bucket {
	for k, b := range buckets {
		b.Gross = weight.Round2(b.Gross)
		b.Pure = weight.Round2(b.Pure)
		buckets[k] = b
	}
	return buckets
}

func appendDistributor(summaries []DistributorSummary, o *entity.Order, lines []weight.Line, reg *weight.Registry) []DistributorSummary {
	var gross, pure float64
	pieces := 0
	byCategory := make(map[string]int)
	byMetal := make(map[string]int)
	for _, l := range lines {
		w := weight.Compute(l, reg)
		gross += w.Gross
		pure += w.Pure
		pieces += l.Quantity
		if l.CategoryName != "" {
			byCategory[l.CategoryName] += l.Quantity
		}
		byMetal[l.MetalType] += l.Quantity
	}

	for i := range summaries {
		if summaries[i].DistributorID == o.DistributorID {
			summaries[i].Orders++
			summaries[i].Pieces += pieces
			summaries[i].Gross += gross
			summaries[i].Pure += pure
			for k, n := range byCategory {
				summaries[i].PiecesByCategory[k] += n
			}
			for k, n := range byMetal {
				summaries[i].PiecesByMetal[k] += n
			}
			return summaries
		}
	}

	s := DistributorSummary{
		DistributorID:    o.DistributorID,
		Orders:           1,
		Pieces:           pieces,
		Gross:            gross,
		Pure:             pure,
		PiecesByCategory: byCategory,
		PiecesByMetal:    byMetal,
	}
	if o.Distributor != nil {
		s.CompanyName = o.Distributor.CompanyName
	}
	return append(summaries, s)
}

// urgentFrom 距交期不足两天且未完结的订单进入预警
func urgentFrom(o *entity.Order, status string) (UrgentOrder, bool) {
	if o.RequestedDeliveryDate == nil {
		return UrgentOrder{}, false
	}
	if status == entity.OrderStatusCompleted || status == entity.OrderStatusCancelled {
		return UrgentOrder{}, false
	}
	days := int(time.Until(*o.RequestedDeliveryDate).Hours() / 24)
	if days > 2 {
		return UrgentOrder{}, false
	}
	u := UrgentOrder{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        status,
		DeliveryDate:  *o.RequestedDeliveryDate,
		DaysRemaining: days,
	}
	if o.Distributor != nil {
		u.CompanyName = o.Distributor.CompanyName
	}
	return u, true
}

func topProducts(lines []weight.Line, limit int) []ProductStat {
	pieces := make(map[string]int)
	for _, l := range lines {
		if l.ModelNo == "" {
			continue
		}
		pieces[l.ModelNo] += l.Quantity
	}

	stats := make([]ProductStat, 0, len(pieces))
	for model, n := range pieces {
		stats = append(stats, ProductStat{ModelNo: model, Pieces: n})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Pieces != stats[j].Pieces {
			return stats[i].Pieces > stats[j].Pieces
		}
		return stats[i].ModelNo < stats[j].ModelNo
	})
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}
