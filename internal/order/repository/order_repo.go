package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/gemflow/internal/order/entity"
	"gorm.io/gorm"
)

// OrderFilter 订单列表过滤条件
type OrderFilter struct {
	DistributorID string
	Status        string
	OrderNumber   string // 模糊匹配
	From          *time.Time
	To            *time.Time
}

// OrderRepository 订单仓库
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// preloadFull 订单完整关联：经销商、行项（含产品和类目）、审计
func preloadFull(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Distributor").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Product.Category").
		Preload("Audits", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
}

// FindAll 订单列表（含全部关联）
func (r *OrderRepository) FindAll(ctx context.Context, filter OrderFilter, page, pageSize int) ([]entity.Order, int64, error) {
	var items []entity.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Order{})

	if filter.DistributorID != "" {
		query = query.Where("distributor_id = ?", filter.DistributorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNumber != "" {
		query = query.Where("order_number ILIKE ?", "%"+filter.OrderNumber+"%")
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := preloadFull(query).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindAllForAnalytics 看板/报表用的全量订单（按时间窗，不分页）
func (r *OrderRepository) FindAllForAnalytics(ctx context.Context, from, to *time.Time) ([]entity.Order, error) {
	var items []entity.Order
	query := r.db.WithContext(ctx).Model(&entity.Order{})
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}
	err := query.
		Preload("Distributor").
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Product.Category").
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// FindWithCADFiles 含CAD文件产品的订单，按单号或货号模糊过滤，最多50单
func (r *OrderRepository) FindWithCADFiles(ctx context.Context, query string) ([]entity.Order, error) {
	var items []entity.Order

	cadOrders := r.db.Table("order_items").
		Select("order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.cad_file <> ''")

	q := r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("orders.id IN (?)", cadOrders)

	if query != "" {
		modelMatches := r.db.Table("order_items").
			Select("order_items.order_id").
			Joins("JOIN products ON products.id = order_items.product_id").
			Where("products.model_no ILIKE ?", "%"+query+"%")
		q = q.Where("orders.order_number ILIKE ? OR orders.id IN (?)", "%"+query+"%", modelMatches)
	}

	err := q.
		Preload("Distributor").
		Preload("Items").
		Preload("Items.Product").
		Order("created_at DESC").
		Limit(50).
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找订单（含全部关联）
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	var o entity.Order
	err := preloadFull(r.db.WithContext(ctx)).Where("id = ?", id).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindItemByID 查找订单行项（含所属订单及其全部行项）
func (r *OrderRepository) FindItemByID(ctx context.Context, itemID string) (*entity.OrderItem, error) {
	var item entity.OrderItem
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// CreateWithItems 创建订单及其行项和首条审计，单事务
// 提交前校验失败时不会走到这里，任何一步失败整体回滚，不留半截订单
func (r *OrderRepository) CreateWithItems(ctx context.Context, order *entity.Order, items []entity.OrderItem, audit *entity.OrderStageAudit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		audit.OrderID = order.ID
		return tx.Create(audit).Error
	})
}

// ApplyTransition 行项工序更新 + 订单状态重算 + 审计追加，单事务
// 订单状态始终可由行项工序重算，即便这里失败也能通过修复操作自愈
func (r *OrderRepository) ApplyTransition(ctx context.Context, itemID, stage, reason string, orderID, newStatus string, audit *entity.OrderStageAudit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.OrderItem{}).
			Where("id = ?", itemID).
			Updates(map[string]interface{}{"stage": stage, "stage_reason": reason}).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.Order{}).
			Where("id = ?", orderID).
			Update("status", newStatus).Error; err != nil {
			return err
		}
		return tx.Create(audit).Error
	})
}

// UpdateStatus 更新订单状态并追加审计
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID, status string, audit *entity.OrderStageAudit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Order{}).
			Where("id = ?", orderID).
			Update("status", status).Error; err != nil {
			return err
		}
		return tx.Create(audit).Error
	})
}

// UpdateItemDetails 更新行项明细（行级最后写入生效）
func (r *OrderRepository) UpdateItemDetails(ctx context.Context, item *entity.OrderItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// SplitInto 拆单：创建新订单并迁移行项归属，单事务
func (r *OrderRepository) SplitInto(ctx context.Context, newOrder *entity.Order, itemIDs []string, sourceOrderID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newOrder).Error; err != nil {
			return err
		}
		result := tx.Model(&entity.OrderItem{}).
			Where("id IN ? AND order_id = ?", itemIDs, sourceOrderID).
			Update("order_id", newOrder.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(itemIDs)) {
			return fmt.Errorf("expected to move %d items, moved %d", len(itemIDs), result.RowsAffected)
		}
		return nil
	})
}

// GenerateOrderNumber 生成订单号 ORD-{year}-{4位序号}
func (r *OrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("ORD-%s-", year)

	var maxNumber string
	err := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Select("COALESCE(MAX(order_number), '')").
		Where("order_number LIKE ?", prefix+"%").
		Scan(&maxNumber).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxNumber != "" {
		fmt.Sscanf(maxNumber, "ORD-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("ORD-%s-%04d", year, seq), nil
}
