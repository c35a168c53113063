package service

import (
	"errors"

	"github.com/bitfantasy/gemflow/internal/cache"
	"github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/bitfantasy/gemflow/internal/storage"
)

// 业务规则错误 — 高频且预期内，由处理器转为可操作的用户消息，不记系统错误日志
var (
	ErrDuplicateName     = errors.New("name already exists")
	ErrBaseMetalConflict = errors.New("material already has a base metal (ratio 1.0)")
	ErrInUse             = errors.New("record is referenced and cannot be deleted")
	ErrInvalidStageType  = errors.New("invalid stage type")
)

// Services 目录域服务集合
type Services struct {
	Material    *MaterialService
	Metal       *MetalService
	Taxonomy    *TaxonomyService
	Product     *ProductService
	Collection  *CollectionService
	Stage       *StageService
	Distributor *DistributorService
}

// NewServices 创建目录域服务集合
func NewServices(repos *repository.Repositories, views *cache.Views, uploader *storage.Uploader) *Services {
	return &Services{
		Material:    NewMaterialService(repos.Material, repos.Metal, views),
		Metal:       NewMetalService(repos.Metal, repos.Material, views),
		Taxonomy:    NewTaxonomyService(repos.Category, repos.Size),
		Product:     NewProductService(repos.Product, repos.Category, uploader),
		Collection:  NewCollectionService(repos.Collection, repos.Product),
		Stage:       NewStageService(repos.Stage, views),
		Distributor: NewDistributorService(repos.Distributor),
	}
}
