package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 目录域仓库集合
type Repositories struct {
	Material    *MaterialRepository
	Metal       *MetalRepository
	Category    *CategoryRepository
	Size        *SizeRepository
	Product     *ProductRepository
	Collection  *CollectionRepository
	Stage       *StageRepository
	Distributor *DistributorRepository
}

// NewRepositories 创建目录域仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Material:    NewMaterialRepository(db),
		Metal:       NewMetalRepository(db),
		Category:    NewCategoryRepository(db),
		Size:        NewSizeRepository(db),
		Product:     NewProductRepository(db),
		Collection:  NewCollectionRepository(db),
		Stage:       NewStageRepository(db),
		Distributor: NewDistributorRepository(db),
	}
}
