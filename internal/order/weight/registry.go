package weight

import (
	catalog "github.com/bitfantasy/gemflow/internal/catalog/entity"
)

// UnknownMaterial 未知金属归入的材质桶，界面据此渲染 "Unknown metal" 标记
const UnknownMaterial = "Unknown"

// Resolved 金属名称解析结果
// Known=false 表示注册表中不存在该名称（历史订单引用了已改名/已删除的金属），
// 此时按换算系数1、纯度0兜底，保证历史报表始终可渲染，调用方负责可见标记
type Resolved struct {
	ConversionRatio float64
	Purity          float64
	MaterialName    string
	Known           bool
}

// PureApplicable 纯度是否有意义（纯度为0的材质如白银不展示净金重）
func (r Resolved) PureApplicable() bool {
	return r.Purity > 0
}

// Registry 金属/材质注册表的不可变快照
// 每次请求加载一次后传入所有纯计算，引擎不触碰全局状态
type Registry struct {
	metals       map[string]Resolved
	materialMins map[string]float64
}

// NewRegistry 由金属列表构建快照，金属需预加载所属材质
func NewRegistry(metals []catalog.Metal, materials []catalog.Material) *Registry {
	reg := &Registry{
		metals:       make(map[string]Resolved, len(metals)),
		materialMins: make(map[string]float64, len(materials)),
	}

	matNames := make(map[string]string, len(materials))
	for _, m := range materials {
		matNames[m.ID] = m.Name
		reg.materialMins[m.Name] = m.MinOrderWeight
	}

	for _, m := range metals {
		materialName := matNames[m.MaterialID]
		if m.Material != nil {
			materialName = m.Material.Name
		}
		reg.metals[m.Name] = Resolved{
			ConversionRatio: m.ConversionRatio,
			Purity:          m.Purity,
			MaterialName:    materialName,
			Known:           true,
		}
	}
	return reg
}

// Resolve 按名称解析金属，未命中时返回兜底值而不是错误
func (r *Registry) Resolve(name string) Resolved {
	if m, ok := r.metals[name]; ok {
		return m
	}
	return Resolved{ConversionRatio: 1, Purity: 0, MaterialName: UnknownMaterial, Known: false}
}

// MinOrderWeight 材质的最低起订重量，未配置时为0
func (r *Registry) MinOrderWeight(materialName string) float64 {
	return r.materialMins[materialName]
}

// MaterialNames 已配置起订重量的材质名（排序由调用方负责）
func (r *Registry) MaterialNames() []string {
	names := make([]string, 0, len(r.materialMins))
	for name := range r.materialMins {
		names = append(names, name)
	}
	return names
}
