package dataset

import (
	"github.com/zeusync/dataobjects/internal/core/models"
)

// TypeName is the catalog name of DataSet.
const TypeName = "DataSet"

// Factory builds DataSets carrying the configured allocation cap and preferred size.
type Factory struct {
	DefaultElements uint64
	MaxBytes        uint64
}

func (f Factory) Types() []models.TypeSpec {
	return []models.TypeSpec{{Name: TypeName, Kind: models.KindSource}}
}

func (f Factory) Build(t *models.TypeDescriptor) models.Entity {
	if t.FullName() != TypeName {
		return nil
	}
	return New(WithDefaultBufferElements(f.DefaultElements), WithMaxBytes(f.MaxBytes))
}

// Create builds and registers an empty buffer.
func Create(reg *models.Registry, owner models.Entity, context string, public bool) (*DataSet, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	t, ok := reg.Type(TypeName)
	if !ok {
		return nil, models.ErrTypeNotFound
	}
	e, _ := reg.Create(t)
	d, ok := e.(*DataSet)
	if !ok {
		return nil, models.ErrTypeNotFound
	}
	if err := reg.Add(d, owner, t, context, public); err != nil {
		return nil, err
	}
	return d, nil
}
