package repository

import (
	"dealio-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationRepository interface {
	Create(location *model.Location) error
	FindAll(orgID uuid.UUID) ([]model.Location, error)
	FindByID(orgID, id uuid.UUID) (*model.Location, error)
	Update(location *model.Location) error
	Delete(orgID, id uuid.UUID, deletedBy string) error
}

type locationRepo struct {
	db *gorm.DB
}

func NewLocationRepo(db *gorm.DB) LocationRepository {
	return &locationRepo{db}
}

func (r *locationRepo) Create(location *model.Location) error {
	return r.db.Create(location).Error
}

func (r *locationRepo) FindAll(orgID uuid.UUID) ([]model.Location, error) {
	var locations []model.Location
	err := r.db.Where("organization_id = ?", orgID).Order("name ASC").Find(&locations).Error
	return locations, err
}

func (r *locationRepo) FindByID(orgID, id uuid.UUID) (*model.Location, error) {
	var location model.Location
	err := r.db.First(&location, "id = ? AND organization_id = ?", id, orgID).Error
	return &location, err
}

func (r *locationRepo) Update(location *model.Location) error {
	return r.db.Save(location).Error
}

func (r *locationRepo) Delete(orgID, id uuid.UUID, deletedBy string) error {
	if err := r.db.Model(&model.Location{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Location{}, "id = ? AND organization_id = ?", id, orgID).Error
}
