package repository

import (
	"reading_coach_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AccountRepository struct {
	DB *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

func (r *AccountRepository) Create(account *model.Account) error {
	return r.DB.Create(account).Error
}

func (r *AccountRepository) FindByEmail(email string) (*model.Account, error) {
	var account model.Account
	err := r.DB.Where("email = ?", email).First(&account).Error
	return &account, err
}

func (r *AccountRepository) FindByID(id uint) (*model.Account, error) {
	var account model.Account
	err := r.DB.First(&account, id).Error
	return &account, err
}

func (r *AccountRepository) UpdateLastLogin(id uint) error {
	return r.DB.Model(&model.Account{}).
		Where("id = ?", id).
		UpdateColumn("last_login", time.Now()).Error
}
