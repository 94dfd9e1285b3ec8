package service

import (
	"errors"
	"reading_coach_backend/internal/config"
	"reading_coach_backend/internal/model"
	"reading_coach_backend/internal/repository"
	"reading_coach_backend/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	AccountRepo *repository.AccountRepository
	Cfg         *config.Config
}

func NewAuthService(accountRepo *repository.AccountRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		AccountRepo: accountRepo,
		Cfg:         cfg,
	}
}

func (s *AuthService) Register(account *model.Account) error {
	_, err := s.AccountRepo.FindByEmail(account.Email)
	if err == nil {
		return errors.New("该邮箱已被注册")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	account.Password = string(hashedPassword)
	return s.AccountRepo.Create(account)
}

func (s *AuthService) Login(email, password string) (string, error) {
	account, err := s.AccountRepo.FindByEmail(email)
	if err != nil {
		return "", errors.New("invalid credentials")
	}
	if account.Disabled {
		return "", errors.New("账号已停用")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	_ = s.AccountRepo.UpdateLastLogin(account.ID)

	return util.GenerateJWT(account, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

func (s *AuthService) GetCurrentAccount(c *gin.Context) *model.Account {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	account, _ := s.AccountRepo.FindByID(claims.AccountID)
	return account
}
