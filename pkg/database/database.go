package database

import (
	"fmt"
	"log"
	"reading_coach_backend/internal/config"
	"reading_coach_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.Account{},
		&model.Coach{},
		&model.CoachLeave{},
		&model.Child{},
		&model.Enrollment{},
		&model.SessionTemplate{},
		&model.TemplateActivity{},
		&model.Session{},
		&model.ActivityLogEntry{},
		&model.LearningEvent{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认备课模板（空库时插入一套标准四环节朗读课）
	var tplCount int64
	db.Model(&model.SessionTemplate{}).Count(&tplCount)
	if tplCount == 0 {
		tpl := &model.SessionTemplate{
			Name:        "标准朗读课",
			Description: "热身-新词-共读-复述 四环节标准流程",
			Enabled:     true,
		}
		if err := db.Create(tpl).Error; err == nil {
			defaultActivities := []model.TemplateActivity{
				{TemplateID: tpl.ID, Index: 0, Name: "热身问答", Purpose: "进入状态，复习上次内容", DurationMinutes: 5},
				{TemplateID: tpl.ID, Index: 1, Name: "新词认读", Purpose: "本课生词卡片认读", DurationMinutes: 10},
				{TemplateID: tpl.ID, Index: 2, Name: "绘本共读", Purpose: "教练陪伴逐句朗读", DurationMinutes: 20},
				{TemplateID: tpl.ID, Index: 3, Name: "复述总结", Purpose: "孩子用自己的话复述故事", DurationMinutes: 10},
			}
			for i := range defaultActivities {
				db.Create(&defaultActivities[i])
			}
		}
	}

	return db, nil
}
