// 演示数据初始化脚本
//
// 空库部署后灌入一批教练、孩子与课程期，方便联调与演示。
// 已有数据时跳过，不做清空。
//
// 用法: go run scripts/seed_demo.go

package main

import (
	"log"
	"os"
	"reading_coach_backend/internal/config"
	"reading_coach_backend/internal/model"
	"reading_coach_backend/pkg/database"
	"reading_coach_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	var coachCount int64
	db.Model(&model.Coach{}).Count(&coachCount)
	if coachCount > 0 {
		log.Println("已有教练数据，跳过初始化")
		return
	}

	coaches := []model.Coach{
		{Name: "王老师", Email: "wang@example.com", Phone: "13800000001"},
		{Name: "李老师", Email: "li@example.com", Phone: "13800000002"},
		{Name: "张老师", Email: "zhang@example.com", Phone: "13800000003"},
	}
	if err := db.Create(&coaches).Error; err != nil {
		log.Fatalf("教练数据写入失败: %v", err)
	}

	children := []model.Child{
		{Name: "小明", Age: 7, Grade: "一年级", ParentName: "明妈妈", ParentEmail: "parent1@example.com"},
		{Name: "小红", Age: 8, Grade: "二年级", ParentName: "红爸爸", ParentEmail: "parent2@example.com"},
	}
	if err := db.Create(&children).Error; err != nil {
		log.Fatalf("孩子数据写入失败: %v", err)
	}

	enrollments := []model.Enrollment{
		{ChildID: children[0].ID, TotalSessions: 24, Status: model.EnrollmentActive},
		{ChildID: children[1].ID, TotalSessions: 48, Status: model.EnrollmentActive},
	}
	if err := db.Create(&enrollments).Error; err != nil {
		log.Fatalf("课程期数据写入失败: %v", err)
	}

	log.Printf("演示数据初始化完成: %d 位教练, %d 个孩子", len(coaches), len(children))
}
