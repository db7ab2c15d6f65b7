package models

import (
	"strings"

	"github.com/fulfill-next/internal/logger"
)

// InitDefaultOrganization 初始化默认组织
func InitDefaultOrganization(name, code string) error {
	var count int64
	DB.Model(&Organization{}).Count(&count)

	// 已有组织则不再创建
	if count > 0 {
		return nil
	}

	if name == "" {
		name = "Default Organization"
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "ORG"
	}

	org := Organization{
		Name:           name,
		Code:           code,
		RequirePayment: true,
	}

	if err := DB.Create(&org).Error; err != nil {
		return err
	}

	logger.Warnw("default_organization_created", "name", name, "code", code)
	return nil
}
