package service

import (
	"testing"

	"centsible/config"

	"github.com/stretchr/testify/assert"
)

func newTestEmailService() *EmailService {
	return NewEmailService(&config.EmailConfig{})
}

func TestGenerateAlertEmailBody(t *testing.T) {
	s := newTestEmailService()
	body := s.generateAlertEmailBody("张三", "餐饮", 85)
	assert.Contains(t, body, "张三")
	assert.Contains(t, body, "餐饮")
	assert.Contains(t, body, "85%")
	assert.Contains(t, body, "预警阈值")
}

func TestSendBudgetAlertEmail_Disabled(t *testing.T) {
	s := newTestEmailService()

	// 未启用邮件服务时直接返回错误，不尝试连接 SMTP
	err := s.SendBudgetAlertEmail("to@example.com", "张三", "餐饮", 85)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "未启用")
}

func TestSendTestEmail_Disabled(t *testing.T) {
	s := newTestEmailService()
	err := s.SendTestEmail("to@example.com")
	assert.Error(t, err)
}
