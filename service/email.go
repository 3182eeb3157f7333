package service

import (
	"fmt"

	"centsible/config"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务（预算预警通知）
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendBudgetAlertEmail 发送预算预警通知邮件
func (s *EmailService) SendBudgetAlertEmail(toEmail, username, categoryName string, progress int) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 email.enabled=true")
	}

	subject := "【Centsible】预算提醒"
	body := s.generateAlertEmailBody(username, categoryName, progress)

	return s.sendEmail(toEmail, subject, body)
}

// generateAlertEmailBody 生成预警邮件内容
func (s *EmailService) generateAlertEmailBody(username, categoryName string, progress int) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #10b981, #059669); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .progress-box { background: linear-gradient(135deg, #fff7ed, #ffedd5); border: 2px dashed #f59e0b; border-radius: 12px; padding: 30px; text-align: center; margin: 30px 0; }
        .progress { font-size: 36px; font-weight: bold; color: #d97706; }
        .warning { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0; border-radius: 4px; }
        .warning p { margin: 0; color: #856404; font-size: 14px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 Centsible</h1>
        </div>
        <div class="content">
            <p>尊敬的 <strong>%s</strong>，您好！</p>
            <p>您的类别 <strong>%s</strong> 本月支出已达预算的：</p>
            <div class="progress-box">
                <span class="progress">%d%%</span>
            </div>
            <div class="warning">
                <p>⚠️ 支出已接近或超过您设置的预警阈值，请注意控制开支。</p>
            </div>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
            <p>© Centsible - 您的个人预算管理助手</p>
        </div>
    </div>
</body>
</html>
`, username, categoryName, progress)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}

// SendTestEmail 发送测试邮件
func (s *EmailService) SendTestEmail(toEmail string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用")
	}

	subject := "【Centsible】邮件配置测试"
	body := `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>✅ 邮件配置成功</h2>
    <p>如果您收到这封邮件，说明邮件服务配置正确。</p>
    <p style="color: #666;">—— Centsible</p>
</body>
</html>
`
	return s.sendEmail(toEmail, subject, body)
}
