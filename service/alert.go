package service

import (
	"fmt"
	"log"

	"centsible/config"
	"centsible/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AlertService 预算预警服务：在消费写入或预算修改后重新计算类别进度，
// 达到阈值时生成预警记录。必须与触发写入处于同一事务，避免并发写入
// 读到旧的聚合值后重复决策。
type AlertService struct {
	cfg    *config.Config
	mailer *EmailService
}

// NewAlertService 创建预警服务
func NewAlertService(cfg *config.Config) *AlertService {
	return &AlertService{
		cfg:    cfg,
		mailer: NewEmailService(&cfg.Email),
	}
}

// Check 重新计算类别在 (year, month) 的支出并按需生成预警。
// 未生成预警时返回 (nil, nil)。tx 必须是触发写入所在的事务。
//
// 默认行为：每次触发写入只要仍超过阈值就新增一条预警记录，不做去重
// （与历史版本保持一致，可能产生重复提醒）。配置 alert.dedupe_unread
// 后，同类别存在未读的同类型预警时不再重复生成。
func (s *AlertService) Check(tx *gorm.DB, user *models.User, category *models.Category, year, month int) (*models.BudgetAlert, error) {
	// 未设置预算的类别不参与预警
	if category.BudgetAmount.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	spend, err := NewAggregator(tx).SumForPeriod(user.ID, &category.ID, year, month)
	if err != nil {
		return nil, err
	}

	if !ShouldAlert(spend, category.BudgetAmount, category.AlertThreshold) {
		return nil, nil
	}

	if s.cfg.Alert.DedupeUnread {
		var existing int64
		err := tx.Model(&models.BudgetAlert{}).
			Where("user_id = ? AND category_id = ? AND alert_type = ? AND is_read = ?",
				user.ID, category.ID, models.AlertTypeThreshold, false).
			Count(&existing).Error
		if err != nil {
			return nil, err
		}
		if existing > 0 {
			return nil, nil
		}
	}

	progress := Progress(spend, category.BudgetAmount)
	alert := models.BudgetAlert{
		UserID:     user.ID,
		CategoryID: category.ID,
		AlertType:  models.AlertTypeThreshold,
		Message:    fmt.Sprintf("预算提醒：%s 本月支出已达预算的 %d%%", category.Name, progress),
	}
	if err := tx.Create(&alert).Error; err != nil {
		return nil, err
	}

	// 邮件通知在事务外无关紧要的旁路，失败只记录日志，不影响主流程
	if s.cfg.Email.Enabled && user.Email != "" {
		if err := s.mailer.SendBudgetAlertEmail(user.Email, user.Username, category.Name, progress); err != nil {
			log.Printf("发送预警邮件失败: %v", err)
		}
	}

	return &alert, nil
}
