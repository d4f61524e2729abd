package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/jiyun-go/internal/config"
	"github.com/jiyun-go/internal/constants"
	"github.com/jiyun-go/internal/logger"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/queue"
	"github.com/jiyun-go/internal/repository"

	"gorm.io/gorm"
)

// 补偿记录落库后先投递一次异步快速重试，扫表任务仍按周期兜底
const compensationRetryDelay = 30 * time.Second

// CompensationQueue 补偿重试任务的投递端，由 *queue.Client 实现
type CompensationQueue interface {
	EnqueueCompensationRetry(payload queue.CompensationRetryPayload, delay time.Duration) error
}

// PointsService 积分账本服务
// 所有余额变动都在一个事务内完成：锁用户行、改余额、追加一条流水。
type PointsService struct {
	userRepo   repository.UserRepository
	pointsRepo repository.PointsRepository
	compRepo   repository.CompensationRepository
	compQueue  CompensationQueue
	cfg        *config.Config
}

// PointsChangeInput 积分变动输入
type PointsChangeInput struct {
	UserID uint
	Amount int64 // 变动数量，恒为正数
	Reason string
	RefID  *uint
	Remark string
}

// NewPointsService 创建积分服务
func NewPointsService(
	userRepo repository.UserRepository,
	pointsRepo repository.PointsRepository,
	compRepo repository.CompensationRepository,
	cfg *config.Config,
) *PointsService {
	return &PointsService{
		userRepo:   userRepo,
		pointsRepo: pointsRepo,
		compRepo:   compRepo,
		cfg:        cfg,
	}
}

// GetBalance 查询用户当前积分余额
func (s *PointsService) GetBalance(userID uint) (int64, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}
	return user.Points, nil
}

// ListHistories 查询积分流水
func (s *PointsService) ListHistories(filter repository.PointsHistoryListFilter) ([]models.PointsHistory, int64, error) {
	return s.pointsRepo.ListHistories(filter)
}

// Award 增加积分并写流水
func (s *PointsService) Award(input PointsChangeInput) (*models.PointsHistory, error) {
	if input.Amount <= 0 {
		return nil, ErrPointsInvalidAmount
	}
	var entry *models.PointsHistory
	if err := s.pointsRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.AwardInTx(tx, input)
		return err
	}); err != nil {
		return nil, err
	}
	return entry, nil
}

// Deduct 扣减积分并写流水，余额不足时返回携带缺口的错误
func (s *PointsService) Deduct(input PointsChangeInput) (*models.PointsHistory, error) {
	if input.Amount <= 0 {
		return nil, ErrPointsInvalidAmount
	}
	var entry *models.PointsHistory
	if err := s.pointsRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.DeductInTx(tx, input)
		return err
	}); err != nil {
		return nil, err
	}
	return entry, nil
}

// AwardInTx 事务内增加积分（订单结算、结拍退款等与外层写入同事务提交）
func (s *PointsService) AwardInTx(tx *gorm.DB, input PointsChangeInput) (*models.PointsHistory, error) {
	return s.changeBalanceInTx(tx, input, input.Amount)
}

// DeductInTx 事务内扣减积分
func (s *PointsService) DeductInTx(tx *gorm.DB, input PointsChangeInput) (*models.PointsHistory, error) {
	return s.changeBalanceInTx(tx, input, -input.Amount)
}

// changeBalanceInTx 核心余额变动：锁行、校验、改余额、写流水。
// 禁止在两次数据库往返之间做余额判断，否则并发扣减会联合透支。
func (s *PointsService) changeBalanceInTx(tx *gorm.DB, input PointsChangeInput, delta int64) (*models.PointsHistory, error) {
	if input.Amount <= 0 {
		return nil, ErrPointsInvalidAmount
	}
	user, err := s.userRepo.WithTx(tx).GetByIDForUpdate(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	after := user.Points + delta
	if after < 0 {
		return nil, newInsufficientBalanceError(input.Amount, user.Points)
	}

	now := time.Now()
	if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"points":     after,
		"updated_at": now,
	}).Error; err != nil {
		return nil, err
	}

	entry := &models.PointsHistory{
		UserID:       user.ID,
		Amount:       delta,
		BalanceAfter: after,
		Reason:       input.Reason,
		RefID:        input.RefID,
		Remark:       cleanPointsRemark(input.Remark),
		CreatedAt:    now,
	}
	if err := s.pointsRepo.WithTx(tx).CreateHistory(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RefundWithFallback 补偿性返还
// 出价、下单等外层操作在扣分成功后失败时调用。返还本身失败时落一条
// pending_compensations 记录交给后台任务重试，绝不静默吞掉。
func (s *PointsService) RefundWithFallback(input PointsChangeInput) {
	_, err := s.Award(input)
	if err == nil {
		return
	}
	logger.Errorw("points_refund_failed",
		"user_id", input.UserID,
		"amount", input.Amount,
		"reason", input.Reason,
		"error", err,
	)
	record := &models.PendingCompensation{
		UserID:    input.UserID,
		Amount:    input.Amount,
		Reason:    input.Reason,
		RefID:     input.RefID,
		Status:    constants.CompensationStatusPending,
		LastError: truncateError(err),
	}
	if createErr := s.compRepo.Create(record); createErr != nil {
		// 落库也失败时只剩日志可查，按致命对账问题记录
		logger.Errorw("points_compensation_record_failed",
			"user_id", input.UserID,
			"amount", input.Amount,
			"reason", input.Reason,
			"error", createErr,
		)
		return
	}
	if s.compQueue != nil {
		if enqueueErr := s.compQueue.EnqueueCompensationRetry(
			queue.CompensationRetryPayload{CompensationID: record.ID},
			compensationRetryDelay,
		); enqueueErr != nil {
			// 投递失败时扫表任务兜底
			logger.Warnw("points_compensation_enqueue_failed", "id", record.ID, "error", enqueueErr)
		}
	}
}

// AttachCompensationQueue 挂接补偿重试队列
// 挂接后 RefundWithFallback 落库成功会立即投递一次异步重试。
func (s *PointsService) AttachCompensationQueue(q CompensationQueue) {
	s.compQueue = q
}

// RetryCompensation 重试一条待补偿记录
func (s *PointsService) RetryCompensation(id uint) error {
	var alreadyDone bool
	err := s.pointsRepo.Transaction(func(tx *gorm.DB) error {
		record, err := s.compRepo.WithTx(tx).GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrCompensationNotFound
		}
		if record.Status == constants.CompensationStatusDone {
			alreadyDone = true
			return nil
		}
		if _, err := s.AwardInTx(tx, PointsChangeInput{
			UserID: record.UserID,
			Amount: record.Amount,
			Reason: record.Reason,
			RefID:  record.RefID,
			Remark: fmt.Sprintf("补偿返还（第 %d 次重试）", record.Attempts+1),
		}); err != nil {
			return err
		}
		record.Status = constants.CompensationStatusDone
		record.Attempts++
		record.LastError = ""
		return s.compRepo.WithTx(tx).Update(record)
	})
	if err != nil && !alreadyDone {
		s.recordCompensationFailure(id, err)
	}
	return err
}

// ListPendingCompensations 查询待重试补偿记录
func (s *PointsService) ListPendingCompensations(limit int) ([]models.PendingCompensation, error) {
	return s.compRepo.ListPending(limit)
}

// ListCompensations 管理端分页查询补偿记录
func (s *PointsService) ListCompensations(filter repository.CompensationListFilter) ([]models.PendingCompensation, int64, error) {
	return s.compRepo.List(filter)
}

// SignIn 每日签到奖励，同一自然日只发一次
func (s *PointsService) SignIn(userID uint) (*models.PointsHistory, error) {
	award := s.cfg.Points.SignInAward
	if award <= 0 {
		award = 5
	}
	var entry *models.PointsHistory
	if err := s.pointsRepo.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.WithTx(tx).GetByIDForUpdate(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		now := time.Now()
		if user.LastSignInAt != nil && sameDay(*user.LastSignInAt, now) {
			return ErrAlreadySignedIn
		}
		entry, err = s.AwardInTx(tx, PointsChangeInput{
			UserID: userID,
			Amount: award,
			Reason: constants.PointsReasonSignIn,
			Remark: "每日签到",
		})
		if err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Update("last_sign_in_at", now).Error
	}); err != nil {
		return nil, err
	}
	return entry, nil
}

// AdminAdjust 管理员调整用户积分，delta 带符号
func (s *PointsService) AdminAdjust(userID uint, delta int64, remark string) (*models.PointsHistory, error) {
	if delta == 0 {
		return nil, ErrPointsInvalidAmount
	}
	input := PointsChangeInput{
		UserID: userID,
		Reason: constants.PointsReasonAdminAdjust,
		Remark: cleanPointsRemark(remark),
	}
	if input.Remark == "" {
		input.Remark = "管理员调整积分"
	}
	if delta > 0 {
		input.Amount = delta
		return s.Award(input)
	}
	input.Amount = -delta
	return s.Deduct(input)
}

func (s *PointsService) recordCompensationFailure(id uint, cause error) {
	record, err := s.compRepo.GetByID(id)
	if err != nil || record == nil {
		return
	}
	record.Attempts++
	record.LastError = truncateError(cause)
	if err := s.compRepo.Update(record); err != nil {
		logger.Errorw("points_compensation_attempt_record_failed", "id", id, "error", err)
	}
	logger.Errorw("points_compensation_retry_failed",
		"id", id,
		"user_id", record.UserID,
		"amount", record.Amount,
		"attempts", record.Attempts,
		"error", cause,
	)
}

func cleanPointsRemark(remark string) string {
	remark = strings.TrimSpace(remark)
	if len([]rune(remark)) > 100 {
		return string([]rune(remark)[:100])
	}
	return remark
}

func truncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len([]rune(msg)) > 280 {
		return string([]rune(msg)[:280])
	}
	return msg
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
