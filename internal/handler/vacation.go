package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vacation-approval/pkg/async"
	"vacation-approval/pkg/duration"
	"vacation-approval/pkg/idgen"
	"vacation-approval/pkg/vacation"
	"vacation-approval/pkg/validator"
)

// VacationHandler 休假申请验证接口
type VacationHandler struct {
	port            vacation.DeputyConflictPort
	rules           vacation.RulesConfig
	ids             *idgen.Generator
	logger          *zap.Logger
	conflictTimeout time.Duration
	clock           func() time.Time
}

// NewVacationHandler 创建处理器，clock 为 nil 时使用 time.Now
func NewVacationHandler(port vacation.DeputyConflictPort, rules vacation.RulesConfig, ids *idgen.Generator,
	conflictTimeout time.Duration, clock func() time.Time, logger *zap.Logger) *VacationHandler {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VacationHandler{
		port:            port,
		rules:           rules,
		ids:             ids,
		logger:          logger,
		conflictTimeout: conflictTimeout,
		clock:           clock,
	}
}

// ValidateResponse 验证结果
//   - Valid: 同步规则全部通过且代理人冲突检查已完成并通过
//   - Pending: 代理人冲突检查在超时前未完成
type ValidateResponse struct {
	PassID  idgen.ID          `json:"pass_id"`
	Valid   bool              `json:"valid"`
	Pending bool              `json:"pending"`
	Errors  map[string]string `json:"errors,omitempty"`
	Result  *validator.Result `json:"result"`
}

// Validate 执行全部业务规则
// POST /api/v1/vacations/validate
func (h *VacationHandler) Validate(c *gin.Context) {
	var record vacation.Record
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	passID, err := h.ids.NextID()
	if err != nil {
		h.logger.Error("generate pass id", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start validation"})
		return
	}
	log := h.logger.With(zap.Stringer("pass_id", passID))

	rules, err := vacation.NewBusinessRules(&record, h.port,
		vacation.WithConfig(h.rules),
		vacation.WithClock(h.clock),
		vacation.WithLogger(log),
	)
	if err != nil {
		log.Error("create business rules", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start validation"})
		return
	}

	ctx := c.Request.Context()
	res := rules.Validate(ctx)

	pending := false
	if _, err := h.awaitConflict(ctx, rules.PendingDeputyConflict()); err != nil {
		switch {
		case errors.Is(err, async.ErrTimeout):
			pending = true
			log.Warn("deputy conflict check not settled in time", zap.Duration("timeout", h.conflictTimeout))
		default:
			log.Error("deputy conflict check failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"pass_id": passID, "error": err.Error()})
			return
		}
	}

	resp := ValidateResponse{
		PassID:  passID,
		Valid:   !pending && !res.HasErrors(),
		Pending: pending,
		Errors:  res.Messages(),
		Result:  res,
	}
	log.Info("vacation validated",
		zap.Bool("valid", resp.Valid),
		zap.Bool("pending", pending),
		zap.Int("error_count", res.ErrorCount()),
	)
	c.JSON(http.StatusOK, resp)
}

// awaitConflict 等待代理人冲突检查，超过 conflictTimeout 返回 async.ErrTimeout
func (h *VacationHandler) awaitConflict(ctx context.Context, f *async.Future[validator.Outcome]) (validator.Outcome, error) {
	if h.conflictTimeout <= 0 {
		return f.AwaitContext(ctx)
	}
	return f.AwaitWithTimeout(h.conflictTimeout)
}

// DurationResponse 休假时长视图
type DurationResponse struct {
	From              time.Time   `json:"from"`
	To                time.Time   `json:"to"`
	DaysDiff          int         `json:"days_diff"`
	IsOverLimitRange  bool        `json:"is_over_limit_range"`
	RangeDays         []time.Time `json:"range_days"`
	ExcludedWeekdays  []time.Time `json:"excluded_weekdays"`
	ExcludedDays      []time.Time `json:"excluded_days"`
	VacationDays      []time.Time `json:"vacation_days"`
	VacationDaysCount int         `json:"vacation_days_count"`
}

// NewDurationResponse 由视图生成响应
func NewDurationResponse(v duration.View) DurationResponse {
	in := v.Input()
	return DurationResponse{
		From:              in.From,
		To:                in.To,
		DaysDiff:          v.DaysDiff(),
		IsOverLimitRange:  v.IsOverLimitRange(),
		RangeDays:         v.RangeDays(),
		ExcludedWeekdays:  v.ExcludedWeekdays(),
		ExcludedDays:      v.ExcludedDays(),
		VacationDays:      v.VacationDays(),
		VacationDaysCount: v.VacationDaysCount(),
	}
}

// dateLayouts 查询参数接受的日期格式
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// Duration 计算休假时长
// GET /api/v1/vacations/duration?from=2026-10-12&to=2026-10-16&excluded=2026-10-14,2026-10-15
func (h *VacationHandler) Duration(c *gin.Context) {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from: " + err.Error()})
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to: " + err.Error()})
		return
	}

	in := duration.Input{From: from, To: to}
	if raw := c.Query("excluded"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			d, err := parseDate(strings.TrimSpace(s))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid excluded date: " + err.Error()})
				return
			}
			in.ExcludedDays = append(in.ExcludedDays, d)
		}
	}

	calc := duration.NewCalculator(duration.WithMaxDaysDiff(h.rules.MaxRangeDays))
	c.JSON(http.StatusOK, NewDurationResponse(calc.View(in)))
}
