package controller

import (
	"crypto/subtle"
	"errors"

	"reading_coach_backend/internal/service"
	"reading_coach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// BookingController 接收日历方的预约 webhook。
// 调用方不是登录用户，靠共享密钥头校验来源。
type BookingController struct {
	BookingService *service.BookingService
	WebhookSecret  string
}

func NewBookingController(bookingService *service.BookingService, webhookSecret string) *BookingController {
	return &BookingController{
		BookingService: bookingService,
		WebhookSecret:  webhookSecret,
	}
}

// HandleBookingWebhook godoc
// @Summary 预约事件回调
// @Description 日历服务推送新预约，创建课次并自动分配教练
// @Tags 预约
// @Accept  json
// @Produce  json
// @Param   X-Webhook-Secret header string true "回调签名密钥"
// @Param   body body service.BookingEvent true "预约事件"
// @Success 201 {object} util.Response{data=service.BookingResult} "课次已创建"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "密钥校验失败"
// @Failure 404 {object} util.Response "找不到孩子或在读课程期"
// @Router /api/webhooks/booking [post]
func (c *BookingController) HandleBookingWebhook(ctx *gin.Context) {
	secret := ctx.GetHeader("X-Webhook-Secret")
	if c.WebhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(c.WebhookSecret)) != 1 {
		util.Unauthorized(ctx)
		return
	}

	var event service.BookingEvent
	if err := ctx.ShouldBindJSON(&event); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.BookingService.CreateFromWebhook(ctx.Request.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrChildNotFound), errors.Is(err, util.ErrEnrollmentNotFound):
			util.Error(ctx, 404, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, result)
}
