package service

import (
	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/pkg/code"
	"github.com/magnusfroste/notton/pkg/logger"

	"go.uber.org/zap"
)

// Notice is a user visible message: a failed mutation, a sync retry
// warning or the "using cached data" hint
type Notice struct {
	Code       *code.Code
	EntityType domain.EntityType
	EntityID   string
	Err        error
}

// Message 返回当前语言的提示文本
func (n Notice) Message() string {
	if n.Code == nil {
		return ""
	}
	return n.Code.Error()
}

// Notifier delivers notices to the user
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc 函数适配器
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier writes notices to the log
func NewLogNotifier(lg *zap.Logger) Notifier {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &logNotifier{logger: lg}
}

func (l *logNotifier) Notify(n Notice) {
	fields := []zap.Field{zap.Int("code", n.Code.Code())}
	if n.EntityID != "" {
		fields = append(fields,
			zap.String(logger.FieldEntityType, string(n.EntityType)),
			zap.String(logger.FieldEntityID, n.EntityID))
	}
	if n.Err != nil {
		fields = append(fields, zap.Error(n.Err))
	}
	l.logger.Warn(n.Code.Msg(), fields...)
}
