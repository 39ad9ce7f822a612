package osdi

import (
	"fmt"

	"go.uber.org/zap"
)

// 插件返回标志
const (
	EvalRetFlagLim    uint32 = 1 << iota // 限幅生效
	EvalRetFlagFatal                     // 不可恢复
	EvalRetFlagFinish                    // 请求结束仿真
	EvalRetFlagStop                      // 请求暂停
)

// 初始化错误码
const (
	InitErrOutOfBounds uint32 = 1 // 参数越界, ParamID 有效
)

// HandleKind 传给插件的句柄类型
type HandleKind uint32

const (
	HandleModel     HandleKind = 1 // setup 中的模型初始化
	HandleInstance  HandleKind = 2 // 实例初始化
	HandleModelTemp HandleKind = 4 // 温度更新中的模型初始化
)

// Handle 插件回调时标识当前实体
type Handle struct {
	Kind HandleKind
	Name string
}

func (h Handle) phase() Phase {
	switch h.Kind {
	case HandleModel:
		return PhaseModelSetup
	case HandleModelTemp:
		return PhaseTemperature
	default:
		return PhaseInstanceSetup
	}
}

// InitError 插件报告的单个初始化错误
type InitError struct {
	Code    uint32
	ParamID uint32
}

// InitInfo 插件初始化结果
type InitInfo struct {
	Flags  uint32
	Errors []InitError
}

// OutOfBounds 记录参数越界
func (i *InitInfo) OutOfBounds(param int) {
	i.Errors = append(i.Errors, InitError{Code: InitErrOutOfBounds, ParamID: uint32(param)})
}

// HandleInitInfo 对插件初始化结果分类.
// 致命/结束标志优先于错误列表; 未知错误码只记录日志.
func HandleInitInfo(h Handle, info *InitInfo, d *Descriptor) (Status, error) {
	if info.Flags&(EvalRetFlagFatal|EvalRetFlagFinish) != 0 {
		return StatusFatal, NewError(h.phase(), KindPanic).Entity(h.Name).
			Detail("plugin requested abort (flags %#x)", info.Flags).Build()
	}
	if len(info.Errors) == 0 {
		return StatusOK, nil
	}

	known := 0
	for _, e := range info.Errors {
		switch e.Code {
		case InitErrOutOfBounds:
			known++
			Logger().Error(fmt.Sprintf("Parameter %s is out of bounds!", d.paramName(e.ParamID)),
				zap.String("device", d.Name), zap.String("entity", h.Name))
		default:
			Logger().Warn(fmt.Sprintf("Unknown OSDI init error code %d!", e.Code),
				zap.String("device", d.Name), zap.String("entity", h.Name))
		}
	}
	if known == 0 {
		return StatusOK, nil
	}
	return StatusRecoverable, NewError(h.phase(), KindInit).Entity(h.Name).
		Detail("%d errors occurred during initialization", len(info.Errors)).Build()
}
