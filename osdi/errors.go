package osdi

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates which pass stage produced the error
type Phase string

const (
	PhaseRegister      Phase = "register"       // descriptor validation
	PhaseModelSetup    Phase = "model_setup"    // setup_model hook
	PhaseInstanceSetup Phase = "instance_setup" // setup_instance hook
	PhaseTemperature   Phase = "temperature"    // temperature pass
	PhaseMapping       Phase = "mapping"        // internal node allocation
	PhaseBind          Phase = "bind"           // Jacobian binding
	PhaseUnsetup       Phase = "unsetup"        // node release
	PhaseSetup         Phase = "setup"          // whole pass
)

// Kind categorizes the error
type Kind string

const (
	KindLayout   Kind = "layout"   // descriptor offsets or counts are inconsistent
	KindInit     Kind = "init"     // plugin reported recoverable init errors
	KindPanic    Kind = "panic"    // plugin requested abort
	KindNoMem    Kind = "no_memory"
	KindInternal Kind = "internal" // host structures disagree
	KindNode     Kind = "node"     // node allocation failed
	KindPrivate  Kind = "private"  // at least one entity failed
	KindCanceled Kind = "canceled"
	KindNotFound Kind = "not_found"
)

// Status 阶段结果分类
type Status int

const (
	StatusOK Status = iota
	StatusRecoverable
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRecoverable:
		return "failed"
	default:
		return "fatal"
	}
}

// Error is the structured error returned by every pass stage
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Entity string // model or instance name
	Detail string
}

// Sentinels for errors.Is; they match any phase.
var (
	ErrLayout   = &Error{Kind: KindLayout}
	ErrPanic    = &Error{Kind: KindPanic}
	ErrNoMem    = &Error{Kind: KindNoMem}
	ErrPrivate  = &Error{Kind: KindPrivate}
	ErrBindMiss = &Error{Kind: KindInternal}
	ErrNotFound = &Error{Kind: KindNotFound}
)

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))
	if e.Entity != "" {
		b.WriteString(" at ")
		b.WriteString(e.Entity)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind && (t.Phase == "" || e.Phase == t.Phase)
	}
	return false
}

// Status classifies the error
func (e *Error) Status() Status {
	switch e.Kind {
	case KindInit, KindPrivate:
		return StatusRecoverable
	default:
		return StatusFatal
	}
}

// StatusOf classifies any error; foreign errors are fatal
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status()
	}
	return StatusFatal
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// NewError creates a new error builder
func NewError(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

// Entity sets the model or instance name
func (b *Builder) Entity(name string) *Builder {
	b.err.Entity = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// withEntity 为未标注实体的错误补上名称
func withEntity(err error, name string) error {
	var e *Error
	if errors.As(err, &e) && e.Entity == "" {
		e.Entity = name
	}
	return err
}
