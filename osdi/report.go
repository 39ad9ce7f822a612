package osdi

import (
	"errors"
	"time"
)

// Pass 流程类型
type Pass string

const (
	PassSetup       Pass = "setup"
	PassTemperature Pass = "temperature"
	PassUnsetup     Pass = "unsetup"
	PassBindCSC     Pass = "bind_csc"
)

// phase 流程对应的错误阶段
func (p Pass) phase() Phase {
	switch p {
	case PassTemperature:
		return PhaseTemperature
	case PassUnsetup:
		return PhaseUnsetup
	case PassBindCSC:
		return PhaseBind
	}
	return PhaseSetup
}

// EntityKind 实体类型
type EntityKind string

const (
	EntityModel    EntityKind = "model"
	EntityInstance EntityKind = "instance"
)

// Result 单个实体的处理结果
type Result struct {
	Kind   EntityKind
	Name   string
	Model  string // 实例所属模型
	Status Status
	Err    error

	Nodes      int // 合并后的节点数
	Collapsed  int // 消去的节点数
	Internal   int // 新建的内部节点数
	StateStart int
	States     int
}

// Report 一次流程的汇总
type Report struct {
	Pass     Pass
	Device   string
	Results  []*Result
	Duration time.Duration
}

func newReport(p Pass, device string) *Report {
	return &Report{Pass: p, Device: device}
}

func (r *Report) add(kind EntityKind, name, model string) *Result {
	res := &Result{Kind: kind, Name: name, Model: model}
	r.Results = append(r.Results, res)
	return res
}

// Failed 失败的实体
func (r *Report) Failed() []*Result {
	var out []*Result
	for _, res := range r.Results {
		if res.Status != StatusOK {
			out = append(out, res)
		}
	}
	return out
}

// Count 某类实体数量
func (r *Report) Count(kind EntityKind) int {
	n := 0
	for _, res := range r.Results {
		if res.Kind == kind {
			n++
		}
	}
	return n
}

// Err 有实体失败时返回汇总错误
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed))
	for _, res := range failed {
		errs = append(errs, res.Err)
	}
	return NewError(r.Pass.phase(), KindPrivate).Entity(r.Device).
		Detail("%d of %d entities failed in %s", len(failed), len(r.Results), r.Pass).
		Cause(errors.Join(errs...)).Build()
}
