package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

type ProjectStatus string

const (
	StatusPending  ProjectStatus = "pending"
	StatusApproved ProjectStatus = "approved"
	StatusRejected ProjectStatus = "rejected"
)

func (s ProjectStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

var ErrInvalidTransition = errors.New("invalid project status transition")

// 合法迁移表：from → to；rejected 可重新通过
var transitions = map[ProjectStatus]map[ProjectStatus]struct{}{
	StatusPending:  {StatusApproved: {}, StatusRejected: {}},
	StatusRejected: {StatusApproved: {}},
	StatusApproved: {StatusRejected: {}},
}

func CanTransition(from, to ProjectStatus) bool {
	_, ok := transitions[from][to]
	return ok
}

// SourcesOf 能迁移到 to 的所有状态（有序，便于拼 SQL）
func SourcesOf(to ProjectStatus) []ProjectStatus {
	var out []ProjectStatus
	for from, targets := range transitions {
		if _, ok := targets[to]; ok {
			out = append(out, from)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
)

// Transition 一次审核动作；approvedAt/approvedBy/rejectionReason 只由这里写入
type Transition struct {
	Action ModerationAction
	To     ProjectStatus
	At     time.Time
	By     string // 审核管理员
	Reason string
}

func Approve(adminID string, at time.Time) Transition {
	return Transition{Action: ActionApprove, To: StatusApproved, At: at, By: adminID}
}

func Reject(adminID, reason string, at time.Time) Transition {
	return Transition{Action: ActionReject, To: StatusRejected, At: at, By: adminID, Reason: reason}
}

func (t Transition) From() []ProjectStatus { return SourcesOf(t.To) }

// Columns 单行条件 UPDATE 写入的列；nil 表示清空
func (t Transition) Columns() map[string]any {
	switch t.To {
	case StatusApproved:
		return map[string]any{
			"status":           StatusApproved,
			"approved_at":      t.At,
			"approved_by":      t.By,
			"rejection_reason": nil,
			"updated_at":       t.At,
		}
	case StatusRejected:
		return map[string]any{
			"status":           StatusRejected,
			"rejection_reason": t.Reason,
			"approved_at":      nil,
			"approved_by":      nil,
			"updated_at":       t.At,
		}
	}
	return nil
}

// Apply 在内存对象上执行同样的迁移
func (t Transition) Apply(p *Project) error {
	if !CanTransition(p.Status, t.To) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, t.To)
	}
	p.Status = t.To
	p.UpdatedAt = t.At
	switch t.To {
	case StatusApproved:
		at, by := t.At, t.By
		p.ApprovedAt, p.ApprovedBy, p.RejectionReason = &at, &by, nil
	case StatusRejected:
		reason := t.Reason
		p.RejectionReason, p.ApprovedAt, p.ApprovedBy = &reason, nil, nil
	}
	return nil
}
