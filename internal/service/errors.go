package service

import (
	"errors"
	"fmt"
)

var (
	ErrEntityNotFound        = errors.New("实体不存在")
	ErrQueueItemNotFound     = errors.New("审核条目不存在")
	ErrEntityLocked          = errors.New("实体已锁定")
	ErrLookupNotSeeded       = errors.New("依赖的实体表为空，请先导入球队")
	ErrUnknownProviderColumn = errors.New("未知的外部ID列")
	ErrKindMismatch          = errors.New("实体类型不一致")
	ErrSlotOccupied          = errors.New("目标实体该数据源已有不同的外部ID")
	ErrAlreadyApproved       = errors.New("审核条目已通过，不能再次处理")
	ErrStubTarget            = errors.New("不能关联到占位实体")
)

// ConflictError 外部 ID 已被另一个实体占用
type ConflictError struct {
	Column   string
	Value    string
	OwnerID  uint64 // 当前占用者，约束冲突时可能未知（0）
	TargetID uint64
}

func (e *ConflictError) Error() string {
	if e.OwnerID == 0 {
		return fmt.Sprintf("外部ID冲突: %s=%s 已被其他实体占用，无法写入实体%d", e.Column, e.Value, e.TargetID)
	}
	return fmt.Sprintf("外部ID冲突: %s=%s 已属于实体%d，无法写入实体%d", e.Column, e.Value, e.OwnerID, e.TargetID)
}

// RowError 批处理中单行的失败
type RowError struct {
	RowIndex int    `json:"row_index"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

func newRowError(idx int, err error) RowError {
	return RowError{RowIndex: idx, Message: err.Error(), Err: err}
}
