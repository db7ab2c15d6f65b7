package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fulfill-next/internal/constants"
)

// allowedTransitions 订单宏观状态机
// 里程碑进度不在这里表达，状态机只约束订单自身的 status 字段。
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusDraft: {
		constants.OrderStatusPending:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusCompleted: true,
	},
	constants.OrderStatusCompleted: {},
	constants.OrderStatusCancelled: {},
}

// IsValidTransition 判断状态迁移是否合法（同状态恒为合法）
func IsValidTransition(current, target string) bool {
	if current == target {
		return true
	}
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

// ValidateTransition 校验状态迁移，非法时返回带迁移对与合法目标的错误
func ValidateTransition(current, target string) error {
	if IsValidTransition(current, target) {
		return nil
	}
	if _, ok := allowedTransitions[current]; !ok {
		return fmt.Errorf("%w: unknown status %q", ErrOrderTransitionInvalid, current)
	}
	destinations := AllowedDestinations(current)
	if len(destinations) == 0 {
		return fmt.Errorf("%w: cannot change %q to %q: %q is a terminal state", ErrOrderTransitionInvalid, current, target, current)
	}
	return fmt.Errorf("%w: cannot change %q to %q (allowed: %s)", ErrOrderTransitionInvalid, current, target, strings.Join(destinations, ", "))
}

// AllowedDestinations 返回某状态的全部合法目标（排序后）
func AllowedDestinations(current string) []string {
	nexts := allowedTransitions[current]
	destinations := make([]string, 0, len(nexts))
	for status := range nexts {
		destinations = append(destinations, status)
	}
	sort.Strings(destinations)
	return destinations
}
