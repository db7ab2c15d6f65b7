package repository

import "time"

// EventListFilter 查询履约事件列表的过滤条件
type EventListFilter struct {
	Page        int
	PageSize    int
	OrgID       uint
	OrderID     uint
	EventType   string
	EventCode   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
