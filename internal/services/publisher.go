package services

import (
	"infinite-experiment/hangar/internal/changefeed"
	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/logging"
)

// ChangePublisher receives row changes made by the services. It is only wired
// when the database does not emit them itself (SQLite, tests).
type ChangePublisher interface {
	Publish(c changefeed.Change) int
}

func publish(p ChangePublisher, table constants.Table, typ constants.ChangeType, newRow, oldRow interface{}) {
	if p == nil {
		return
	}
	c, err := changefeed.NewChange(table, typ, newRow, oldRow)
	if err != nil {
		logging.Warn("Failed to build change event", "table", table, "error", err)
		return
	}
	p.Publish(c)
}
