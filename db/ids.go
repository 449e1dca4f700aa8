package db

import (
	"strconv"
	"sync"
	"time"
)

var (
	idMu   sync.Mutex
	lastId int64
)

// NewId returns a time-based object id in milliseconds. Ids are strictly
// increasing within the process, so they also sort by creation time.
func NewId() string {
	idMu.Lock()
	defer idMu.Unlock()

	id := time.Now().UnixMilli()
	if id <= lastId {
		id = lastId + 1
	}
	lastId = id

	return strconv.FormatInt(id, 10)
}
