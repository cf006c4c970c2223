package db

import (
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"xorm.io/xorm"
	"xorm.io/xorm/log"
	"xorm.io/xorm/names"
)

// tables stored by a Connection.
var tables = []interface{}{new(Job), new(Session)}

// Connection to the job and session store.
type Connection struct {
	engine *xorm.Engine
}

// Close the database.
func (conn *Connection) Close() error {
	return conn.engine.Close()
}

// New opens the sqlite job and session store at path, creating the file and
// its tables if needed.  Times are stored in UTC so that a store moved
// between hosts keeps its session expiry.
func New(path string) (*Connection, error) {
	engine, err := xorm.NewEngine("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	engine.Logger().SetLevel(log.LOG_WARNING)
	engine.SetMapper(names.GonicMapper{})
	engine.DatabaseTZ = time.UTC

	if err := engine.Sync2(tables...); err != nil {
		engine.Close()
		return nil, fmt.Errorf("sync store %s: %w", path, err)
	}
	return &Connection{engine}, nil
}
