package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type ContextKey string

const (
	SessionKey ContextKey = "console_session"
)

// RecordID is a server-assigned identifier. The upstream API is not consistent about
// emitting ids as strings or numbers, so both are accepted.
type RecordID string

func (id RecordID) String() string { return string(id) }

func (id RecordID) IsZero() bool { return id == "" }

func (id *RecordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

// Int returns the numeric form of the id, if it has one.
func (id RecordID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

// Envelope is the upstream response wrapper: {data: ...} on success, {message: ...} on error.
type Envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// Page is a server-paginated listing.
type Page struct {
	Data  []map[string]any `json:"data"`
	Total int64            `json:"total"`
}

type Log struct {
	Message      string    `bson:"message" json:"message"`
	Level        string    `bson:"level" json:"level"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	SessionID    string    `bson:"session_id,omitempty" json:"session_id,omitempty"`
	Username     string    `bson:"username,omitempty" json:"username,omitempty"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	AppId        string    `bson:"app_id" json:"app_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
