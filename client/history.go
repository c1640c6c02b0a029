package client

import (
	"encoding/json"
	"time"
)

// historyLimit caps the locally persisted query history.
const historyLimit = 50

// HistoryEntry is one locally recorded query.
type HistoryEntry struct {
	ConnectionID string    `json:"connection_id"`
	Query        string    `json:"query"`
	Success      bool      `json:"success"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// QueryHistory returns the recorded queries, newest first.
func (c *Client) QueryHistory() []HistoryEntry {
	raw, ok := c.store.Get(KeyQueryHistory)
	if !ok {
		return nil
	}
	var entries []HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}

func (c *Client) ClearQueryHistory() {
	c.store.Delete(KeyQueryHistory)
}

func (c *Client) recordHistory(connectionID, query string, success bool) {
	entries := c.QueryHistory()
	entries = append([]HistoryEntry{{
		ConnectionID: connectionID,
		Query:        query,
		Success:      success,
		ExecutedAt:   time.Now(),
	}}, entries...)
	if len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}
	if raw, err := json.Marshal(entries); err == nil {
		c.store.Set(KeyQueryHistory, string(raw))
	}
}
