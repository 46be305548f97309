package ids

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewBatchID generates a snowflake ID string for grouping rows written by one
// logical event. The node ID comes from SNOWFLAKE_NODE, defaulting to 1.
func NewBatchID() string {
	nodeOnce.Do(func() {
		id := int64(1)
		if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				id = n
			}
		}
		n, err := snowflake.NewNode(id)
		if err != nil {
			return
		}
		node = n
	})
	if node == nil {
		// node setup failed, fall back to KSUID so callers still get a unique id
		return NewKSUID()
	}
	return node.Generate().String()
}
