// Package configdb is a Redis-backed client for the single CONFIG_DB table
// this daemon watches, delivering SET/DEL events to an
// allowlist.TableHandler.
package configdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/newtron-network/bgp-allowlistd/pkg/util"
)

// configDBIndex is the Redis logical database SONiC reserves for CONFIG_DB.
const configDBIndex = 4

// Client watches one CONFIG_DB table and redelivers hash contents as
// synthesized SET/DEL events. Unlike a structured ConfigDB mirror, it
// treats the table as an opaque key -> hash-fields store: the allow-list
// schema is owned by pkg/allowlist, not by this client.
type Client struct {
	client *redis.Client
	table  string
}

// NewClient constructs a Client against addr (host:port), watching the
// single table named by table.
func NewClient(addr, table string) *Client {
	return &Client{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   configDBIndex,
		}),
		table: table,
	}
}

// Connect verifies Redis reachability and enables keyspace notifications
// for all event classes, which includes the hash events the daemon needs
// to observe hash mutations.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to config database: %w", err)
	}
	if err := c.client.ConfigSet(ctx, "notify-keyspace-events", "KEA").Err(); err != nil {
		util.WithField("error", err).Warn("could not enable keyspace notifications; Watch sees changes only if the server already has them enabled")
	}
	return nil
}

// Close releases the underlying Redis client.
func (c *Client) Close() error {
	return c.client.Close()
}

// GetAll reads every key currently in the watched table, via cursor-based
// SCAN rather than the blocking KEYS command.
func (c *Client) GetAll(ctx context.Context) (map[string]map[string]string, error) {
	pattern := fmt.Sprintf("%s|*", c.table)
	keys, err := scanKeys(ctx, c.client, pattern, 100)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]string, len(keys))
	for _, redisKey := range keys {
		_, entryKey, ok := strings.Cut(redisKey, "|")
		if !ok {
			continue
		}
		vals, err := c.client.HGetAll(ctx, redisKey).Result()
		if err != nil {
			continue
		}
		out[entryKey] = vals
	}
	return out, nil
}

// EventHandler receives a synthesized SET (data non-empty) or DEL (data
// nil) for one entry key within the watched table.
type EventHandler func(ctx context.Context, key string, data map[string]string, isDelete bool)

// Watch subscribes to keyspace notifications for the watched table and
// invokes handler for every observed mutation. Delivery is at-least-once:
// a duplicate notification simply re-reads the same hash and redelivers
// the same SET, which callers must treat idempotently. Watch blocks until
// ctx is cancelled.
func (c *Client) Watch(ctx context.Context, handler EventHandler) error {
	pattern := fmt.Sprintf("__keyspace@%d__:%s|*", configDBIndex, c.table)
	pubsub := c.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			c.deliver(ctx, msg, handler)
		}
	}
}

// entryKeyFromChannel extracts the bare entry key from a keyspace
// notification channel name, stripping the "__keyspace@N__:<table>|"
// prefix. Returns ok=false for a channel that doesn't belong to this
// table.
func entryKeyFromChannel(channel, table string) (redisKey, entryKey string, ok bool) {
	prefix := fmt.Sprintf("__keyspace@%d__:", configDBIndex)
	redisKey = strings.TrimPrefix(channel, prefix)
	tablePrefix, rest, cut := strings.Cut(redisKey, "|")
	if !cut || tablePrefix != table {
		return "", "", false
	}
	return redisKey, rest, true
}

func (c *Client) deliver(ctx context.Context, msg *redis.Message, handler EventHandler) {
	redisKey, entryKey, ok := entryKeyFromChannel(msg.Channel, c.table)
	if !ok {
		return
	}

	if msg.Payload == "del" || msg.Payload == "expired" {
		handler(ctx, entryKey, nil, true)
		return
	}

	vals, err := c.client.HGetAll(ctx, redisKey).Result()
	if err != nil {
		util.WithField("key", redisKey).WithField("error", err).Warn("failed to read hash after keyspace notification")
		return
	}
	if len(vals) == 0 {
		handler(ctx, entryKey, nil, true)
		return
	}
	handler(ctx, entryKey, vals, false)
}

// scanKeys iterates Redis keys matching pattern using cursor-based SCAN
// instead of the blocking O(N) KEYS command.
func scanKeys(ctx context.Context, client *redis.Client, pattern string, countHint int64) ([]string, error) {
	var cursor uint64
	var keys []string
	for {
		batch, nextCursor, err := client.Scan(ctx, cursor, pattern, countHint).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
