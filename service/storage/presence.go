package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	errs "hardwire/tools/errs"

	"github.com/redis/go-redis/v9"
)

// Presence is a best-effort online mirror in Redis, diagnostic only. The
// relay's in-memory registry stays the single routing source; these keys
// exist so operators and sibling services can see who is connected, and
// they self-expire so a crashed node leaves no ghosts.
type Presence struct {
	rdb    *redis.Client
	nodeID string
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func presenceKey(user string) string { return "hw:presence:" + user }

// owner values are "<connID>@<node>" so the Lua guard can compare the
// whole thing while Lookup still reports the node on its own.
func ownerValue(connID, nodeID string) string { return connID + "@" + nodeID }

func splitOwner(val string) (connID, node string) {
	if i := strings.LastIndexByte(val, '@'); i >= 0 {
		return val[:i], val[i+1:]
	}
	return val, ""
}

// Delete only when this connection still owns the key, so a stale close
// cannot evict a newer connection's presence.
const luaOfflineIfOwner = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

func NewPresence(c RedisConfig, nodeID string, ttl time.Duration) (*Presence, error) {
	rdb := redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errs.WrapMsg(err, "ping redis", "addr", c.Addr)
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Presence{rdb: rdb, nodeID: nodeID, ttl: ttl}, nil
}

// Online marks the user online, owned by connID, and renews the TTL.
func (p *Presence) Online(ctx context.Context, userID, connID string) error {
	return p.rdb.Set(ctx, presenceKey(userID), ownerValue(connID, p.nodeID), p.ttl).Err()
}

// Offline clears the mark if connID still owns it.
func (p *Presence) Offline(ctx context.Context, userID, connID string) error {
	return p.rdb.Eval(ctx, luaOfflineIfOwner, []string{presenceKey(userID)}, ownerValue(connID, p.nodeID)).Err()
}

// Lookup reports whether the user currently holds a presence key, and on
// which node.
func (p *Presence) Lookup(ctx context.Context, userID string) (node string, online bool, err error) {
	val, err := p.rdb.Get(ctx, presenceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	_, node = splitOwner(val)
	return node, true, nil
}

func (p *Presence) Close() error {
	return p.rdb.Close()
}
