package global

import (
	"os"
	"strconv"
	"time"

	"hardwire/logger"
	"hardwire/tools/ids"
)

// AppConfig holds everything the relay node needs. Values come from the
// environment with local-dev defaults, same knobs the deploy charts set.
type AppConfig struct {
	NodeId      string
	Addr        string // HTTP+WS listen address
	DatabaseURL string

	// Redis presence mirror; empty addr disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PresenceTTL   time.Duration

	// Web push (VAPID)
	VapidPublicKey  string
	VapidPrivateKey string
	VapidEmail      string
}

var Config = AppConfig{
	NodeId:      "relay_1",
	Addr:        ":8080",
	PresenceTTL: 2 * time.Minute,
}

// ConfigAll loads env overrides and initializes id generation. Call once
// from main before anything touches Config.
func ConfigAll() {
	if v := os.Getenv("RELAY_NODE_ID"); v != "" {
		Config.NodeId = v
	}
	if v := os.Getenv("RELAY_ADDR"); v != "" {
		Config.Addr = v
	}
	Config.DatabaseURL = os.Getenv("DATABASE_URL")
	Config.RedisAddr = os.Getenv("REDIS_ADDR")
	Config.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			Config.RedisDB = n
		}
	}
	Config.VapidPublicKey = os.Getenv("VAPID_PUBLIC_KEY")
	Config.VapidPrivateKey = os.Getenv("VAPID_PRIVATE_KEY")
	Config.VapidEmail = os.Getenv("VAPID_EMAIL")

	ConfigIds()
}

func ConfigIds() {
	logger.Infof("[Config] id generator node=100")
	ids.SetNodeID(100)
}
