package global

import (
	"context"
	"os"

	"DriveSync/logger"
	mgoSrv "DriveSync/service/mgo"
	redis "DriveSync/service/storage/redis"
	ids "DriveSync/tools/ids"
	jwtlib "DriveSync/tools/security"
)

func ConfigAll() {
	ConfigIds()
	ConfigRedis()
	ConfigMgo()
}

func ConfigIds() {
	ids.SetNodeID(100)
}

func GetJwtSecret() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o=")
}

func JWTOptions() jwtlib.Options {
	return jwtlib.DefaultOptions(GetJwtSecret())
}

func ConfigRedis() {
	cfg := redis.Config{
		Addr: envOr("REDIS_ADDR", "127.0.0.1:6379"),
		DB:   0,
	}
	if err := redis.InitRedis(cfg); err != nil {
		// last-seen lookups degrade to "never seen"; the gateway still runs
		logger.Warnf("[config] redis unavailable: %v", err)
	}
}

func ConfigMgo() {
	cfg := &mgoSrv.Config{
		Uri:         envOr("MONGO_URI", "mongodb://localhost:27017"),
		Database:    envOr("MONGO_DB", "drivesync"),
		MaxPoolSize: 20,
	}
	mgoSrv.StartAsync(context.Background(), cfg)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
