package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"board-relay/api"
	"board-relay/relay"
	"board-relay/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	allowedOrigins := []string{"*"}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		allowedOrigins = allowedOrigins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}

	var snapshots *storage.Snapshots
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		redisOpts, err := redis.ParseURL(redisConn)
		if err != nil {
			parts := strings.Split(redisConn, ",")
			redisOpts = &redis.Options{Addr: parts[0]}
			for _, p := range parts[1:] {
				kv := strings.SplitN(p, "=", 2)
				if len(kv) != 2 {
					continue
				}
				switch strings.ToLower(kv[0]) {
				case "password":
					redisOpts.Password = kv[1]
				case "ssl":
					if strings.ToLower(kv[1]) == "true" {
						redisOpts.TLSConfig = &tls.Config{}
					}
				}
			}
		}
		channel := os.Getenv("TASK_UPDATES_CHANNEL")
		if channel == "" {
			channel = "task-updates"
		}
		snapshots = storage.NewSnapshots(redis.NewClient(redisOpts), channel)
		log.Info("redis snapshots enabled")
	}

	var mirror *storage.Tables
	if connStr := os.Getenv("STORAGE_CONNECTION_STRING"); connStr != "" {
		tasksTableName := os.Getenv("TASKS_TABLE")
		if tasksTableName == "" {
			log.Fatal("missing TASKS_TABLE")
		}
		var err error
		mirror, err = storage.New(connStr, tasksTableName)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		log.Info("table mirror enabled")
	}

	var auth api.Authenticator
	if os.Getenv("AUTH0_TEST_MODE") == "1" {
		auth = api.NewAuth(nil, "", "")
	} else if domain := os.Getenv("AUTH0_DOMAIN"); domain != "" {
		jwtAudience := os.Getenv("AUTH0_AUDIENCE")
		if jwtAudience == "" {
			log.Fatal("missing AUTH0_AUDIENCE")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = api.NewAuth(jwks, jwtAudience, "https://"+domain+"/")
	}

	var snapshotHook relay.SnapshotStore
	var snapshotReader api.SnapshotReader
	if snapshots != nil {
		snapshotHook = snapshots
		snapshotReader = snapshots
	}
	var mirrorHook relay.TaskMirror
	if mirror != nil {
		mirrorHook = mirror
	}
	rl := relay.New(logger, snapshotHook, mirrorHook)

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, rl, auth, snapshotReader, allowedOrigins, logger)

	listenAddr := ":5000"
	if val, ok := os.LookupEnv("RELAY_PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
