package config

import (
	"time"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/layout"
	"github.com/matzehuels/nnviz/pkg/presets"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
	"github.com/matzehuels/nnviz/pkg/session"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendNone   = "none"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// CacheBackends and SessionBackends list the accepted backend names.
var (
	CacheBackends   = []string{BackendFile, BackendNone, BackendRedis, BackendMongo}
	SessionBackends = []string{BackendMemory, BackendFile, BackendRedis}
)

// Defaults returns the built-in values keyed by dotted path.
func Defaults() map[string]any {
	return map[string]any{
		"canvas.width":  layout.DefaultFrame.Width,
		"canvas.height": layout.DefaultFrame.Height,
		"canvas.pad_x":  layout.DefaultFrame.PadX,
		"canvas.pad_y":  layout.DefaultFrame.PadY,

		"node.width":  diagram.DefaultStyle.NodeWidth,
		"node.height": diagram.DefaultStyle.NodeHeight,
		"node.radius": diagram.DefaultStyle.Radius,

		"pulse.stagger":  animate.DefaultTiming.Stagger,
		"pulse.duration": animate.DefaultTiming.Duration,

		"preset": presets.Default,

		"cache.backend": BackendFile,
		"cache.dir":     "",
		"cache.ttl":     time.Duration(0),
		"cache.prefix":  "",

		"redis.addr":     "localhost:6379",
		"redis.password": "",
		"redis.db":       0,

		"mongo.uri":        "mongodb://localhost:27017",
		"mongo.database":   "nnviz",
		"mongo.collection": "artifacts",

		"server.addr":             "127.0.0.1:8080",
		"server.session_ttl":      session.DefaultTTL,
		"server.shutdown_timeout": 10 * time.Second,

		"session.backend": BackendMemory,
		"session.dir":     "",
	}
}

// Template is a commented config file with the default values.
const Template = `# nnviz configuration
# Environment variables override this file: NNVIZ_CANVAS__WIDTH=1600

canvas:
  width: 1200        # logical canvas width
  height: 675        # logical canvas height
  pad_x: 80          # left/right padding
  pad_y: 70          # top/bottom padding

node:
  width: 160
  height: 54
  radius: 10

pulse:
  stagger: 80ms      # delay between connectors
  duration: 600ms    # highlight time per connector

preset: roadvision   # preset selected by a new session

cache:
  backend: file      # file | none | redis | mongo
  dir: ""            # default: $XDG_CACHE_HOME/nnviz
  ttl: 0s            # 0 keeps the built-in TTLs
  prefix: ""         # key prefix on shared backends

redis:
  addr: localhost:6379
  password: ""
  db: 0

mongo:
  uri: mongodb://localhost:27017
  database: nnviz
  collection: artifacts

server:
  addr: 127.0.0.1:8080
  session_ttl: 24h
  shutdown_timeout: 10s

session:
  backend: memory    # memory | file | redis
  dir: ""            # default: ~/.config/nnviz/sessions
`
