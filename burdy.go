package burdy

import (
	"time"

	"gorm.io/gorm"

	"github.com/elcodo/burdy/internal/cache"
	"github.com/elcodo/burdy/internal/compiler"
	"github.com/elcodo/burdy/internal/compress"
	"github.com/elcodo/burdy/internal/config"
	"github.com/elcodo/burdy/internal/model"
	"github.com/elcodo/burdy/internal/queue"
	"github.com/elcodo/burdy/internal/service"
	"github.com/elcodo/burdy/internal/store"
)

// Engine bundles the post tree, versioning, publishing and compilation
// services over one store.
type Engine struct {
	Store    store.Store
	Posts    *service.PostService
	Versions *service.VersionService
	Publish  *service.PublishService
	Compiler *compiler.Compiler

	events   queue.Queue
	compiled *cache.CompiledCache
}

// Options tunes an Engine. The zero value gives plain encoding, no event
// queue, no compiled cache and no content type registry.
type Options struct {
	Codec        string
	Events       queue.Queue
	Compiled     *cache.CompiledCache
	ContentTypes model.ContentTypeRegistry
	Now          func() time.Time
}

// New creates an Engine on top of the given database.
func New(db *gorm.DB, opts Options) *Engine {
	st := store.NewGormStore(db)
	codec := compress.ForName(opts.Codec)

	// keep the invalidator a plain nil interface when no cache is configured
	var invalidator service.CompiledInvalidator
	if opts.Compiled != nil {
		invalidator = opts.Compiled
	}

	return &Engine{
		Store:    st,
		Posts:    service.NewPostService(codec, st, opts.Events, invalidator, opts.ContentTypes),
		Versions: service.NewVersionService(st, opts.Events),
		Publish:  service.NewPublishService(st, opts.Events, invalidator, opts.Now),
		Compiler: compiler.NewCompiler(st, opts.Compiled, opts.Now),
		events:   opts.Events,
		compiled: opts.Compiled,
	}
}

// FromConfig wires an Engine, and its optional redis cache and kafka queue,
// from the environment configuration.
func FromConfig(cnf *config.Config) (*Engine, error) {
	db := config.GetDb(cnf)

	opts := Options{Codec: cnf.Codec}

	if cnf.RedisAddr != "" {
		redis, err := cache.NewRedis(cnf.RedisAddr)
		if err != nil {
			return nil, err
		}
		opts.Compiled = cache.NewCompiledCache(redis)
	}

	if cnf.KafkaBrokers != "" {
		events, err := queue.NewKafka(cnf.KafkaBrokers, cnf.KafkaTopic)
		if err != nil {
			return nil, err
		}
		opts.Events = events
	}

	return New(db, opts), nil
}

// Close releases the event queue producer, if any.
func (e *Engine) Close() {
	if e.events != nil {
		e.events.Close()
	}
}
