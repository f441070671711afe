package compiler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader/v7"
	"golang.org/x/sync/errgroup"

	"github.com/elcodo/burdy/internal/cache"
	"github.com/elcodo/burdy/internal/mapper"
	"github.com/elcodo/burdy/internal/model"
	"github.com/elcodo/burdy/internal/store"
)

// maxCompileDepth bounds nested content-reference compilation. Cycles and
// over-deep chains degrade to unresolved markers past this depth instead of
// looping; this is a budget, not cycle detection.
const maxCompileDepth = 3

var (
	// ErrInvalidPost is returned when the compile target cannot be identified
	// or does not resolve to a visible post.
	ErrInvalidPost = errors.New("invalid post")

	errAssetNotFound = errors.New("asset not found")
)

// NewCompiler creates a Compiler. The compiled cache may be nil; a nil clock
// means wall clock time.
func NewCompiler(store store.Store, compiled *cache.CompiledCache, now func() time.Time) *Compiler {
	if now == nil {
		now = time.Now
	}

	c := &Compiler{
		store:    store,
		compiled: compiled,
		now:      now,
	}
	c.assets = dataloader.NewBatchedLoader(
		c.loadAssets,
		dataloader.WithCache[string, *model.Asset](&dataloader.NoCache[string, *model.Asset]{}),
	)

	return c
}

// Compiler turns a post's stored content into a servable document by
// inlining referenced posts and assets.
type Compiler struct {
	store    store.Store
	compiled *cache.CompiledCache
	assets   *dataloader.Loader[string, *model.Asset]
	now      func() time.Time
}

// CompileRequest identifies the compile target. Exactly one of Post, ID or
// SlugPath should be set; Post compiles already-loaded data without a
// visibility check.
type CompileRequest struct {
	Post     *model.Post
	ID       string
	SlugPath string
	// AllowNull returns a nil result instead of an error when the target does
	// not resolve.
	AllowNull bool
}

// Compile resolves the target post, substitutes its content references and
// returns the public representation with the compiled content embedded.
func (c *Compiler) Compile(ctx context.Context, request CompileRequest) (*mapper.PublicPost, error) {
	if request.Post == nil && request.ID == "" && request.SlugPath == "" {
		return nil, ErrInvalidPost
	}

	if request.Post == nil && request.SlugPath != "" && c.compiled != nil {
		if cached, ok := c.compiled.Get(ctx, strings.TrimPrefix(request.SlugPath, "/")); ok {
			return cached, nil
		}
	}

	compiled, err := c.compile(ctx, request, 0)
	if err != nil || compiled == nil {
		return compiled, err
	}

	if request.Post == nil && request.SlugPath != "" && c.compiled != nil {
		c.compiled.Set(ctx, compiled.SlugPath, compiled)
	}

	return compiled, nil
}

// debt is the recursion depth already spent on content references.
func (c *Compiler) compile(ctx context.Context, request CompileRequest, debt int) (*mapper.PublicPost, error) {
	post, err := c.resolve(ctx, request)
	if err != nil || post == nil {
		return nil, err
	}

	content, err := DecodeContent(post)
	if err != nil {
		return nil, err
	}

	postRefs, assetRefs := collectRefs(content)

	public, err := mapper.PublicPostFromModel(post)
	if err != nil {
		return nil, err
	}

	if len(postRefs) > 0 && debt < maxCompileDepth {
		c.substitutePosts(ctx, postRefs, debt)
	}
	if len(assetRefs) > 0 {
		c.substituteAssets(ctx, assetRefs)
	}

	public.Content = content

	return public, nil
}

func (c *Compiler) resolve(ctx context.Context, request CompileRequest) (*model.Post, error) {
	if request.Post != nil {
		return request.Post, nil
	}

	miss := func() (*model.Post, error) {
		if request.AllowNull {
			return nil, nil
		}
		return nil, ErrInvalidPost
	}

	var post *model.Post
	if request.ID != "" {
		id, err := uuid.Parse(request.ID)
		if err != nil {
			return miss()
		}
		post, err = c.store.GetPost(ctx, id)
		if err != nil {
			return miss()
		}
	} else {
		var err error
		post, err = c.store.GetPostBySlugPath(ctx, strings.TrimPrefix(request.SlugPath, "/"))
		if err != nil {
			return miss()
		}
	}

	// looked-up posts must be live and inside their publish window
	if post.IsVersion() || !post.VisibleAt(c.now()) {
		return miss()
	}

	return post, nil
}

// substitutePosts compiles every distinct referenced post concurrently, one
// sub-compile per id no matter how many paths point at it, and fills the
// results in at each reference site. Broken or invisible targets leave the
// marker untouched.
func (c *Compiler) substitutePosts(ctx context.Context, sites []*refSite, debt int) {
	distinct := mapset.NewSet[string]()
	for _, site := range sites {
		distinct.Add(site.id)
	}

	var mu sync.Mutex
	subs := make(map[string]*mapper.PublicPost, distinct.Cardinality())

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range distinct.ToSlice() {
		id := id
		g.Go(func() error {
			sub, err := c.compile(gctx, CompileRequest{ID: id, AllowNull: true}, debt+1)
			if err != nil || sub == nil {
				return nil
			}
			mu.Lock()
			subs[id] = sub
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, site := range sites {
		if sub, ok := subs[site.id]; ok && site.set != nil {
			site.set(sub)
		}
	}
}

// substituteAssets batch-loads the distinct referenced assets and merges
// each asset's public fields into the marker node, keeping partial data the
// node already carried. Assets are leaf lookups; no recursion budget applies.
func (c *Compiler) substituteAssets(ctx context.Context, sites []*refSite) {
	distinct := mapset.NewSet[string]()
	for _, site := range sites {
		distinct.Add(site.id)
	}

	thunks := make(map[string]dataloader.Thunk[*model.Asset], distinct.Cardinality())
	for _, id := range distinct.ToSlice() {
		thunks[id] = c.assets.Load(ctx, id)
	}

	loaded := make(map[string]*mapper.PublicAsset, len(thunks))
	for id, thunk := range thunks {
		asset, err := thunk()
		if err != nil || asset == nil {
			continue
		}
		loaded[id] = mapper.PublicAssetFromModel(asset)
	}

	for _, site := range sites {
		asset, ok := loaded[site.id]
		if !ok || site.set == nil {
			continue
		}

		merged := asset.Fields()
		for key, value := range site.node {
			if key == assetRefKey {
				continue
			}
			if _, taken := merged[key]; !taken {
				merged[key] = value
			}
		}
		site.set(merged)
	}
}

func (c *Compiler) loadAssets(ctx context.Context, ids []string) []*dataloader.Result[*model.Asset] {
	results := make([]*dataloader.Result[*model.Asset], len(ids))

	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(id); err == nil {
			parsed = append(parsed, u)
		}
	}

	assets, err := c.store.ListAssetsFromIDs(ctx, parsed)
	if err != nil {
		for i := range ids {
			results[i] = &dataloader.Result[*model.Asset]{Error: err}
		}
		return results
	}

	byID := make(map[string]*model.Asset, len(assets))
	for _, asset := range assets {
		byID[asset.ID] = asset
	}
	for i, id := range ids {
		if asset, ok := byID[id]; ok {
			results[i] = &dataloader.Result[*model.Asset]{Data: asset}
		} else {
			results[i] = &dataloader.Result[*model.Asset]{Error: errAssetNotFound}
		}
	}

	return results
}
