package main

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vebgen/olts-sub002/proj"
	"github.com/vebgen/olts-sub002/tile"
	"github.com/vebgen/olts-sub002/tilecache"
	"github.com/vebgen/olts-sub002/tilecoord"
	"github.com/vebgen/olts-sub002/tilegrid"
)

var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tileserver_cache_hits_total",
		Help: "Tile requests answered from the cache.",
	})
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tileserver_cache_misses_total",
		Help: "Tile requests that had to load from the tileset.",
	})
	cacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tileserver_cache_evictions_total",
		Help: "Tiles evicted from the cache.",
	})
	tilesetReloads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tileserver_tileset_reloads_total",
		Help: "Times the tileset file changed on disk and the cache was dropped.",
	})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses, cacheEvictions, tilesetReloads)
}

// tileSource is what the server needs from a tileset: coordinate lookups
// adapted to the tile loader contract. mb.Reader and xyz.Reader satisfy it.
type tileSource interface {
	Loader() tile.DataLoader
}

type server struct {
	grid  *tilegrid.Grid
	cache *tilecache.Cache
	mime  string

	mu       sync.Mutex
	source   tileSource
	revision int
}

func newServer(source tileSource, grid *tilegrid.Grid, mime string, highWaterMark int) *server {
	return &server{
		grid:   grid,
		cache:  tilecache.New(highWaterMark),
		mime:   mime,
		source: source,
	}
}

func (s *server) registerRoutes(router *gin.Engine) {
	router.GET("/tiles/:z/:x/:y", s.handleTile)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tiles": s.cache.Count()})
	})
}

func (s *server) handleTile(c *gin.Context) {
	coord, err := parseCoord(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Clients may ask for columns a world away; serve the canonical tile.
	coord = s.grid.WrapX(coord, proj.WebMercator)
	if !s.grid.WithinExtentAndZ(coord) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("tile %v outside the tileset", coord)})
		return
	}

	dt, key := s.getOrCreate(coord)
	dt.Load() // no-op unless idle or errored

	if dt.State() == tile.Loading {
		<-dt.Ready()
	}

	before := s.cache.Count()
	s.cache.ExpireCache(map[string]struct{}{key: {}})
	if evicted := before - s.cache.Count(); evicted > 0 {
		cacheEvictions.Add(float64(evicted))
	}

	switch state := dt.State(); state {
	case tile.Loaded:
		c.Data(http.StatusOK, s.mime, dt.Data())
	case tile.Empty:
		c.Status(http.StatusNoContent)
	case tile.Error:
		log.Errorf("tile %s failed to load", coord)
		c.JSON(http.StatusBadGateway, gin.H{"error": "tile load failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("tile stuck in state %v", state)})
	}
}

// getOrCreate returns the cached tile for the coordinate, creating and
// caching an idle one on a miss. Loading happens outside the lock; a
// concurrent request for the same tile waits on its Ready channel.
func (s *server) getOrCreate(coord tilecoord.Coord) (*tile.DataTile, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sourceKey := strconv.Itoa(s.revision)
	key := sourceKey + "/" + coord.Key()
	if cached, ok := s.cache.Get(key); ok {
		cacheHits.Inc()
		return cached.(*tile.DataTile), key
	}

	cacheMisses.Inc()
	dt := tile.NewDataTile(coord, sourceKey, s.source.Loader())
	s.cache.Set(key, dt)
	return dt, key
}

// watchTileset drops the whole cache when the tileset file is rewritten:
// every cached tile's source key is stale from that point on.
func (s *server) watchTileset(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					s.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("tileset watch: %s", err)
			}
		}
	}()
	return nil
}

func (s *server) reload() {
	s.mu.Lock()
	s.revision++
	revision := s.revision
	s.mu.Unlock()

	s.cache.Clear()
	tilesetReloads.Inc()
	log.Infof("tileset changed on disk, cache dropped (revision %d)", revision)
}

func parseCoord(c *gin.Context) (tilecoord.Coord, error) {
	z, err := strconv.Atoi(c.Param("z"))
	if err != nil {
		return tilecoord.Coord{}, fmt.Errorf("bad z %q", c.Param("z"))
	}
	x, err := strconv.Atoi(c.Param("x"))
	if err != nil {
		return tilecoord.Coord{}, fmt.Errorf("bad x %q", c.Param("x"))
	}
	y, err := strconv.Atoi(c.Param("y"))
	if err != nil {
		return tilecoord.Coord{}, fmt.Errorf("bad y %q", c.Param("y"))
	}
	return tilecoord.New(z, x, y), nil
}
