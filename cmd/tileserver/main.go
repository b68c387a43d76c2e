// Command tileserver serves a local tileset over HTTP through an LRU
// tile cache, so a misbehaving client cannot force a disk read per
// request. Supports MBTiles files and {z}/{x}/{y} directory trees.
package main

import (
	"flag"
	"fmt"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/vebgen/olts-sub002/mb"
	"github.com/vebgen/olts-sub002/proj"
	"github.com/vebgen/olts-sub002/tilegrid"
	"github.com/vebgen/olts-sub002/xyz"
)

var (
	hf bool
	cf string
)

func init() {
	flag.BoolVar(&hf, "h", false, "this help")
	flag.StringVar(&cf, "c", "conf.toml", "set config `file`")
	flag.Usage = usage

	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	log.SetLevel(log.InfoLevel)
}

func usage() {
	fmt.Fprintf(os.Stderr, `tileserver
Usage: tileserver [-h] [-c filename]
`)
	flag.PrintDefaults()
}

func initConf(cfgFile string) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		log.Warnf("config file(%s) not exist", cfgFile)
	}
	viper.SetConfigType("toml")
	viper.SetConfigFile(cfgFile)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		log.Warnf("read config file(%s) error, details: %s", viper.ConfigFileUsed(), err)
	}
	viper.SetDefault("server.addr", ":8000")
	viper.SetDefault("tileset.format", "mbtiles")
	viper.SetDefault("tileset.path", "tiles.mbtiles")
	viper.SetDefault("tileset.tilesize", 256)
	viper.SetDefault("tileset.minzoom", 0)
	viper.SetDefault("tileset.maxzoom", 18)
	viper.SetDefault("tileset.ext", "png")
	viper.SetDefault("cache.highwatermark", 2048)
}

// openSource opens the configured tileset and derives its tile grid.
func openSource() (tileSource, *tilegrid.Grid, string, error) {
	path := viper.GetString("tileset.path")
	tileSize := viper.GetFloat64("tileset.tilesize")

	switch format := viper.GetString("tileset.format"); format {
	case "mbtiles":
		reader, err := mb.NewReader(path)
		if err != nil {
			return nil, nil, "", err
		}
		raw, err := reader.ReadMetadata()
		if err != nil {
			reader.Close()
			return nil, nil, "", err
		}
		meta, err := mb.ParseMetadata(raw)
		if err != nil {
			reader.Close()
			return nil, nil, "", err
		}
		grid, err := meta.Grid(tileSize)
		if err != nil {
			reader.Close()
			return nil, nil, "", err
		}
		return reader, grid, contentType(meta.Format), nil

	case "xyz":
		reader, err := xyz.NewReader(path)
		if err != nil {
			return nil, nil, "", err
		}
		grid := tilegrid.ForProjection(proj.WebMercator, viper.GetInt("tileset.maxzoom"), tileSize)
		return reader, grid, contentType(viper.GetString("tileset.ext")), nil

	default:
		return nil, nil, "", fmt.Errorf("unknown tileset format %q", format)
	}
}

func contentType(format string) string {
	switch format {
	case "pbf", "mvt":
		return "application/x-protobuf"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

func main() {
	flag.Parse()
	if hf {
		flag.Usage()
		return
	}
	if cf == "" {
		cf = "conf.toml"
	}
	initConf(cf)

	source, grid, mime, err := openSource()
	if err != nil {
		log.Fatalf("open tileset: %s", err)
	}

	srv := newServer(source, grid, mime, viper.GetInt("cache.highwatermark"))
	if viper.GetString("tileset.format") == "mbtiles" {
		if err := srv.watchTileset(viper.GetString("tileset.path")); err != nil {
			log.Warnf("tileset watch disabled: %s", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	srv.registerRoutes(router)

	addr := viper.GetString("server.addr")
	log.Infof("serving %s on %s", viper.GetString("tileset.path"), addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %s", err)
	}
}
