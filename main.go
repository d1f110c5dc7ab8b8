// Sticker print terminal engine
// Compiles label templates to printer command streams and dispatches them
// to network, mDNS or serial printers, with a shared serial-number ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frstier/Marijany-Sticker-Print-sub001/config"
	"github.com/frstier/Marijany-Sticker-Print-sub001/engine"
	"github.com/frstier/Marijany-Sticker-Print-sub001/logger"
)

// Version information (set at build time via -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to engine.toml (default: platform search paths)")
	logLevel := flag.String("log-level", "", "override log level (ERROR, WARN, INFO, DEBUG, TRACE)")
	writeConfig := flag.Bool("write-config", false, "write the default config file and exit")
	discover := flag.Bool("discover", false, "scan for printers, list them and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sticker-print %s (%s, built %s)\n", Version, GitCommit, BuildTime)
		return
	}

	if *writeConfig {
		path := *configPath
		if path == "" {
			path = config.SearchPaths("engine.toml")[0]
		}
		if err := config.WriteDefault(path); err != nil {
			fmt.Fprintf(os.Stderr, "writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("wrote", path)
		return
	}

	cfg := config.Default()
	path := *configPath
	if path == "" {
		if found, _, err := config.FindConfigFile("engine.toml"); err == nil {
			path = found
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading config %s: %v\n", path, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logDir := ""
	if dataDir, err := config.DataDirectory(); err == nil {
		logDir = dataDir
	}
	log := logger.New(logger.LevelFromString(cfg.Logging.Level), logDir, 500)
	defer log.Close()

	eng, err := engine.New(cfg, log, "")
	if err != nil {
		log.Error("engine startup failed", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	if *discover {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		devices, err := eng.Directory.DiscoverAll(ctx)
		if err != nil {
			log.Error("discovery failed", "error", err)
			os.Exit(1)
		}
		for _, dev := range devices {
			fmt.Printf("%-40s %-8s %s\n", dev.UID, dev.Connection, dev.Name)
		}
		return
	}

	log.Info("engine started", "version", Version, "db", cfg.Database.Path)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("engine stopping")
}
