package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gcbaptista/go-anagram-search/client"
	"github.com/gcbaptista/go-anagram-search/config"
	"github.com/gcbaptista/go-anagram-search/internal/logger"
)

// Each stdin line replaces the whole input, as if the user had retyped the
// search box. Lines arriving faster than the debounce period are coalesced.
func main() {
	var (
		configPath = flag.String("config", "", "Path to a TOML or YAML config file")
		serverURL  = flag.String("server", "", "Base URL of the anagram server (overrides config)")
		debounce   = flag.Duration("debounce", 0, "Quiet period before a query is sent (overrides config)")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	)
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}
	if *serverURL != "" {
		settings.Client.ServerURL = *serverURL
	}
	if *debounce > 0 {
		settings.Client.Debounce = *debounce
	}
	if *logLevel != "" {
		settings.Log.Level = *logLevel
	}
	logger.Setup(settings.Log.Level, settings.Log.Format)

	controller := client.NewController(
		client.NewHTTPSearcher(settings.Client.ServerURL, settings.Client.RequestTimeout),
		client.Options{Debounce: settings.Client.Debounce},
	)
	defer controller.Close()

	var printed atomic.Uint64
	changed := make(chan struct{}, 1)
	controller.OnChange(func(v client.View) {
		if v.State == client.Settled {
			printView(v)
			printed.Store(v.Generation)
		}
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		controller.Type(strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		log.Error("Failed to read input", "err", err)
	}

	// Wait for the last query before exiting.
	deadline := time.After(settings.Client.Debounce + settings.Client.RequestTimeout + time.Second)
	for {
		v := controller.State()
		if v.State == client.Idle || (v.State == client.Settled && printed.Load() == v.Generation) {
			return
		}
		select {
		case <-changed:
		case <-deadline:
			log.Warn("Gave up waiting for the last search", "query", v.RawQuery)
			return
		}
	}
}

func printView(v client.View) {
	if v.Err != nil {
		fmt.Printf("%s: search failed: %v\n", v.RawQuery, v.Err)
		return
	}
	if len(v.Results) == 0 {
		fmt.Printf("%s: no anagrams\n", v.RawQuery)
		return
	}
	fmt.Printf("%s: %s\n", v.RawQuery, strings.Join(v.Results, ", "))
}
