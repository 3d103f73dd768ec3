package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/always-cache/rangeserve"
	"github.com/always-cache/rangeserve/rfc9110"
	"github.com/always-cache/rangeserve/source"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	configFilenameFlag string
	portFlag           int
	rootFlag           string
	dbFilenameFlag     string
	prefixFlag         string
	multiRangeFlag     string
	importFlag         string
	listFlag           bool
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Config file (overrides root, db, prefix and multi-range)")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&rootFlag, "root", "", "Directory to serve")
	flag.StringVar(&dbFilenameFlag, "db", "", "Blob DB file name to serve (use 'memory' for in-memory db)")
	flag.StringVar(&prefixFlag, "prefix", "/", "Path prefix to serve below")
	flag.StringVar(&multiRangeFlag, "multi-range", "ignore", "Requests for several ranges: 'ignore' or 'first'")
	flag.StringVar(&importFlag, "import", "", "Import this directory into the blob DB and exit")
	flag.BoolVar(&listFlag, "list", false, "List the ids in the blob DB and exit")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	if importFlag != "" || listFlag {
		if err := manageDB(); err != nil {
			log.Fatal().Err(err).Msg("Blob DB command failed")
		}
		return
	}

	config, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	policy, ok := rfc9110.ParseMultiRangePolicy(config.MultipleRanges)
	if !ok {
		log.Fatal().Str("multipleRanges", config.MultipleRanges).Msg("Unknown multi-range policy")
	}

	mounts := make([]rangeserve.Mount, 0, len(config.Mounts))
	for _, m := range config.Mounts {
		src, err := openSource(m, config.Breaker)
		if err != nil {
			log.Fatal().Err(err).Str("prefix", m.Prefix).Msg("Cannot open source")
		}
		logger := log.Logger.With().Str("prefix", m.Prefix).Logger()
		server, err := rangeserve.New(rangeserve.Config{
			Source:         src,
			Logger:         &logger,
			MultipleRanges: policy,
			MaxStreams:     config.MaxStreams,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot create server")
		}
		defer server.Close()
		mounts = append(mounts, rangeserve.Mount{Prefix: m.Prefix, Handler: server})
		log.Info().Str("prefix", m.Prefix).Str("dir", m.Dir).Str("db", m.DB).Msg("Mounted source")
	}

	log.Info().Msgf("Serving on port %d (multi-range policy '%s')", config.Port, policy)
	err = http.ListenAndServe(fmt.Sprintf(":%d", config.Port), rangeserve.NewRouter(log.Logger, mounts...))

	if err != nil {
		panic(err)
	}
}

// loadConfig reads the config file, or builds a single mount config from flags.
func loadConfig() (Config, error) {
	if configFilenameFlag != "" {
		config, err := getConfig(configFilenameFlag)
		if config.Port == 0 {
			config.Port = portFlag
		}
		return config, err
	}
	config := Config{
		Port:           portFlag,
		MultipleRanges: multiRangeFlag,
		Mounts: []ConfigMount{{
			Prefix: prefixFlag,
			Dir:    rootFlag,
			DB:     dbFilename(),
		}},
	}
	return config, config.validate()
}

func dbFilename() string {
	// set up sqlite memory provider
	if dbFilenameFlag == "memory" {
		return "file::memory:?cache=shared"
	}
	return dbFilenameFlag
}

func openSource(m ConfigMount, breaker *ConfigBreaker) (source.Source, error) {
	var src source.Source
	if m.Dir != "" {
		dir := source.NewDir(m.Dir)
		if m.Index != nil {
			dir.IndexFile = *m.Index
		}
		dir.AllowDotfiles = m.Dotfiles
		src = dir
	} else {
		store, err := source.NewSQLiteSource(m.DB)
		if err != nil {
			return nil, err
		}
		src = store
	}
	if breaker != nil {
		src = source.NewBreaker(m.Prefix, src, source.BreakerSettings{
			MaxRequests:         breaker.MaxRequests,
			Interval:            breaker.Interval,
			Timeout:             breaker.Timeout,
			ConsecutiveFailures: breaker.ConsecutiveFailures,
		}, log.Logger)
	}
	return src, nil
}

// manageDB runs the -import and -list commands on the blob DB.
func manageDB() error {
	if dbFilenameFlag == "" {
		return fmt.Errorf("no blob DB given, use -db")
	}
	store, err := source.NewSQLiteSource(dbFilename())
	if err != nil {
		return err
	}
	defer store.Close()

	if importFlag != "" {
		count, err := source.Import(context.Background(), store, source.NewDir(importFlag))
		if err != nil {
			return err
		}
		log.Info().Int("files", count).Str("dir", importFlag).Str("db", dbFilenameFlag).Msg("Imported")
	}
	if listFlag {
		return store.Keys("", func(id string) {
			fmt.Println(id)
		})
	}
	return nil
}
