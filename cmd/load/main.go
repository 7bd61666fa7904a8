package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/anrid/combinerbench/pkg/loader"
	"github.com/anrid/combinerbench/pkg/report"
	"github.com/anrid/combinerbench/pkg/search/es"
	"github.com/anrid/combinerbench/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var (
	esAddrs     = pflag.StringSlice("es", []string{"http://localhost:9200"}, "Elasticsearch addresses")
	indexName   = pflag.String("index", "combiner-results", "Search engine index name")
	createIndex = pflag.Bool("create-index", false, "Drop and recreate a new index")
	mappings    = pflag.String("mappings", "", "Index mappings (path to JSON file, default: built-in mappings)")
	maxBulk     = pflag.Int("max-bulk", 500, "Max number of docs to index in bulk")
	queryJSON   = pflag.String("query", "", "Query to run once loading is done (path to JSON file)")
	logLevel    = pflag.String("log-level", "info", "Log level")
	verbose     = pflag.BoolP("verbose", "v", false, "Verbose output")
)

func main() {
	pflag.Parse()

	if err := util.SetupLogging(os.Stderr, *logLevel); err != nil {
		pflag.Usage()
		log.Fatal().Err(err).Msg("incorrect --log-level arg")
	}

	files := pflag.Args()
	if len(files) == 0 && *queryJSON == "" {
		pflag.Usage()
		log.Fatal().Msg("missing JSON export files to load")
	}

	s, err := es.New(*esAddrs, *verbose)
	if err != nil {
		log.Fatal().Err(err).Strs("addrs", *esAddrs).Msg("could not connect to ES")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *createIndex {
		if err := s.CreateIndex(ctx, *mappings, *indexName); err != nil {
			log.Fatal().Err(err).Str("index", *indexName).Msg("could not create index")
		}
	}

	l := loader.New(*indexName, *maxBulk, s)

	for _, f := range files {
		fmt.Printf("Reading file: %s\n", f)

		e, err := report.ReadExportFile(f)
		if err != nil {
			log.Fatal().Err(err).Str("code", domain.Classify(err)).Msg("could not read export")
		}
		if err := l.AddExport(ctx, e); err != nil {
			log.Fatal().Err(err).Msg("bulk indexing failed")
		}
	}

	if err := l.Flush(ctx); err != nil {
		log.Fatal().Err(err).Msg("bulk indexing failed")
	}

	if l.Total() > 0 {
		fmt.Printf("Loaded %d docs into %s (run %s)\n", l.Total(), *indexName, l.RunID())
		s.PrintBulkIndexingRate()
	}

	if *queryJSON != "" {
		query, err := es.ReadJSONFile(*queryJSON)
		if err != nil {
			log.Fatal().Err(err).Msg("could not read query")
		}
		fmt.Printf("Query payload:\n%s\n", strings.TrimSpace(string(query)))

		hits, err := s.Search(ctx, query, *indexName, true)
		if err != nil {
			log.Fatal().Err(err).Msg("search failed")
		}
		util.Dump(os.Stdout, hits)
	}
}
