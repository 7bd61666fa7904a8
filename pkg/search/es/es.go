package es

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	truee = true
)

// DefaultMappings is used when CreateIndex gets no mappings file.
const DefaultMappings = `{
  "mappings": {
    "properties": {
      "id":     {"type": "keyword"},
      "run_id": {"type": "keyword"},
      "kind":   {"type": "keyword"},
      "validation": {
        "properties": {
          "file":        {"type": "keyword"},
          "skew_level":  {"type": "keyword"},
          "combiner_effect": {"type": "keyword"},
          "top_tokens":  {"type": "object", "enabled": false}
        }
      },
      "experiment": {
        "properties": {
          "experiment": {"type": "keyword"},
          "dataset":    {"type": "keyword"},
          "combiner":   {"type": "keyword"}
        }
      }
    }
  }
}`

type ES struct {
	es *elasticsearch.Client

	bulkIndexDocs       int64
	bulkIndexSecs       float64
	bulkIndexLatestRate float64
	verboseOutput       bool
}

var _ domain.Indexer = (*ES)(nil)

func New(addrs []string, verboseOutput bool) (*ES, error) {
	var err error

	s := &ES{
		verboseOutput: verboseOutput,
	}

	config := elasticsearch.Config{
		Transport: newRoundTripper(verboseOutput),
	}
	config.Addresses = append(config.Addresses, addrs...)

	s.es, err = elasticsearch.NewClient(config)
	if err != nil {
		return nil, errors.Wrap(err, "error creating the client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Perform ping to ensure that ES can be reached.
	for retries := 10; retries > 0; retries-- {
		res, err := s.es.Ping(
			s.es.Ping.WithContext(ctx),
			s.es.Ping.WithErrorTrace(),
		)
		if err == nil && !res.IsError() {
			res.Body.Close()
			log.Info().Strs("addrs", addrs).Msg("pinged ES successfully")
			return s, nil
		}

		if err != nil {
			log.Warn().Err(err).Int("retries", retries-1).Msg("pinging ES failed")
		} else {
			body, _ := io.ReadAll(res.Body)
			res.Body.Close()
			log.Warn().Int("status", res.StatusCode).Str("body", string(body)).Int("retries", retries-1).Msg("pinging ES returned an error")
		}

		if ctx.Err() != nil {
			break
		}
		time.Sleep(time.Second)
	}

	return nil, errors.New("could not reach ES")
}

func (s *ES) Search(ctx context.Context, queryJSON []byte, indexName string, useCache bool) (hits map[string]interface{}, err error) {
	res, err := esapi.SearchRequest{
		Index:        []string{indexName},
		Body:         bytes.NewReader(queryJSON),
		Pretty:       true,
		RequestCache: &useCache,
	}.Do(ctx, s.es)
	if err := CheckResponse(res, err); err != nil {
		return nil, err
	}
	defer res.Body.Close()

	hits = make(map[string]interface{})
	if err := json.NewDecoder(res.Body).Decode(&hits); err != nil {
		return nil, errors.Wrap(err, "error decoding search response")
	}

	return hits, nil
}

// CreateIndex drops indexName if it exists and recreates it with the given
// mappings file, or DefaultMappings when the path is empty.
func (s *ES) CreateIndex(ctx context.Context, mappingsJSONFile, indexName string) error {
	mappings := []byte(DefaultMappings)
	if mappingsJSONFile != "" {
		var err error
		if mappings, err = ReadJSONFile(mappingsJSONFile); err != nil {
			return err
		}
	}

	// Delete index if it exists.
	res, err := esapi.IndicesDeleteRequest{
		Index:             []string{indexName},
		IgnoreUnavailable: &truee,
		Pretty:            true,
	}.Do(ctx, s.es)
	if err := CheckResponse(res, err); err != nil {
		return err
	}
	res.Body.Close()

	log.Info().Str("index", indexName).Int("status", res.StatusCode).Msg("deleted existing index")

	// Create a new index.
	res, err = esapi.IndicesCreateRequest{
		Index:  indexName,
		Body:   bytes.NewReader(mappings),
		Pretty: true,
	}.Do(ctx, s.es)
	if err := CheckResponse(res, err); err != nil {
		return err
	}
	res.Body.Close()

	log.Info().Str("index", indexName).Int("status", res.StatusCode).Msg("created new index")

	return nil
}

// BulkBody builds the NDJSON payload of a bulk `create` request.
func BulkBody(docIDs []string, docs []interface{}) (string, error) {
	if len(docIDs) == 0 || len(docIDs) != len(docs) {
		return "", errors.Errorf("got %d doc IDs but %d docs", len(docIDs), len(docs))
	}

	var sb strings.Builder

	for i, id := range docIDs {
		action, err := json.Marshal(map[string]map[string]string{"create": {"_id": id}})
		if err != nil {
			return "", errors.Wrapf(err, "could not marshal action for doc id %s", id)
		}
		sb.Write(action)
		sb.WriteRune('\n')

		docJ, err := json.Marshal(docs[i])
		if err != nil {
			return "", errors.Wrapf(err, "could not marshal doc id %s", id)
		}

		sb.Write(docJ)
		sb.WriteRune('\n')
	}

	return sb.String(), nil
}

func (s *ES) BulkIndex(ctx context.Context, indexName string, docIDs []string, docs []interface{}) error {
	body, err := BulkBody(docIDs, docs)
	if err != nil {
		return err
	}

	timer := time.Now()

	res, err := esapi.BulkRequest{
		Index: indexName,
		Body:  strings.NewReader(body),
	}.Do(ctx, s.es)
	if err := CheckResponse(res, err); err != nil {
		return err
	}
	defer res.Body.Close()

	var br BulkResponse
	if err := Unmarshal(res, &br); err != nil {
		return err
	}

	if br.Errors {
		for _, item := range br.Items {
			if item.Create.Error.Type != "" {
				return errors.Errorf("error while bulk indexing: %s: %s", item.Create.Error.Type, item.Create.Error.Reason)
			}
			if item.Index.Error.Type != "" {
				return errors.Errorf("error while bulk indexing: %s: %s", item.Index.Error.Type, item.Index.Error.Reason)
			}
		}
		return errors.New("error while bulk indexing")
	}

	elapsed := time.Since(timer).Seconds()

	s.bulkIndexDocs += int64(len(docIDs))
	s.bulkIndexSecs += elapsed
	if elapsed > 0 {
		s.bulkIndexLatestRate = float64(len(docIDs)) / elapsed
	}

	if s.verboseOutput {
		fmt.Printf("Bulk indexed %d docs (status: %d)\n", len(docIDs), res.StatusCode)
	}

	return nil
}

func (s *ES) PrintBulkIndexingRate() {
	var avg float64
	if s.bulkIndexSecs > 0 {
		avg = float64(s.bulkIndexDocs) / s.bulkIndexSecs
	}
	fmt.Printf("Bulk indexing rate: %.02f docs / sec  (avg: %.02f)\n", s.bulkIndexLatestRate, avg)
}

func ReadJSONFile(file string) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, domain.OpenError(file, err)
	}
	return data, nil
}

// CheckResponse turns a transport error or an error status into an error.
func CheckResponse(res *esapi.Response, err error) error {
	if err != nil {
		return errors.Wrap(err, "error getting response")
	}
	if res.IsError() {
		defer res.Body.Close()
		return errors.Errorf("error response: %s", res)
	}
	return nil
}

func Unmarshal(res *esapi.Response, o interface{}) error {
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "error reading response body")
	}

	if err := json.Unmarshal(data, o); err != nil {
		return errors.Wrapf(err, "error unmarshalling response body: %s", string(data))
	}
	return nil
}

type BulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index  struct{ Error ESError } `json:"index"`
		Create struct{ Error ESError } `json:"create"`
	} `json:"items"`
}

type ESError struct {
	Type      string `json:"type"`       // Error type for the operation.
	Reason    string `json:"reason"`     // Reason for the failed operation.
	IndexUUID string `json:"index_uuid"` // The universally unique identifier (UUID) of the index associated with the failed operation.
	Shard     string `json:"shard"`      // ID of the shard associated with the failed operation.
	Index     string `json:"index"`      // Name of the index associated with the failed operation.
}
