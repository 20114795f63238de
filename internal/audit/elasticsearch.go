package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// IndexMapping is the mapping of the audit index; ids and codes are keywords.
const IndexMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "keyword"},
      "timestamp":  {"type": "date"},
      "action":     {"type": "keyword"},
      "resource":   {"type": "keyword"},
      "resourceId": {"type": "keyword"},
      "adminId":    {"type": "keyword"},
      "outcome":    {"type": "keyword"},
      "detail":     {"type": "text"}
    }
  }
}`

// ElasticsearchRecorder indexes events so operators can search the trail.
type ElasticsearchRecorder struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchRecorder(client *elasticsearch.Client, index string) *ElasticsearchRecorder {
	return &ElasticsearchRecorder{client: client, index: index}
}

func (r *ElasticsearchRecorder) Record(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: e.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to index audit event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index audit event failed: %s", res.Status())
	}
	return nil
}
