package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-service/internal/domain/event"
)

// UserIndexer writes created users into an Elasticsearch index keyed by user id.
type UserIndexer struct {
	ES      *elasticsearch.Client
	Index   string
	Timeout time.Duration
	Logger  *logrus.Logger
}

func NewUserIndexer(es *elasticsearch.Client, index string, logger *logrus.Logger) *UserIndexer {
	return &UserIndexer{ES: es, Index: index, Timeout: 3 * time.Second, Logger: logger}
}

// userMapping keeps email exact-match and full_name searchable by token and as a whole.
const userMapping = `{
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "id":         {"type": "keyword"},
      "email":      {"type": "keyword"},
      "full_name":  {"type": "text", "fields": {"raw": {"type": "keyword", "ignore_above": 256}}},
      "created_at": {"type": "date"}
    }
  }
}`

// EnsureIndex creates the users index with its mapping when it does not exist yet.
// Losing a creation race to another worker is not an error.
func (i *UserIndexer) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, i.Timeout)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{i.Index}}.Do(c, i.ES)
	if err != nil {
		return fmt.Errorf("check index %s: %w", i.Index, err)
	}
	_ = res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index %s: %s", i.Index, res.Status())
	}

	res, err = esapi.IndicesCreateRequest{Index: i.Index, Body: strings.NewReader(userMapping)}.Do(c, i.ES)
	if err != nil {
		return fmt.Errorf("create index %s: %w", i.Index, err)
	}
	defer func() { _ = res.Body.Close() }()
	if !res.IsError() {
		i.Logger.WithField("index", i.Index).Info("elasticsearch index created")
		return nil
	}
	var body struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if json.NewDecoder(res.Body).Decode(&body) == nil && body.Error.Type == "resource_already_exists_exception" {
		return nil
	}
	return fmt.Errorf("create index %s: %s", i.Index, res.Status())
}

type userDocument struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	CreatedAt string `json:"created_at"`
}

// IndexUser is idempotent: indexing the same event twice overwrites the same document.
func (i *UserIndexer) IndexUser(ctx context.Context, e event.UserCreated) error {
	doc := userDocument{
		ID:        e.UserID.String(),
		Email:     e.Email,
		FullName:  e.FullName,
		CreatedAt: e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode user document: %w", err)
	}

	req := esapi.IndexRequest{Index: i.Index, DocumentID: doc.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, i.Timeout)
	defer cancel()
	res, err := req.Do(c, i.ES)
	if err != nil {
		return fmt.Errorf("index user %s: %w", doc.ID, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		i.Logger.WithFields(logrus.Fields{"status": res.Status(), "user_id": doc.ID}).Warn("es index response error")
		return fmt.Errorf("index user %s: %s", doc.ID, res.Status())
	}
	return nil
}
