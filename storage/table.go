package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// TableBackend keeps one Azure Table entity per document. All documents of a
// store share a partition; the document key becomes the row key. The document
// is split across the string properties Value0..ValueN, with the count in
// Chunks.
type TableBackend struct {
	table     *aztables.Client
	partition string
}

const (
	// A string property holds at most 64 KiB of UTF-16.
	chunkUnits = 30000
	// 16 full chunks stay under the 1 MiB entity limit.
	maxChunks = 16

	chunkCountProp = "Chunks"
)

// ErrDocumentTooLarge is returned by TableBackend.Set when a document does not
// fit in one entity.
var ErrDocumentTooLarge = errors.New("storage: document exceeds table entity size")

// row keys may not contain these characters
var rowKeyReplacer = strings.NewReplacer("/", "_", "\\", "_", "#", "_", "?", "_")

// NewTableBackend connects to the named table. A nil transport uses the SDK default.
func NewTableBackend(connStr, table, partition string, transport policy.Transporter) (*TableBackend, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
			Transport: transport,
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &TableBackend{table: svc.NewClient(table), partition: partition}, nil
}

// EnsureTable creates the table unless it already exists.
func (t *TableBackend) EnsureTable(ctx context.Context) error {
	_, err := t.table.CreateTable(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
			return nil
		}
		return err
	}
	return nil
}

func (t *TableBackend) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := t.table.GetEntity(ctx, t.partition, rowKeyReplacer.Replace(key), nil)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var ent map[string]any
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return nil, err
	}
	n, ok := ent[chunkCountProp].(float64)
	if !ok || n < 0 {
		return nil, fmt.Errorf("storage: entity %q has no chunk count", key)
	}
	var doc strings.Builder
	for i := 0; i < int(n); i++ {
		part, ok := ent[chunkProp(i)].(string)
		if !ok {
			return nil, fmt.Errorf("storage: entity %q is missing %s", key, chunkProp(i))
		}
		doc.WriteString(part)
	}
	return []byte(doc.String()), nil
}

func (t *TableBackend) Set(ctx context.Context, key string, data []byte) error {
	chunks := splitDocument(string(data))
	if len(chunks) > maxChunks {
		return fmt.Errorf("%w: %q is %d bytes", ErrDocumentTooLarge, key, len(data))
	}
	ent := map[string]any{
		"PartitionKey": t.partition,
		"RowKey":       rowKeyReplacer.Replace(key),
		chunkCountProp: len(chunks),
	}
	for i, c := range chunks {
		ent[chunkProp(i)] = c
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = t.table.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

func (t *TableBackend) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		_, err := t.table.DeleteEntity(ctx, t.partition, rowKeyReplacer.Replace(key), nil)
		if err != nil && !isNotFound(err) {
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

func chunkProp(i int) string {
	return "Value" + strconv.Itoa(i)
}

// splitDocument cuts doc into pieces of at most chunkUnits UTF-16 code units,
// never inside a rune. An empty document yields one empty chunk.
func splitDocument(doc string) []string {
	var chunks []string
	start, units := 0, 0
	for i, r := range doc {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > chunkUnits {
			chunks = append(chunks, doc[start:i])
			start, units = i, 0
		}
		units += n
	}
	return append(chunks, doc[start:])
}
