package backup

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// Entry records one completed snapshot push.
type Entry struct {
	ID        string
	Key       string
	SizeBytes int64
	CreatedAt time.Time
}

// ManifestStore tracks which snapshot in a Store is the latest complete
// one, the way DDBCommitStore uses DynamoDB as a commit log the way S3
// alone cannot (S3 has no atomic "give me the newest object" query).
type ManifestStore struct {
	client    DDBClient
	tableName string
	baseKey   string // partition key: which backup target this manifest tracks
}

// DDBClient is the subset of the DynamoDB client ManifestStore needs.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// NewManifestStore creates a ManifestStore. tableName must already exist
// with partition key "base_key" (string) and sort key "created_at_unix"
// (number).
func NewManifestStore(client DDBClient, tableName, baseKey string) *ManifestStore {
	return &ManifestStore{client: client, tableName: tableName, baseKey: baseKey}
}

// Record appends a new manifest entry for a just-completed push. Every
// entry gets a freshly generated ID.
func (m *ManifestStore) Record(ctx context.Context, key string, sizeBytes int64) (Entry, error) {
	entry := Entry{
		ID:        uuid.NewString(),
		Key:       key,
		SizeBytes: sizeBytes,
		CreatedAt: time.Now().UTC(),
	}

	_, err := m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(m.tableName),
		Item: map[string]types.AttributeValue{
			"base_key":        &types.AttributeValueMemberS{Value: m.baseKey},
			"created_at_unix": &types.AttributeValueMemberN{Value: strconv.FormatInt(entry.CreatedAt.Unix(), 10)},
			"id":              &types.AttributeValueMemberS{Value: entry.ID},
			"key":             &types.AttributeValueMemberS{Value: entry.Key},
			"size_bytes":      &types.AttributeValueMemberN{Value: strconv.FormatInt(entry.SizeBytes, 10)},
		},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("backup: record manifest entry: %w", err)
	}
	return entry, nil
}

// Latest returns the most recently recorded entry for this manifest's
// baseKey. The second return is false if no entry has ever been
// recorded.
func (m *ManifestStore) Latest(ctx context.Context) (Entry, bool, error) {
	entries, err := m.List(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	if len(entries) == 0 {
		return Entry{}, false, nil
	}
	return entries[len(entries)-1], true, nil
}

// List returns every recorded entry for this manifest's baseKey, oldest
// first.
func (m *ManifestStore) List(ctx context.Context) ([]Entry, error) {
	out, err := m.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(m.tableName),
		KeyConditionExpression: aws.String("base_key = :bk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bk": &types.AttributeValueMemberS{Value: m.baseKey},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("backup: query manifest: %w", err)
	}

	entries := make([]Entry, 0, len(out.Items))
	for _, item := range out.Items {
		var e Entry
		if v, ok := item["id"].(*types.AttributeValueMemberS); ok {
			e.ID = v.Value
		}
		if v, ok := item["key"].(*types.AttributeValueMemberS); ok {
			e.Key = v.Value
		}
		if v, ok := item["size_bytes"].(*types.AttributeValueMemberN); ok {
			e.SizeBytes, _ = strconv.ParseInt(v.Value, 10, 64)
		}
		if v, ok := item["created_at_unix"].(*types.AttributeValueMemberN); ok {
			unix, _ := strconv.ParseInt(v.Value, 10, 64)
			e.CreatedAt = time.Unix(unix, 0).UTC()
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries, nil
}
