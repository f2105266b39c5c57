// Package store persists catalog entries to their DynamoDB table. The only
// serving-path operation is an upsert by primary key: each write overwrites
// whatever entry previously held the same (year, title) key.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/filmstack/catalog/internal/catalog"
	"github.com/filmstack/catalog/internal/security"
)

var (
	// ErrNotFound is returned by Get when no entry exists for a key.
	ErrNotFound = errors.New("entry not found")
)

// DynamoDBClient defines the DynamoDB operations the store uses.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

var _ DynamoDBClient = (*dynamodb.Client)(nil)

// Store writes catalog entries to a single table.
type Store struct {
	client DynamoDBClient
	table  string
	logger *slog.Logger
}

// New builds a store for the given table. The capability set must grant
// writes on exactly this table; anything else is a boundary violation and
// fails here, before the store can serve a request.
func New(client DynamoDBClient, table string, caps *security.CapabilitySet, logger *slog.Logger) (*Store, error) {
	if err := caps.Authorize(security.ActionStoreWrite, table); err != nil {
		return nil, fmt.Errorf("store for table %q: %w", table, err)
	}

	return &Store{
		client: client,
		table:  table,
		logger: logger,
	}, nil
}

// TableName returns the identity of the backing storage resource.
func (s *Store) TableName() string {
	return s.table
}

// Upsert persists an entry, overwriting any prior entry with the same key.
// Writes are atomic per key; concurrent writers race and the last one wins.
func (s *Store) Upsert(ctx context.Context, entry catalog.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		s.logger.Error("failed to put entry",
			"error", err,
			"year", entry.Year,
			"title", entry.Title,
		)
		return fmt.Errorf("put entry: %w", err)
	}

	s.logger.Info("entry saved", "year", entry.Year, "title", entry.Title)
	return nil
}

// Get retrieves the entry stored under a key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key catalog.Key) (*catalog.Entry, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"year":  &types.AttributeValueMemberN{Value: strconv.Itoa(key.Year)},
			"title": &types.AttributeValueMemberS{Value: key.Title},
		},
	})
	if err != nil {
		s.logger.Error("failed to get entry", "error", err, "year", key.Year, "title", key.Title)
		return nil, fmt.Errorf("get entry: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var entry catalog.Entry
	if err := attributevalue.UnmarshalMap(result.Item, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}

	return &entry, nil
}
