// Package dynamo stores interest actions in a single DynamoDB table keyed by
// PK = USER#<actor> and SK = INTERACTION#<target>.
package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/models"
)

const (
	userPrefix        = "USER#"
	interactionPrefix = "INTERACTION#"

	// BatchGetItem accepts at most 100 keys per call.
	batchGetLimit = 100
	// Unprocessed keys are retried this many times before giving up.
	maxBatchRetries = 5
)

// API is the subset of the DynamoDB client used by the repository.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

// NewClient builds a DynamoDB client from the default AWS credential chain.
// A non-empty endpoint points the client at a local emulator.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

type actionItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	ID        string `dynamodbav:"id"`
	ActorID   string `dynamodbav:"actorId"`
	TargetID  string `dynamodbav:"targetId"`
	Action    string `dynamodbav:"action"`
	CreatedAt string `dynamodbav:"createdAt"`
	UpdatedAt string `dynamodbav:"updatedAt"`
}

func (it actionItem) toModel() (models.InterestAction, error) {
	created, err := time.Parse(time.RFC3339Nano, it.CreatedAt)
	if err != nil {
		return models.InterestAction{}, fmt.Errorf("parsing createdAt of %s: %w", it.SK, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	if err != nil {
		return models.InterestAction{}, fmt.Errorf("parsing updatedAt of %s: %w", it.SK, err)
	}
	return models.InterestAction{
		ID:        it.ID,
		ActorID:   it.ActorID,
		TargetID:  it.TargetID,
		Action:    models.Action(it.Action),
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func userKey(id string) string        { return userPrefix + id }
func interactionKey(id string) string { return interactionPrefix + id }

func itemKey(actorID, targetID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: userKey(actorID)},
		"SK": &types.AttributeValueMemberS{Value: interactionKey(targetID)},
	}
}

// InterestRepository implements interest.Repository on DynamoDB.
type InterestRepository struct {
	client API
	table  string
	now    func() time.Time
	log    *zap.Logger
}

func NewInterestRepository(client API, table string, log *zap.Logger) *InterestRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &InterestRepository{client: client, table: table, now: time.Now, log: log}
}

func (r *InterestRepository) GetAction(ctx context.Context, actorID, targetID string) (*models.InterestAction, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            itemKey(actorID, targetID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get action %s->%s: %w", actorID, targetID, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var it actionItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action: %w", err)
	}
	a, err := it.toModel()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertAction writes the action in a single UpdateItem so concurrent
// submissions for the same pair converge on one item. createdAt and id are
// only set on the first write.
func (r *InterestRepository) UpsertAction(ctx context.Context, actorID, targetID string, action models.Action) (*models.InterestAction, error) {
	now := r.now().UTC().Format(time.RFC3339Nano)
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key:       itemKey(actorID, targetID),
		UpdateExpression: aws.String(
			"SET #action = :action, actorId = :actor, targetId = :target, updatedAt = :now, " +
				"createdAt = if_not_exists(createdAt, :now), #id = if_not_exists(#id, :id)",
		),
		ExpressionAttributeNames: map[string]string{
			"#action": "action",
			"#id":     "id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":action": &types.AttributeValueMemberS{Value: string(action)},
			":actor":  &types.AttributeValueMemberS{Value: actorID},
			":target": &types.AttributeValueMemberS{Value: targetID},
			":now":    &types.AttributeValueMemberS{Value: now},
			":id":     &types.AttributeValueMemberS{Value: uuid.NewString()},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert action %s->%s: %w", actorID, targetID, err)
	}

	var it actionItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action: %w", err)
	}
	a, err := it.toModel()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListOutgoing queries the actor's partition and filters on the action kind.
func (r *InterestRepository) ListOutgoing(ctx context.Context, actorID string, actions []models.Action) ([]models.InterestAction, error) {
	if len(actions) == 0 {
		return nil, nil
	}

	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: userKey(actorID)},
		":sk": &types.AttributeValueMemberS{Value: interactionPrefix},
	}
	placeholders := make([]string, len(actions))
	for i, a := range actions {
		name := fmt.Sprintf(":a%d", i)
		placeholders[i] = name
		values[name] = &types.AttributeValueMemberS{Value: string(a)}
	}

	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    aws.String("PK = :pk AND begins_with(SK, :sk)"),
		FilterExpression:          aws.String("#action IN (" + strings.Join(placeholders, ", ") + ")"),
		ExpressionAttributeNames:  map[string]string{"#action": "action"},
		ExpressionAttributeValues: values,
		ConsistentRead:            aws.Bool(true),
	})

	var out []models.InterestAction
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query actions of %s: %w", actorID, err)
		}
		batch, err := decodeItems(page.Items)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].TargetID < out[j].TargetID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ListIncoming fetches the actions each of actorIDs took on targetID with
// BatchGetItem, in chunks of 100 keys.
func (r *InterestRepository) ListIncoming(ctx context.Context, targetID string, actorIDs []string) ([]models.InterestAction, error) {
	var out []models.InterestAction
	for start := 0; start < len(actorIDs); start += batchGetLimit {
		end := min(start+batchGetLimit, len(actorIDs))

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, actorID := range actorIDs[start:end] {
			keys = append(keys, itemKey(actorID, targetID))
		}

		items, err := r.batchGet(ctx, keys)
		if err != nil {
			return nil, err
		}
		batch, err := decodeItems(items)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (r *InterestRepository) batchGet(ctx context.Context, keys []map[string]types.AttributeValue) ([]map[string]types.AttributeValue, error) {
	request := map[string]types.KeysAndAttributes{
		r.table: {Keys: keys, ConsistentRead: aws.Bool(true)},
	}

	var items []map[string]types.AttributeValue
	for attempt := 0; len(request) > 0; attempt++ {
		if attempt > maxBatchRetries {
			return nil, fmt.Errorf("failed to read %d unprocessed keys from %s", len(request[r.table].Keys), r.table)
		}
		if attempt > 0 {
			r.log.Debug("retrying unprocessed keys",
				zap.Int("attempt", attempt),
				zap.Int("keys", len(request[r.table].Keys)),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt*50) * time.Millisecond):
			}
		}

		out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return nil, fmt.Errorf("failed to batch get actions: %w", err)
		}
		items = append(items, out.Responses[r.table]...)
		request = out.UnprocessedKeys
	}
	return items, nil
}

func decodeItems(items []map[string]types.AttributeValue) ([]models.InterestAction, error) {
	var raw []actionItem
	if err := attributevalue.UnmarshalListOfMaps(items, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}
	out := make([]models.InterestAction, 0, len(raw))
	for _, it := range raw {
		a, err := it.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
