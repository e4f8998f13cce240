package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/landing-auth/internal/domain"
)

// IdentityRepo stores sign-in identities and their revocation watermark.
type IdentityRepo struct {
	client    API
	tableName string
}

func NewIdentityRepo(client API, tableName string) *IdentityRepo {
	return &IdentityRepo{client: client, tableName: tableName}
}

func (r *IdentityRepo) Get(ctx context.Context, uid string) (*domain.Identity, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrUID, uid),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("identity not found: %w", domain.ErrNotFound)
	}
	var id domain.Identity
	if err := attributevalue.UnmarshalMap(out.Item, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Create inserts the identity. It fails with ErrConflict if the uid already exists.
func (r *IdentityRepo) Create(ctx context.Context, id *domain.Identity) error {
	item, err := attributevalue.MarshalMap(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": attrUID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("identity %s exists: %w", id.UID, domain.ErrConflict)
	}
	return err
}

// RevokeTokens invalidates every session issued before at.
func (r *IdentityRepo) RevokeTokens(ctx context.Context, uid string, at time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(attrUID, uid),
		UpdateExpression:         aws.String("SET #t = :t"),
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#t": attrTokensValidAfter, "#pk": attrUID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", at.Unix())},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("identity not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *IdentityRepo) Delete(ctx context.Context, uid string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrUID, uid),
	})
	return err
}
