package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/landing-auth/internal/domain"
)

// AccountRepo provides typed DynamoDB operations for the accounts table.
type AccountRepo struct {
	client    API
	tableName string
}

func NewAccountRepo(client API, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

// Put creates a new account. It fails with ErrConflict if the id is taken.
func (r *AccountRepo) Put(ctx context.Context, a *domain.Account) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": attrAccountID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("account %s exists: %w", a.AccountID, domain.ErrConflict)
	}
	return err
}

func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrAccountID, accountID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(emailIndex),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attrEmail},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: email}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SetCode stores a hashed one-time code with its expiry and resets the attempt counter.
func (r *AccountRepo) SetCode(ctx context.Context, accountID string, kind domain.CodeKind, hash string, expiry time.Time) error {
	tokenAttr, expiryAttr := codeAttrs(kind)
	return r.update(ctx, accountID, map[string]interface{}{
		tokenAttr:       hash,
		expiryAttr:      expiry.UTC(),
		attrOTPAttempts: 0,
	})
}

// ClearCode removes a one-time code and its attempt counter.
func (r *AccountRepo) ClearCode(ctx context.Context, accountID string, kind domain.CodeKind) error {
	tokenAttr, expiryAttr := codeAttrs(kind)
	return r.update(ctx, accountID, nil, tokenAttr, expiryAttr, attrOTPAttempts)
}

// ConsumeCode removes a one-time code only while it still holds hash and
// fewer than maxAttempts failures are recorded. It returns ErrConflict when
// the code was replaced, burned, or already used.
func (r *AccountRepo) ConsumeCode(ctx context.Context, accountID string, kind domain.CodeKind, hash string, maxAttempts int) error {
	tokenAttr, expiryAttr := codeAttrs(kind)
	ue, err := buildUpdateExpr(map[string]interface{}{attrUpdatedAt: time.Now().UTC()}, tokenAttr, expiryAttr, attrOTPAttempts)
	if err != nil {
		return err
	}
	ue.Names["#tok"] = tokenAttr
	ue.Names["#n"] = attrOTPAttempts
	ue.Values[":hash"] = &types.AttributeValueMemberS{Value: hash}
	ue.Values[":max"] = &types.AttributeValueMemberN{Value: strconv.Itoa(maxAttempts)}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(attrAccountID, accountID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(consumeCondition),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("code for %s no longer valid: %w", accountID, domain.ErrConflict)
	}
	return err
}

const consumeCondition = "#tok = :hash AND (attribute_not_exists(#n) OR #n < :max)"

// RecordFailedAttempt atomically increments the attempt counter and returns the new value.
func (r *AccountRepo) RecordFailedAttempt(ctx context.Context, accountID string) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(attrAccountID, accountID),
		UpdateExpression:         aws.String("ADD #n :one"),
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#n": attrOTPAttempts, "#pk": attrAccountID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if isConditionFailed(err) {
		return 0, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	var res struct {
		Attempts int `dynamodbav:"otp_attempts"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &res); err != nil {
		return 0, err
	}
	return res.Attempts, nil
}

// Activate turns a pending account into a registered one and drops any signup code.
func (r *AccountRepo) Activate(ctx context.Context, accountID string, act domain.Activation) error {
	set := map[string]interface{}{
		attrProvider: act.Provider,
		attrRole:     domain.RoleUser,
		attrStatus:   domain.StatusReguler,
	}
	if act.DisplayName != "" {
		set[attrDisplayName] = act.DisplayName
	}
	if act.Image != "" {
		set[attrImage] = act.Image
	}
	return r.update(ctx, accountID, set, attrSignupOTP, attrSignupOTPExpiry, attrOTPAttempts)
}

func (r *AccountRepo) SetImage(ctx context.Context, accountID, url string) error {
	return r.update(ctx, accountID, map[string]interface{}{attrImage: url})
}

func (r *AccountRepo) Delete(ctx context.Context, accountID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrAccountID, accountID),
	})
	return err
}

// update applies set/remove to an existing account and stamps updated_at.
func (r *AccountRepo) update(ctx context.Context, accountID string, set map[string]interface{}, remove ...string) error {
	fields := make(map[string]interface{}, len(set)+1)
	for k, v := range set {
		fields[k] = v
	}
	fields[attrUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(fields, remove...)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = attrAccountID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(attrAccountID, accountID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	return err
}

func codeAttrs(kind domain.CodeKind) (token, expiry string) {
	if kind == domain.CodeSignup {
		return attrSignupOTP, attrSignupOTPExpiry
	}
	return attrResetToken, attrResetTokenExpiry
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
