package dynamodb

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	awsv2xray "github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
	"taller-access/internal/domain"
)

// API is the subset of the DynamoDB client the repositories use.
type API interface {
	GetItem(ctx context.Context, in *awsv2dynamodb.GetItemInput, opts ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *awsv2dynamodb.QueryInput, opts ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, in *awsv2dynamodb.UpdateItemInput, opts ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.UpdateItemOutput, error)
}

type Client struct {
	db        API
	tableName string
}

func NewClient(ctx context.Context, region, tableName string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	awsv2xray.AWSV2Instrumentor(&cfg.APIOptions)
	return NewClientWithAPI(awsv2dynamodb.NewFromConfig(cfg), tableName), nil
}

func NewClientWithAPI(api API, tableName string) *Client {
	return &Client{db: api, tableName: tableName}
}

// Roles and the permission catalog share one partition.
const partition = "RBAC"

func roleSK(roleID string) string { return "ROLE#" + roleID }

func isConditionalCheckFailure(err error) bool {
	var condErr *awsv2types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

type RoleRepository struct{ client *Client }

type PermissionCatalog struct{ client *Client }

func NewRoleRepository(client *Client) *RoleRepository {
	return &RoleRepository{client: client}
}

func NewPermissionCatalog(client *Client) *PermissionCatalog {
	return &PermissionCatalog{client: client}
}

type roleItem struct {
	ID          string   `dynamodbav:"ID"`
	Name        string   `dynamodbav:"Name"`
	Permissions []string `dynamodbav:"Permissions"`
	CreatedAt   string   `dynamodbav:"CreatedAt"`
	UpdatedAt   string   `dynamodbav:"UpdatedAt"`
}

func (raw roleItem) toDomain() domain.Role {
	createdAt, _ := time.Parse(time.RFC3339, raw.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, raw.UpdatedAt)
	return domain.Role{ID: raw.ID, Name: raw.Name, Permissions: raw.Permissions, CreatedAt: createdAt, UpdatedAt: updatedAt}
}

func (r *RoleRepository) GetByID(ctx context.Context, roleID string) (domain.Role, error) {
	var out *awsv2dynamodb.GetItemOutput
	err := xray.Capture(ctx, "DynamoDB.GetRole", func(ctx context.Context) error {
		var e error
		out, e = r.client.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: partition},
				"SK": &awsv2types.AttributeValueMemberS{Value: roleSK(roleID)},
			},
		})
		return e
	})
	if err != nil {
		return domain.Role{}, err
	}
	if out.Item == nil {
		return domain.Role{}, domain.ErrNotFound
	}
	var raw roleItem
	if err := attributevalue.UnmarshalMap(out.Item, &raw); err != nil {
		return domain.Role{}, err
	}
	return raw.toDomain(), nil
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	items, err := r.client.queryPrefix(ctx, "DynamoDB.QueryRoles", "ROLE#")
	if err != nil {
		return nil, err
	}
	roles := make([]domain.Role, 0, len(items))
	for _, item := range items {
		var raw roleItem
		if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
			return nil, err
		}
		roles = append(roles, raw.toDomain())
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (r *RoleRepository) UpdatePermissions(ctx context.Context, role domain.Role) error {
	permissions := role.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	permissionsAV, err := attributevalue.Marshal(permissions)
	if err != nil {
		return err
	}
	return xray.Capture(ctx, "DynamoDB.UpdateRolePermissions", func(ctx context.Context) error {
		_, err := r.client.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: partition},
				"SK": &awsv2types.AttributeValueMemberS{Value: roleSK(role.ID)},
			},
			UpdateExpression: aws.String("SET Permissions = :p, UpdatedAt = :u"),
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":p": permissionsAV,
				":u": &awsv2types.AttributeValueMemberS{Value: role.UpdatedAt.Format(time.RFC3339)},
			},
			ConditionExpression: aws.String("attribute_exists(PK)"),
		})
		if isConditionalCheckFailure(err) {
			return domain.ErrNotFound
		}
		return err
	})
}

func (c *PermissionCatalog) List(ctx context.Context) ([]domain.CatalogEntry, error) {
	items, err := c.client.queryPrefix(ctx, "DynamoDB.QueryPermissions", "PERM#")
	if err != nil {
		return nil, err
	}
	entries := make([]domain.CatalogEntry, 0, len(items))
	for _, item := range items {
		raw := struct {
			ID          string `dynamodbav:"ID"`
			Name        string `dynamodbav:"Name"`
			Description string `dynamodbav:"Description"`
		}{}
		if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
			return nil, err
		}
		entries = append(entries, domain.CatalogEntry{ID: raw.ID, Name: raw.Name, Description: raw.Description})
	}
	return entries, nil
}

// queryPrefix pages through every item of the partition whose SK starts with prefix.
func (c *Client) queryPrefix(ctx context.Context, segment, prefix string) ([]map[string]awsv2types.AttributeValue, error) {
	var items []map[string]awsv2types.AttributeValue
	var startKey map[string]awsv2types.AttributeValue
	for {
		var out *awsv2dynamodb.QueryOutput
		err := xray.Capture(ctx, segment, func(ctx context.Context) error {
			var e error
			out, e = c.db.Query(ctx, &awsv2dynamodb.QueryInput{
				TableName:              aws.String(c.tableName),
				KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
				ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
					":pk": &awsv2types.AttributeValueMemberS{Value: partition},
					":sk": &awsv2types.AttributeValueMemberS{Value: prefix},
				},
				ExclusiveStartKey: startKey,
			})
			return e
		})
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
