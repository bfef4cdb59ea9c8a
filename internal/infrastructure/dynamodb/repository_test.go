package dynamodb

import (
	"context"
	"testing"
	"time"

	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"taller-access/internal/domain"
)

type apiMock struct{ mock.Mock }

func (m *apiMock) GetItem(ctx context.Context, in *awsv2dynamodb.GetItemInput, _ ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*awsv2dynamodb.GetItemOutput), args.Error(1)
}

func (m *apiMock) Query(ctx context.Context, in *awsv2dynamodb.QueryInput, _ ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*awsv2dynamodb.QueryOutput), args.Error(1)
}

func (m *apiMock) UpdateItem(ctx context.Context, in *awsv2dynamodb.UpdateItemInput, _ ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*awsv2dynamodb.UpdateItemOutput), args.Error(1)
}

func s(v string) awsv2types.AttributeValue { return &awsv2types.AttributeValueMemberS{Value: v} }

func roleAV(id, name string, perms ...string) map[string]awsv2types.AttributeValue {
	list := make([]awsv2types.AttributeValue, 0, len(perms))
	for _, p := range perms {
		list = append(list, s(p))
	}
	return map[string]awsv2types.AttributeValue{
		"PK":          s(partition),
		"SK":          s(roleSK(id)),
		"ID":          s(id),
		"Name":        s(name),
		"Permissions": &awsv2types.AttributeValueMemberL{Value: list},
		"CreatedAt":   s("2026-01-02T03:04:05Z"),
		"UpdatedAt":   s("2026-01-02T03:04:05Z"),
	}
}

func segmentCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, seg := xray.BeginSegment(context.Background(), "dynamodb-test")
	t.Cleanup(func() { seg.Close(nil) })
	return ctx
}

func keySK(key map[string]awsv2types.AttributeValue) string {
	if v, ok := key["SK"].(*awsv2types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func TestRoleRepository_GetByID(t *testing.T) {
	api := new(apiMock)
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.GetItemInput) bool {
		return *in.TableName == "rbac" && keySK(in.Key) == "ROLE#r1"
	})).Return(&awsv2dynamodb.GetItemOutput{Item: roleAV("r1", "Recepcionista", "clientes:ver")}, nil)
	repo := NewRoleRepository(NewClientWithAPI(api, "rbac"))

	role, err := repo.GetByID(segmentCtx(t), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Recepcionista", role.Name)
	assert.Equal(t, []string{"clientes:ver"}, role.Permissions)
	assert.Equal(t, 2026, role.CreatedAt.Year())
}

func TestRoleRepository_GetByIDNotFound(t *testing.T) {
	api := new(apiMock)
	api.On("GetItem", mock.Anything, mock.Anything).Return(&awsv2dynamodb.GetItemOutput{}, nil)
	repo := NewRoleRepository(NewClientWithAPI(api, "rbac"))

	_, err := repo.GetByID(segmentCtx(t), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoleRepository_ListPages(t *testing.T) {
	api := new(apiMock)
	last := map[string]awsv2types.AttributeValue{"PK": s(partition), "SK": s(roleSK("b"))}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&awsv2dynamodb.QueryOutput{
		Items:            []map[string]awsv2types.AttributeValue{roleAV("b", "Mecanico")},
		LastEvaluatedKey: last,
	}, nil).Once()
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&awsv2dynamodb.QueryOutput{
		Items: []map[string]awsv2types.AttributeValue{roleAV("a", "Administrador")},
	}, nil).Once()
	repo := NewRoleRepository(NewClientWithAPI(api, "rbac"))

	roles, err := repo.List(segmentCtx(t))
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "Administrador", roles[0].Name)
	api.AssertExpectations(t)
}

func TestRoleRepository_UpdatePermissions(t *testing.T) {
	api := new(apiMock)
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.UpdateItemInput) bool {
		list, ok := in.ExpressionAttributeValues[":p"].(*awsv2types.AttributeValueMemberL)
		return ok && len(list.Value) == 2 && keySK(in.Key) == "ROLE#r1"
	})).Return(&awsv2dynamodb.UpdateItemOutput{}, nil)
	repo := NewRoleRepository(NewClientWithAPI(api, "rbac"))

	err := repo.UpdatePermissions(segmentCtx(t), domain.Role{ID: "r1", Permissions: []string{"a:ver", "b:ver"}, UpdatedAt: time.Now()})
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestRoleRepository_UpdatePermissionsMissingRole(t *testing.T) {
	api := new(apiMock)
	api.On("UpdateItem", mock.Anything, mock.Anything).Return(&awsv2dynamodb.UpdateItemOutput{}, &awsv2types.ConditionalCheckFailedException{})
	repo := NewRoleRepository(NewClientWithAPI(api, "rbac"))

	err := repo.UpdatePermissions(segmentCtx(t), domain.Role{ID: "gone"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPermissionCatalog_List(t *testing.T) {
	api := new(apiMock)
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.QueryInput) bool {
		sk, ok := in.ExpressionAttributeValues[":sk"].(*awsv2types.AttributeValueMemberS)
		return ok && sk.Value == "PERM#"
	})).Return(&awsv2dynamodb.QueryOutput{Items: []map[string]awsv2types.AttributeValue{
		{"ID": s("p1"), "Name": s("clientes:ver"), "Description": s("Ver clientes")},
		{"ID": s("p2"), "Name": s("legacy_perm")},
	}}, nil)
	catalog := NewPermissionCatalog(NewClientWithAPI(api, "rbac"))

	entries, err := catalog.List(segmentCtx(t))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "clientes:ver", entries[0].Name)
	assert.Equal(t, "Ver clientes", entries[0].Description)
}
