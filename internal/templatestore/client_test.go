package templatestore

import (
	"context"
	"net/http/httptest"
	"testing"

	"hunteros-backend/internal/api/v1/templates"
	"hunteros-backend/internal/api/v1/widgets"
	"hunteros-backend/internal/binding"
	"hunteros-backend/internal/database"
	"hunteros-backend/internal/models"
	"hunteros-backend/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T, user models.User) *Client {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user", user)
		c.Next()
	})
	api := r.Group("/api/v1")
	templates.RegisterRoutes(api)
	widgets.RegisterRoutes(api)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "token", nil)
}

func TestClientCRUD(t *testing.T) {
	client := newTestServer(t, models.User{ID: 1, Role: models.RoleUser})
	ctx := context.Background()

	created, err := client.Create(ctx, templates.CreateTemplateRequest{Name: "Clock", Code: "<p>v1</p>"})
	require.NoError(t, err)
	assert.Equal(t, "Clock", created.Name)

	code := "<p>v2</p>"
	updated, err := client.Update(ctx, created.ID, templates.UpdateTemplateRequest{Code: &code})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	page, err := client.List(ctx, ListOptions{Filter: "mine"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, code, page.Items[0].Code)

	versions, err := client.Versions(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	require.NoError(t, client.Delete(ctx, created.ID))
	_, err = client.Get(ctx, created.ID)
	assert.True(t, IsNotFound(err))
}

func TestClientErrors(t *testing.T) {
	client := newTestServer(t, models.User{ID: 1, Role: models.RoleUser})

	_, err := client.Create(context.Background(), templates.CreateTemplateRequest{Name: "P", Code: "<p/>", IsPublic: true})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	assert.Contains(t, apiErr.Message, "administrators")
}

func TestClientAsFetcher(t *testing.T) {
	client := newTestServer(t, models.User{ID: 1, Role: models.RoleUser})
	ctx := context.Background()

	created, err := client.Create(ctx, templates.CreateTemplateRequest{Name: "Clock", Code: "<p>live</p>"})
	require.NoError(t, err)

	resolver := binding.NewResolver(client)
	res := resolver.Resolve(ctx, binding.ByReference{TemplateID: created.ID, Fallback: "<p>old</p>"})
	assert.Equal(t, "<p>live</p>", res.Code)
	assert.Equal(t, "Clock", res.TemplateName)

	require.NoError(t, client.Delete(ctx, created.ID))
	res = resolver.Resolve(ctx, binding.ByReference{TemplateID: created.ID, Fallback: "<p>old</p>"})
	assert.Equal(t, "<p>old</p>", res.Code)
	assert.True(t, res.TemplateMissing)
}
