package user_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"hunteros-backend/internal/api/v1/admin/user"
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

func setupTestDB(t *testing.T) {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func seedUsers(t *testing.T) (models.User, models.User) {
	admin := models.User{Username: "root", Password: "hashed", Role: models.RoleAdmin}
	member := models.User{Username: "alice", Password: "hashed", Role: models.RoleUser}
	require.NoError(t, database.DB.Create(&admin).Error)
	require.NoError(t, database.DB.Create(&member).Error)
	return admin, member
}

func do(operator models.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user", operator)
		c.Next()
	})
	user.RegisterRoutes(r.Group("/admin"))

	req, _ := http.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListUsers(t *testing.T) {
	setupTestDB(t)
	admin, _ := seedUsers(t)

	tests := []struct {
		name      string
		query     string
		wantTotal int64
		wantItems int
	}{
		{"all users", "", 2, 2},
		{"paged", "?page=2&limit=1", 2, 1},
		{"search", "?search=ali", 1, 1},
		{"page past the end", "?page=5", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(admin, http.MethodGet, "/admin/users"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Data struct {
					Total int64               `json:"total"`
					Items []user.UserListItem `json:"items"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantTotal, resp.Data.Total)
			assert.Len(t, resp.Data.Items, tt.wantItems)
		})
	}
}

func TestUpdateUserRole(t *testing.T) {
	setupTestDB(t)
	admin, member := seedUsers(t)
	var before models.User
	require.NoError(t, database.DB.First(&before, member.ID).Error)

	w := do(admin, http.MethodPatch, fmt.Sprintf("/admin/users/%d", member.ID), user.UpdateUserRequest{Role: models.RoleAdmin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.User
	require.NoError(t, database.DB.First(&stored, member.ID).Error)
	assert.Equal(t, models.RoleAdmin, stored.Role)
	assert.Equal(t, before.Version+1, stored.Version)

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
	}{
		{"own role", fmt.Sprintf("/admin/users/%d", admin.ID), user.UpdateUserRequest{Role: models.RoleUser}, http.StatusBadRequest},
		{"unknown role", fmt.Sprintf("/admin/users/%d", member.ID), map[string]string{"role": "owner"}, http.StatusBadRequest},
		{"missing role", fmt.Sprintf("/admin/users/%d", member.ID), map[string]string{}, http.StatusBadRequest},
		{"unknown user", "/admin/users/999", user.UpdateUserRequest{Role: models.RoleUser}, http.StatusNotFound},
		{"bad id", "/admin/users/abc", user.UpdateUserRequest{Role: models.RoleUser}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(admin, http.MethodPatch, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}
