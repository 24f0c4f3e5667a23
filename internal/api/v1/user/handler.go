package user

import (
	"net/http"

	"hunteros-backend/internal/database"
	"hunteros-backend/internal/middleware"
	"hunteros-backend/internal/models"
	"hunteros-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CurrentUser godoc
// @Summary Get current user
// @Description Get the current user with a refreshed token and dashboard counts
// @Tags user
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response{data=user.UserResponse}
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /auth/user [get]
func CurrentUser(c *gin.Context) {
	u, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	token, err := utils.GenerateToken(u.ID, u.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Could not generate token"))
		return
	}

	stats, err := loadStats(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to load user stats"))
		return
	}

	resp := NewUserResponse(u, token)
	resp.Stats = stats
	c.JSON(http.StatusOK, utils.NewSuccessResponse("User information retrieved successfully", resp))
}

func loadStats(userID uint) (*UserStats, error) {
	var stats UserStats

	widgets := func() *gorm.DB { return database.DB.Model(&models.Widget{}).Where("user_id = ?", userID) }
	templates := func() *gorm.DB { return database.DB.Model(&models.Template{}).Where("user_id = ?", userID) }

	for _, q := range []struct {
		db  *gorm.DB
		dst *int64
	}{
		{widgets(), &stats.Widgets},
		{widgets().Where("kind = ?", models.WidgetKindCustom), &stats.CustomWidgets},
		{widgets().Where("template_id IS NOT NULL"), &stats.BoundWidgets},
		{templates(), &stats.Templates},
		{templates().Where("is_public = ?", true), &stats.PublicTemplates},
	} {
		if err := q.db.Count(q.dst).Error; err != nil {
			return nil, err
		}
	}
	return &stats, nil
}
