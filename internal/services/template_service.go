package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hunteros-backend/internal/binding"
	"hunteros-backend/internal/database"
	"hunteros-backend/internal/metrics"
	"hunteros-backend/internal/models"

	"gorm.io/gorm"
)

const (
	PublicTemplatesCacheKey = "templates:public"
	TemplatesCacheDuration  = 1 * time.Hour
	templateCacheKeyPrefix  = "template:"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// TemplatePollInterval bounds how stale a live-bound widget's template may be.
// It is the TTL of the per-template cache entry.
var TemplatePollInterval = binding.DefaultPollInterval

type TemplateFilter string

const (
	TemplateFilterAll    TemplateFilter = ""
	TemplateFilterMine   TemplateFilter = "mine"
	TemplateFilterPublic TemplateFilter = "public"
)

// TemplateUpdate is a partial update; nil fields are left unchanged.
type TemplateUpdate struct {
	Name        *string
	Description *string
	Code        *string
	IsPublic    *bool
}

func templateCacheKey(id uint) string {
	return fmt.Sprintf("%s%d", templateCacheKeyPrefix, id)
}

func invalidateTemplate(t *models.Template, wasPublic bool) {
	keys := []string{templateCacheKey(t.ID)}
	if wasPublic || t.IsPublic {
		keys = append(keys, PublicTemplatesCacheKey)
	}
	database.CacheDel(database.Ctx, keys...)
}

// CreateTemplate stores a new template and its first version. The caller is
// responsible for checking that the user may publish when isPublic is set.
func CreateTemplate(userID uint, name, description, code string, isPublic bool) (*models.Template, error) {
	template := &models.Template{
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: description,
		Code:        code,
		IsPublic:    isPublic,
		Version:     1,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(template).Error; err != nil {
			return err
		}
		return tx.Create(&models.TemplateVersion{
			TemplateID: template.ID,
			Version:    template.Version,
			Name:       template.Name,
			Code:       template.Code,
			CreatedBy:  userID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if isPublic {
		database.CacheDel(database.Ctx, PublicTemplatesCacheKey)
	}

	return template, nil
}

// UpdateTemplate applies a partial update. Only the owner may update; a code
// change bumps the version and appends a version snapshot.
func UpdateTemplate(id, userID uint, upd TemplateUpdate) (*models.Template, error) {
	var (
		template  models.Template
		wasPublic bool
	)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&template, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTemplateNotFound
			}
			return err
		}
		if template.UserID != userID {
			if !template.IsPublic {
				return ErrTemplateNotFound
			}
			return ErrPermissionDenied
		}
		wasPublic = template.IsPublic

		if upd.Name != nil {
			template.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Description != nil {
			template.Description = *upd.Description
		}
		if upd.IsPublic != nil {
			template.IsPublic = *upd.IsPublic
		}
		codeChanged := upd.Code != nil && *upd.Code != template.Code
		if codeChanged {
			template.Code = *upd.Code
			template.Version++
		}

		if err := tx.Save(&template).Error; err != nil {
			return err
		}
		if !codeChanged {
			return nil
		}
		return tx.Create(&models.TemplateVersion{
			TemplateID: template.ID,
			Version:    template.Version,
			Name:       template.Name,
			Code:       template.Code,
			CreatedBy:  userID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	invalidateTemplate(&template, wasPublic)
	return &template, nil
}

// DeleteTemplate removes a template and its history. Widgets bound to it are
// not touched; they fall back to their own inlined code when resolved.
func DeleteTemplate(id, userID uint) error {
	var template models.Template

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&template, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTemplateNotFound
			}
			return err
		}
		if template.UserID != userID {
			if !template.IsPublic {
				return ErrTemplateNotFound
			}
			return ErrPermissionDenied
		}
		if err := tx.Where("template_id = ?", template.ID).Delete(&models.TemplateVersion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&template).Error
	})
	if err != nil {
		return err
	}

	invalidateTemplate(&template, template.IsPublic)
	return nil
}

// loadTemplate reads a template through the per-template cache.
func loadTemplate(ctx context.Context, id uint) (*models.Template, error) {
	var template models.Template
	if database.CacheGet(ctx, templateCacheKey(id), &template) {
		return &template, nil
	}

	if err := database.DB.WithContext(ctx).First(&template, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	database.CacheSet(ctx, templateCacheKey(id), template, TemplatePollInterval)
	return &template, nil
}

// GetTemplate retrieves a template visible to the user. Private templates of
// other users are reported as not found.
func GetTemplate(id, userID uint) (*models.Template, error) {
	return getVisibleTemplate(database.Ctx, id, userID)
}

// GetTemplateByID ignores visibility; for admin tools only.
func GetTemplateByID(id uint) (*models.Template, error) {
	return loadTemplate(database.Ctx, id)
}

func getVisibleTemplate(ctx context.Context, id, userID uint) (*models.Template, error) {
	template, err := loadTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !template.IsPublic && template.UserID != userID {
		return nil, ErrTemplateNotFound
	}
	return template, nil
}

// ListTemplates retrieves templates visible to the user
func ListTemplates(userID uint, filter TemplateFilter, search string, page, limit int) ([]models.Template, int64, error) {
	search = strings.TrimSpace(search)

	// The unfiltered public list is served from cache and paged in memory
	if filter == TemplateFilterPublic && search == "" {
		public, err := GetPublicTemplatesCached()
		if err != nil {
			return nil, 0, err
		}
		return pageSlice(public, page, limit), int64(len(public)), nil
	}

	var (
		templates []models.Template
		total     int64
	)

	db := database.DB.Model(&models.Template{})
	switch filter {
	case TemplateFilterMine:
		db = db.Where("user_id = ?", userID)
	case TemplateFilterPublic:
		db = db.Where("is_public = ?", true)
	default:
		db = db.Where("is_public = ? OR user_id = ?", true, userID)
	}

	if search != "" {
		like := "%" + search + "%"
		db = db.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("updated_at desc").Offset(offset).Limit(limit).Find(&templates).Error; err != nil {
		return nil, 0, err
	}

	return templates, total, nil
}

func pageSlice(all []models.Template, page, limit int) []models.Template {
	start := (page - 1) * limit
	if start >= len(all) {
		return []models.Template{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// GetPublicTemplatesCached retrieves all public templates with caching
func GetPublicTemplatesCached() ([]models.Template, error) {
	var templates []models.Template
	if database.CacheGet(database.Ctx, PublicTemplatesCacheKey, &templates) {
		return templates, nil
	}

	if err := database.DB.Where("is_public = ?", true).Order("updated_at desc").Find(&templates).Error; err != nil {
		return nil, err
	}

	database.CacheSet(database.Ctx, PublicTemplatesCacheKey, templates, TemplatesCacheDuration)
	return templates, nil
}

// ListTemplateVersions returns the template's history, newest first.
func ListTemplateVersions(id, userID uint) ([]models.TemplateVersion, error) {
	if _, err := GetTemplate(id, userID); err != nil {
		return nil, err
	}

	var versions []models.TemplateVersion
	if err := database.DB.Where("template_id = ?", id).Order("version desc").Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

// TemplateFetcher resolves live template bindings as seen by userID.
func TemplateFetcher(userID uint) binding.Fetcher {
	return binding.FetcherFunc(func(ctx context.Context, id uint) (*binding.Template, error) {
		template, err := getVisibleTemplate(ctx, id, userID)
		switch {
		case errors.Is(err, ErrTemplateNotFound):
			metrics.RecordTemplateFetch("missing")
			return nil, binding.ErrTemplateNotFound
		case err != nil:
			metrics.RecordTemplateFetch("error")
			return nil, err
		}
		metrics.RecordTemplateFetch("ok")
		return &binding.Template{
			ID:       template.ID,
			Name:     template.Name,
			Code:     template.Code,
			IsPublic: template.IsPublic,
		}, nil
	})
}
