package binding

import (
	"context"
	"errors"
	"strings"

	"hunteros-backend/pkg/logger"

	"go.uber.org/zap"
)

var ErrTemplateNotFound = errors.New("template not found")

// Template is the part of a stored template the binding reads.
type Template struct {
	ID       uint
	Name     string
	Code     string
	IsPublic bool
}

// Fetcher loads a template by id. Missing or invisible templates should be
// reported as ErrTemplateNotFound.
type Fetcher interface {
	FetchTemplate(ctx context.Context, id uint) (*Template, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, id uint) (*Template, error)

func (f FetcherFunc) FetchTemplate(ctx context.Context, id uint) (*Template, error) {
	return f(ctx, id)
}

// Source tells where resolved code came from.
type Source string

const (
	SourceEmpty    Source = "empty"
	SourceInline   Source = "inline"
	SourceTemplate Source = "template"
	SourceFallback Source = "fallback"
)

// Resolution is the code a widget should render right now.
type Resolution struct {
	Code            string
	Source          Source
	TemplateID      uint
	TemplateName    string
	TemplateMissing bool
}

// Empty reports whether there is nothing to render.
func (r Resolution) Empty() bool {
	return r.Source == SourceEmpty
}

func (r Resolution) sameAs(o Resolution) bool {
	return r.Code == o.Code && r.Source == o.Source && r.TemplateMissing == o.TemplateMissing && r.TemplateName == o.TemplateName
}

type Resolver struct {
	fetcher Fetcher
}

func NewResolver(fetcher Fetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve never fails: a template that cannot be fetched degrades to the
// widget's inlined code, then to empty.
func (r *Resolver) Resolve(ctx context.Context, c Content) Resolution {
	switch v := c.(type) {
	case ByValue:
		if strings.TrimSpace(v.Code) == "" {
			return Resolution{Source: SourceEmpty}
		}
		return Resolution{Code: v.Code, Source: SourceInline}
	case ByReference:
		return r.resolveReference(ctx, v)
	default:
		return Resolution{Source: SourceEmpty}
	}
}

func (r *Resolver) resolveReference(ctx context.Context, ref ByReference) Resolution {
	res := Resolution{TemplateID: ref.TemplateID, TemplateName: ref.TemplateName}

	tpl, err := r.fetcher.FetchTemplate(ctx, ref.TemplateID)
	if err == nil && tpl != nil {
		res.Code = tpl.Code
		res.Source = SourceTemplate
		if tpl.Name != "" {
			res.TemplateName = tpl.Name
		}
		if strings.TrimSpace(tpl.Code) == "" {
			res.Source = SourceEmpty
		}
		return res
	}

	if err == nil || errors.Is(err, ErrTemplateNotFound) {
		res.TemplateMissing = true
	} else {
		logger.Named("binding").Warn("template fetch failed, using fallback",
			zap.Uint("template_id", ref.TemplateID), zap.Error(err))
	}

	if strings.TrimSpace(ref.Fallback) != "" {
		res.Code = ref.Fallback
		res.Source = SourceFallback
		return res
	}
	res.Source = SourceEmpty
	return res
}
