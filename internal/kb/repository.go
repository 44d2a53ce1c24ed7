package kb

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repository defines persistence operations for ingested articles.
type Repository interface {
	GetByRemoteID(ctx context.Context, remoteID string) (*Article, error)
	Upsert(ctx context.Context, article *Article) error
	ListArticles(ctx context.Context) ([]Article, error)
	CountArticles(ctx context.Context) (int64, error)
	MostRecentArticle(ctx context.Context) (*Article, error)
}

// GormRepository persists articles using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: db, logger: logger}, nil
}

var _ Repository = (*GormRepository)(nil)

// GetByRemoteID returns the article for the provided help-center id or nil when not found.
func (r *GormRepository) GetByRemoteID(ctx context.Context, remoteID string) (*Article, error) {
	trimmed := strings.TrimSpace(remoteID)
	if trimmed == "" {
		return nil, eris.New("remote id is required")
	}

	var article Article
	err := r.db.WithContext(ctx).First(&article, "remote_id = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"remote_id": trimmed}, err, "fetching article by remote id")
		return nil, eris.Wrapf(err, "fetching article by remote id: %s", trimmed)
	}

	return &article, nil
}

// Upsert stores the article, updating the existing row when the remote id is
// already known.
func (r *GormRepository) Upsert(ctx context.Context, article *Article) error {
	if article == nil {
		return eris.New("article is nil")
	}

	if strings.TrimSpace(article.RemoteID) == "" {
		return eris.New("article remote id is required")
	}

	article.RemoteID = strings.TrimSpace(article.RemoteID)

	existing, err := r.GetByRemoteID(ctx, article.RemoteID)
	if err != nil {
		return err
	}
	if existing != nil {
		article.ID = existing.ID
		article.CreatedAt = existing.CreatedAt
	}

	if err := r.db.WithContext(ctx).Save(article).Error; err != nil {
		r.logError(logrus.Fields{"remote_id": article.RemoteID}, err, "saving article")
		return eris.Wrapf(err, "saving article: %s", article.RemoteID)
	}

	return nil
}

// ListArticles returns every stored article ordered by remote id.
func (r *GormRepository) ListArticles(ctx context.Context) ([]Article, error) {
	var articles []Article

	if err := r.db.WithContext(ctx).Order("remote_id ASC").Find(&articles).Error; err != nil {
		r.logError(nil, err, "listing articles")
		return nil, eris.Wrap(err, "listing articles")
	}

	return articles, nil
}

// CountArticles returns the number of stored articles.
func (r *GormRepository) CountArticles(ctx context.Context) (int64, error) {
	var count int64

	if err := r.db.WithContext(ctx).Model(&Article{}).Count(&count).Error; err != nil {
		r.logError(nil, err, "counting articles")
		return 0, eris.Wrap(err, "counting articles")
	}

	return count, nil
}

// MostRecentArticle returns the last updated article or nil when the table is empty.
func (r *GormRepository) MostRecentArticle(ctx context.Context) (*Article, error) {
	var article Article

	err := r.db.WithContext(ctx).Order("updated_at DESC").First(&article).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(nil, err, "fetching most recent article")
		return nil, eris.Wrap(err, "fetching most recent article")
	}

	return &article, nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
