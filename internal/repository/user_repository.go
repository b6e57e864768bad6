package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fenxiao-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) UserRepository

	GetByID(id uint) (*models.User, error)
	GetByIDForUpdate(id uint) (*models.User, error)
	GetByPhone(phone string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	UpdateFields(id uint, updates map[string]interface{}) error
	List(filter UserListFilter) ([]models.User, int64, error)

	ListByParent(parentID uint) ([]models.User, error)
	CountByParent(parentID uint) (int64, error)
	ListIDsByParents(parentIDs []uint) ([]uint, error)
	IncrementRefereeCount(id uint, now time.Time) error
}

// GormUserRepository GORM 用户仓储
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// Transaction 执行事务
func (r *GormUserRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate 按ID锁定查询用户
func (r *GormUserRepository) GetByIDForUpdate(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByPhone 按手机号获取用户
func (r *GormUserRepository) GetByPhone(phone string) (*models.User, error) {
	normalized := strings.TrimSpace(phone)
	if normalized == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("phone = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 保存用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdateFields 按字段更新用户
func (r *GormUserRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

// List 查询用户列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("(phone LIKE ? OR nickname LIKE ?)", like, like)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.RoleLevel != nil {
		query = query.Where("role_level = ?", *filter.RoleLevel)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.User
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByParent 查询直接下级
func (r *GormUserRepository) ListByParent(parentID uint) ([]models.User, error) {
	if parentID == 0 {
		return []models.User{}, nil
	}
	var rows []models.User
	if err := r.db.Where("parent_id = ?", parentID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByParent 统计直接下级数量
func (r *GormUserRepository) CountByParent(parentID uint) (int64, error) {
	if parentID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.User{}).Where("parent_id = ?", parentID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListIDsByParents 查询一批用户的全部直接下级ID
func (r *GormUserRepository) ListIDsByParents(parentIDs []uint) ([]uint, error) {
	if len(parentIDs) == 0 {
		return []uint{}, nil
	}
	var ids []uint
	if err := r.db.Model(&models.User{}).Where("parent_id IN ?", parentIDs).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// IncrementRefereeCount 累加直接下级计数
func (r *GormUserRepository) IncrementRefereeCount(id uint, now time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"referee_count": gorm.Expr("referee_count + 1"),
		"updated_at":    now,
	}).Error
}
