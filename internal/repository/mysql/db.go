package mysql

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/repository"
)

// Open 连接 MySQL；TranslateError 让唯一键冲突返回 gorm.ErrDuplicatedKey
func Open(dsn string) (*gorm.DB, error) {
	db, err := open(mysql.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Event{},
		&model.Registration{},
		&model.Comment{},
		&model.Rating{},
		&model.Feedback{},
		&model.Notification{},
	)
}

func NewStores(db *gorm.DB) repository.Stores {
	return repository.Stores{
		Users:         &UserRepository{DB: db},
		Events:        &EventRepository{DB: db},
		Registrations: &RegistrationRepository{DB: db},
		Comments:      &CommentRepository{DB: db},
		Ratings:       &RatingRepository{DB: db},
		Feedback:      &FeedbackRepository{DB: db},
		Notifications: &NotificationRepository{DB: db},
	}
}

// translate gorm 错误转为业务错误
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkg.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return pkg.ErrDuplicate
	default:
		return err
	}
}
