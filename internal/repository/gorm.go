package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"user-management-app/internal/apperror"
	"user-management-app/internal/config"
	"user-management-app/internal/entity"
)

const mysqlDuplicateEntry = 1062

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db}
}

// OpenMySQL opens the connection pool, retrying until the server answers a
// ping or the configured retries run out.
func OpenMySQL(ctx context.Context, cfg config.Database) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.New(&log.Logger, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	retries := cfg.ConnRetries
	if retries < 1 {
		retries = 1
	}

	var err error
	for i := 0; i < retries; i++ {
		var db *gorm.DB
		db, err = gorm.Open(gormmysql.Open(cfg.DSN()), gormCfg)
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr != nil {
				return nil, dbErr
			}
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
			sqlDB.SetConnMaxLifetime(time.Hour)

			err = sqlDB.PingContext(ctx)
			if err == nil {
				log.Info().Str("db", cfg.Name).Msg("connected to database")
				return db, nil
			}
			sqlDB.Close()
		}
		log.Warn().Err(err).Int("attempt", i+1).Str("db", cfg.Name).Msg("failed to connect to database")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %w", cfg.Name, cfg.Host, cfg.Port, err)
}

func (r *GormRepository) List(ctx context.Context) ([]entity.User, error) {
	users := []entity.User{}
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, mapError(err, 0)
	}
	return users, nil
}

func (r *GormRepository) GetByID(ctx context.Context, id int) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapError(err, id)
	}
	return &user, nil
}

func (r *GormRepository) Create(ctx context.Context, input entity.UserInput) (*entity.User, error) {
	user := entity.User{Name: input.Name, Email: input.Email}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, mapError(err, 0)
	}
	return &user, nil
}

func (r *GormRepository) Update(ctx context.Context, id int, input entity.UserInput) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		user.Name = input.Name
		user.Email = input.Email
		return tx.Model(&user).Updates(map[string]interface{}{
			"name":  input.Name,
			"email": input.Email,
		}).Error
	})
	if err != nil {
		return nil, mapError(err, id)
	}
	return &user, nil
}

func (r *GormRepository) Delete(ctx context.Context, id int) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err, id)
	}
	return &user, nil
}

func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func mapError(err error, id int) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("user", id)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return apperror.Conflict("user already exists", err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("user already exists", err)
	}
	return apperror.Internal(err)
}
