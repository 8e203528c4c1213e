package credentialstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	sqliteDialector "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const databaseOperationTimeout = 3 * time.Second

// DatabaseStore persists the credential using GORM so it survives process restarts.
type DatabaseStore struct {
	db          *gorm.DB
	driverLabel string
	now         func() time.Time
}

type credentialRecord struct {
	Name        string `gorm:"column:name;primaryKey"`
	Token       string `gorm:"column:token;not null"`
	Path        string `gorm:"column:path;not null;default:'/'"`
	ExpiresUnix int64  `gorm:"column:expires_unix;not null"`
	WrittenUnix int64  `gorm:"column:written_unix;not null"`
}

func (credentialRecord) TableName() string {
	return "credentials"
}

// NewDatabaseStore opens the database at databaseURL and migrates the credentials table.
func NewDatabaseStore(ctx context.Context, databaseURL string) (*DatabaseStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("credential_store.open: %w", ErrEmptyURL)
	}
	dialector, driverLabel, err := resolveDialector(databaseURL)
	if err != nil {
		return nil, err
	}
	gormDB, openErr := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if openErr != nil {
		return nil, fmt.Errorf("credential_store.open.%s: %w", driverLabel, openErr)
	}
	if migrateErr := gormDB.WithContext(ctx).AutoMigrate(&credentialRecord{}); migrateErr != nil {
		return nil, fmt.Errorf("credential_store.migrate.%s: %w", driverLabel, migrateErr)
	}
	return &DatabaseStore{
		db:          gormDB,
		driverLabel: driverLabel,
		now:         time.Now,
	}, nil
}

// Driver exposes the selected database driver label.
func (store *DatabaseStore) Driver() string {
	return store.driverLabel
}

// Read returns the persisted credential, or the request cookie when a request is supplied.
// Lookup failures and expired rows read as absent.
func (store *DatabaseStore) Read(request *http.Request) string {
	if request != nil {
		return ReadRequestCookie(request)
	}
	ctx, cancel := context.WithTimeout(context.Background(), databaseOperationTimeout)
	defer cancel()
	var record credentialRecord
	err := store.db.WithContext(ctx).Where("name = ?", TokenName).Take(&record).Error
	if err != nil {
		return ""
	}
	if time.Unix(record.ExpiresUnix, 0).Before(store.now().UTC()) {
		_ = store.Clear()
		return ""
	}
	return record.Token
}

// Write upserts the credential row.
func (store *DatabaseStore) Write(token string, options Options) error {
	options = options.normalized()
	now := store.now().UTC()
	record := credentialRecord{
		Name:        TokenName,
		Token:       token,
		Path:        options.Path,
		ExpiresUnix: now.Add(options.MaxAge).Unix(),
		WrittenUnix: now.Unix(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), databaseOperationTimeout)
	defer cancel()
	if err := store.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error; err != nil {
		return fmt.Errorf("credential_store.write.%s: %w", store.driverLabel, err)
	}
	return nil
}

// Clear deletes the credential row.
func (store *DatabaseStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), databaseOperationTimeout)
	defer cancel()
	result := store.db.WithContext(ctx).Where("name = ?", TokenName).Delete(&credentialRecord{})
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("credential_store.clear.%s: %w", store.driverLabel, result.Error)
	}
	return nil
}

// Close releases the underlying connection pool.
func (store *DatabaseStore) Close() error {
	sqlDB, err := store.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func resolveDialector(databaseURL string) (gorm.Dialector, string, error) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("credential_store.parse_url: %w", err)
	}
	if parsed.Scheme == "" {
		return nil, "", fmt.Errorf("credential_store.dialect: %w", errNoScheme)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "postgres", "postgresql":
		return postgres.Open(databaseURL), "postgres", nil
	case "sqlite", "sqlite3":
		dsn, dsnErr := buildSQLiteDSN(parsed)
		if dsnErr != nil {
			return nil, "", fmt.Errorf("credential_store.sqlite: %w", dsnErr)
		}
		return sqliteDialector.Open(dsn), "sqlite", nil
	default:
		return nil, "", fmt.Errorf("credential_store.dialect.%s: %w", strings.ToLower(parsed.Scheme), ErrUnsupportedScheme)
	}
}

func buildSQLiteDSN(parsed *url.URL) (string, error) {
	if parsed == nil {
		return "", errSQLiteInvalidURL
	}
	var builder strings.Builder
	switch {
	case parsed.Opaque != "":
		builder.WriteString(parsed.Opaque)
	case parsed.Host != "":
		builder.WriteString(parsed.Host)
		if parsed.Path != "" {
			if !strings.HasPrefix(parsed.Path, "/") {
				builder.WriteString("/")
			}
			builder.WriteString(parsed.Path)
		}
	default:
		builder.WriteString(parsed.Path)
	}
	if builder.Len() == 0 {
		return "", ErrSQLiteEmptyPath
	}
	if parsed.RawQuery != "" {
		builder.WriteString("?")
		builder.WriteString(parsed.RawQuery)
	}
	return builder.String(), nil
}
