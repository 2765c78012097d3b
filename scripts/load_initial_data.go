package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tenancy-backend/internal/config"
	"tenancy-backend/internal/database"
	"tenancy-backend/internal/database/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Seed users get stable ids so reruns and other fixtures can refer to them
var seedNamespace = uuid.MustParse("0b6f7c2e-5d4a-4c1e-9b8f-3a2d1e0c9b7a")

type UserData struct {
	ID        string `yaml:"id,omitempty"`
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type MemberData struct {
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

type TenantData struct {
	Name        string       `yaml:"name"`
	Slug        string       `yaml:"slug,omitempty"`
	Website     string       `yaml:"website,omitempty"`
	Phone       string       `yaml:"phone,omitempty"`
	Email       string       `yaml:"email,omitempty"`
	Members     []MemberData `yaml:"members"`
	Invitations []string     `yaml:"invitations,omitempty"`
}

// File structures
type UsersFile struct {
	Users []UserData `yaml:"users"`
}

type TenantsFile struct {
	Tenants []TenantData `yaml:"tenants"`
}

func main() {
	log.Println("🚀 Loading initial data from YAML files...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database with retry (for dockerized Postgres startup)
	db, err := connectWithRetry(cfg.DatabaseURL, 60, time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := loadDataFromYAMLFiles(db, "scripts/data"); err != nil {
		log.Fatalf("Failed to load data from YAML files: %v", err)
	}

	log.Println("✅ Initial data loaded successfully!")
}

// connectWithRetry attempts to initialize the DB with retries to wait for Postgres readiness.
func connectWithRetry(dsn string, maxAttempts int, delay time.Duration) (*gorm.DB, error) {
	opts := &database.Options{LogLevel: logger.Silent}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, err := database.Initialize(dsn, opts)
		if err == nil {
			return db, nil
		}
		if attempt%10 == 0 || attempt == maxAttempts {
			log.Printf("Database not ready (%d/%d): %v", attempt, maxAttempts, err)
		}
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("database not ready after %d attempts", maxAttempts)
}

func loadDataFromYAMLFiles(db *gorm.DB, dataDir string) error {
	users, err := loadUsers(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	tenants, err := loadTenants(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load tenants: %w", err)
	}

	userMap := make(map[string]*models.User)
	userCreated := 0
	for _, userData := range users {
		user, created, err := createUser(db, userData)
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", userData.Email, err)
		}
		userMap[user.Email] = user
		if created {
			userCreated++
		}
	}
	log.Printf("📋 Users: %d created, %d total", userCreated, len(users))

	tenantCreated, membershipCreated, invitationCreated := 0, 0, 0
	for _, tenantData := range tenants {
		if err := validateTenant(tenantData); err != nil {
			return err
		}

		var memberships, invitations int
		err := db.Transaction(func(tx *gorm.DB) error {
			tenant, created, err := createTenant(tx, tenantData)
			if err != nil {
				return err
			}
			if created {
				tenantCreated++
			}

			for _, memberData := range tenantData.Members {
				created, err := createMembership(tx, tenant, memberData, userMap)
				if err != nil {
					return err
				}
				if created {
					memberships++
				}
			}

			for _, email := range tenantData.Invitations {
				created, err := createInvitation(tx, tenant, email)
				if err != nil {
					return err
				}
				if created {
					invitations++
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to create tenant %s: %w", tenantData.Name, err)
		}
		membershipCreated += memberships
		invitationCreated += invitations
	}
	log.Printf("📋 Tenants: %d created, %d total", tenantCreated, len(tenants))
	log.Printf("📋 Tenant users: %d created", membershipCreated)
	log.Printf("📋 Invitations: %d created", invitationCreated)

	return nil
}

func loadUsers(dataDir string) ([]UserData, error) {
	var allUsers []UserData
	err := walkYAMLFiles(dataDir, "users", func(data []byte) error {
		var file UsersFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return err
		}
		allUsers = append(allUsers, file.Users...)
		return nil
	})
	return allUsers, err
}

func loadTenants(dataDir string) ([]TenantData, error) {
	var allTenants []TenantData
	err := walkYAMLFiles(dataDir, "tenants", func(data []byte) error {
		var file TenantsFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return err
		}
		allTenants = append(allTenants, file.Tenants...)
		return nil
	})
	return allTenants, err
}

// walkYAMLFiles calls decode with every *.yaml file under dataDir whose name contains kind
func walkYAMLFiles(dataDir, kind string, decode func([]byte) error) error {
	return filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") || !strings.Contains(filepath.Base(path), kind) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := decode(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	})
}

// validateTenant checks the fixture before touching the database
func validateTenant(tenantData TenantData) error {
	owners := 0
	for _, member := range tenantData.Members {
		role := models.MembershipRole(member.Role)
		if !role.IsValid() {
			return fmt.Errorf("tenant %s: invalid role %q for %s", tenantData.Name, member.Role, member.Email)
		}
		if role == models.MembershipRoleOwner {
			owners++
		}
	}
	if owners != 1 {
		return fmt.Errorf("tenant %s: expected exactly one owner, got %d", tenantData.Name, owners)
	}
	return nil
}

func createUser(db *gorm.DB, userData UserData) (*models.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(userData.Email))

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to query user: %w", err)
	}

	id := uuid.NewSHA1(seedNamespace, []byte(email))
	if userData.ID != "" {
		if id, err = uuid.Parse(userData.ID); err != nil {
			return nil, false, fmt.Errorf("invalid user id %q: %w", userData.ID, err)
		}
	}

	user = models.User{
		BaseModel: models.BaseModel{ID: id},
		Email:     email,
		FirstName: userData.FirstName,
		LastName:  userData.LastName,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, true, nil
}

func createTenant(db *gorm.DB, tenantData TenantData) (*models.Tenant, bool, error) {
	tenantSlug := tenantData.Slug
	if tenantSlug == "" {
		tenantSlug = slug.Make(tenantData.Name)
	}

	var tenant models.Tenant
	err := db.Where("slug = ?", tenantSlug).First(&tenant).Error
	if err == nil {
		return &tenant, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to query tenant: %w", err)
	}

	tenant = models.Tenant{
		Name:    tenantData.Name,
		Slug:    tenantSlug,
		Website: tenantData.Website,
		Phone:   tenantData.Phone,
		Email:   tenantData.Email,
	}
	if err := db.Create(&tenant).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create tenant: %w", err)
	}
	return &tenant, true, nil
}

func createMembership(db *gorm.DB, tenant *models.Tenant, memberData MemberData, userMap map[string]*models.User) (bool, error) {
	user := userMap[strings.ToLower(memberData.Email)]
	if user == nil {
		return false, fmt.Errorf("user %s not found for tenant %s", memberData.Email, tenant.Name)
	}

	var existing models.Membership
	err := db.Where("user_id = ?", user.ID).First(&existing).Error
	if err == nil {
		if existing.TenantID != tenant.ID {
			log.Printf("⚠️  Warning: %s already belongs to another tenant, skipping", user.Email)
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to query tenant user: %w", err)
	}

	membership := models.Membership{
		UserID:   user.ID,
		TenantID: tenant.ID,
		Role:     models.MembershipRole(memberData.Role),
	}
	if err := db.Create(&membership).Error; err != nil {
		return false, fmt.Errorf("failed to create tenant user: %w", err)
	}
	return true, nil
}

func createInvitation(db *gorm.DB, tenant *models.Tenant, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	invitation := models.Invitation{TenantID: tenant.ID, Email: email}

	result := db.Where("tenant_id = ? AND email = ? AND accepted_at IS NULL", tenant.ID, email).
		FirstOrCreate(&invitation)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create invitation: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
