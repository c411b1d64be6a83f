package cmd

import (
	"fmt"
	"log"

	navigationDatamodel "github.com/commercia/access-management/internal/core/datamodel/navigation"
	rbacDatamodel "github.com/commercia/access-management/internal/core/datamodel/rbac"
	userDatamodel "github.com/commercia/access-management/internal/core/datamodel/user"
	"github.com/commercia/access-management/internal/rbac"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var clearData bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the system roles, menu and superuser",
	Long:  `Seed the database with the system roles, navigation entries and an initial superuser account. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			clearSeedData(gormDB)
		}

		seedAll(gormDB)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}

func clearSeedData(db *gorm.DB) {
	// Order matters because of foreign keys.
	tables := []string{"role_assignments", "role_functions", "roles", "navigation_functions", "navigation_categories", "customers", "users"}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("failed to clear %s: %v", table, err)
		}
	}
	fmt.Println("Cleared existing data")
}

func seedAll(db *gorm.DB) {
	categories := seedCategories(db)
	functions := seedFunctions(db, categories)
	roles := seedRoles(db, functions)
	seedSuperuser(db, roles)
	fmt.Println("Seeding finished")
}

func seedCategories(db *gorm.DB) map[string]*navigationDatamodel.Category {
	defs := []navigationDatamodel.Category{
		{Name: "Administration", Code: "administration", Description: "User and customer administration", Icon: "fas fa-users-cog", Order: 10, IsActive: true, IsSystem: true},
		{Name: "Access Control", Code: "access_control", Description: "Roles and navigation management", Icon: "fas fa-shield-alt", Order: 20, IsActive: true, IsSystem: true},
	}

	out := make(map[string]*navigationDatamodel.Category, len(defs))
	for i := range defs {
		c := defs[i]
		var existing navigationDatamodel.Category
		err := db.Where("code = ?", c.Code).First(&existing).Error
		if err == nil {
			out[c.Code] = &existing
			continue
		}
		if err := db.Create(&c).Error; err != nil {
			log.Fatalf("failed to seed category %s: %v", c.Code, err)
		}
		fmt.Printf("Seeded category: %s\n", c.Code)
		out[c.Code] = &c
	}
	return out
}

func seedFunctions(db *gorm.DB, categories map[string]*navigationDatamodel.Category) map[string]*navigationDatamodel.Function {
	strPtr := func(s string) *string { return &s }
	admin := categories["administration"].ID
	access := categories["access_control"].ID

	defs := []navigationDatamodel.Function{
		{Name: "Dashboard", Code: "dashboard", URL: strPtr("/dashboard"), Icon: "fas fa-home", Order: 0, IsActive: true, IsSystem: true},
		{Name: "Users", Code: "user_management", URL: strPtr("/users"), Icon: "fas fa-users", CategoryID: &admin, PolicyResource: "user", Order: 10, IsActive: true, IsSystem: true},
		{Name: "Customers", Code: "customer_management", URL: strPtr("/customers"), Icon: "fas fa-address-book", CategoryID: &admin, PolicyResource: "customer", Order: 20, IsActive: true, IsSystem: true},
		{Name: "Roles", Code: "role_management", URL: strPtr("/roles"), Icon: "fas fa-user-tag", CategoryID: &access, PolicyResource: "role", Order: 10, IsActive: true, IsSystem: true},
		{Name: "Navigation", Code: "navigation_management", URL: strPtr("/navigation"), Icon: "fas fa-sitemap", CategoryID: &access, PolicyResource: "function", Order: 20, IsActive: true, IsSystem: true},
		{Name: "My Profile", Code: "my_profile", URL: strPtr("/me"), Icon: "fas fa-user", Order: 90, IsActive: true, IsSystem: true},
	}

	out := make(map[string]*navigationDatamodel.Function, len(defs))
	for i := range defs {
		f := defs[i]
		var existing navigationDatamodel.Function
		err := db.Where("code = ?", f.Code).First(&existing).Error
		if err == nil {
			out[f.Code] = &existing
			continue
		}
		if err := db.Create(&f).Error; err != nil {
			log.Fatalf("failed to seed function %s: %v", f.Code, err)
		}
		fmt.Printf("Seeded function: %s\n", f.Code)
		out[f.Code] = &f
	}
	return out
}

func seedRoles(db *gorm.DB, functions map[string]*navigationDatamodel.Function) map[string]*rbacDatamodel.Role {
	fns := func(codes ...string) []navigationDatamodel.Function {
		var out []navigationDatamodel.Function
		for _, code := range codes {
			if f, ok := functions[code]; ok {
				out = append(out, *f)
			}
		}
		return out
	}

	defs := []rbacDatamodel.Role{
		{Name: "Super Administrator", Code: "super_admin", Description: "Unrestricted access", PolicyRole: "super_admin", Level: 100, IsActive: true, IsSystem: true,
			Functions: fns("dashboard", "user_management", "customer_management", "role_management", "navigation_management", "my_profile")},
		{Name: "Administrator", Code: "admin", Description: "User and customer administration", PolicyRole: "admin", Level: 80, IsActive: true, IsSystem: true,
			Functions: fns("dashboard", "user_management", "customer_management", "my_profile")},
		{Name: "Basic User", Code: rbac.BasicRoleCode, Description: "Default role for every account", PolicyRole: "basic_user", Level: 0, IsActive: true, IsSystem: true,
			Functions: fns("dashboard", "my_profile")},
	}

	out := make(map[string]*rbacDatamodel.Role, len(defs))
	for i := range defs {
		r := defs[i]
		var existing rbacDatamodel.Role
		err := db.Where("code = ?", r.Code).First(&existing).Error
		if err == nil {
			out[r.Code] = &existing
			continue
		}
		if err := db.Create(&r).Error; err != nil {
			log.Fatalf("failed to seed role %s: %v", r.Code, err)
		}
		fmt.Printf("Seeded role: %s\n", r.Code)
		out[r.Code] = &r
	}
	return out
}

func seedSuperuser(db *gorm.DB, roles map[string]*rbacDatamodel.Role) {
	email := "admin@commercia.io"

	var existing userDatamodel.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		fmt.Println("Superuser already exists:", email)
		ensureAssignment(db, existing.ID, roles)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("change-me-on-first-login"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash superuser password: %v", err)
	}

	u := userDatamodel.User{
		Email:        email,
		FirstName:    "System",
		LastName:     "Administrator",
		PasswordHash: string(hash),
		UserType:     "ADMIN",
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := db.Create(&u).Error; err != nil {
		log.Fatalf("failed to seed superuser: %v", err)
	}
	fmt.Println("Seeded superuser:", email)
	ensureAssignment(db, u.ID, roles)
}

func ensureAssignment(db *gorm.DB, userID int64, roles map[string]*rbacDatamodel.Role) {
	for _, code := range []string{"super_admin", rbac.BasicRoleCode} {
		role, ok := roles[code]
		if !ok {
			continue
		}
		var existing rbacDatamodel.RoleAssignment
		err := db.Where("user_id = ? AND role_id = ? AND scope_type IS NULL AND scope_id IS NULL", userID, role.ID).First(&existing).Error
		if err == nil {
			continue
		}
		a := rbacDatamodel.RoleAssignment{UserID: userID, RoleID: role.ID, IsActive: true}
		if err := db.Create(&a).Error; err != nil {
			log.Fatalf("failed to assign role %s: %v", code, err)
		}
		fmt.Printf("Granted role %s to superuser\n", code)
	}
}
