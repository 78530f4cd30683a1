package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	var (
		email    = flag.String("email", "pm@example.com", "User email")
		password = flag.String("password", "ChangeMe123", "User password")
		username = flag.String("username", "projectmanager", "Username")
		fullName = flag.String("name", "Project Manager", "Full name")
		role     = flag.String("role", "user", "User role (user, admin)")
	)
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=matrixtwin password=matrixtwin dbname=matrixtwin sslmode=disable"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal("Failed to generate password hash:", err)
	}

	userID := uuid.New()
	ctx := context.Background()

	query := `
		INSERT INTO users (id, email, username, full_name, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (email) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			username = EXCLUDED.username,
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at
		RETURNING id`

	var resultID uuid.UUID
	err = db.GetContext(ctx, &resultID, query,
		userID, *email, *username, *fullName, string(hash), *role, time.Now())
	if err != nil {
		log.Fatal("Failed to create user:", err)
	}

	if resultID == userID {
		fmt.Println("Created user:")
	} else {
		fmt.Println("Updated existing user:")
	}
	fmt.Printf("   Email: %s\n", *email)
	fmt.Printf("   Username: %s\n", *username)
	fmt.Printf("   Role: %s\n", *role)
}
