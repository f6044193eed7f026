package main

import (
	"context"
	"flag"
	"log"
	"os"

	"task_manager/internal/db"
	"task_manager/internal/domain"
	"task_manager/internal/repository"
	"task_manager/internal/service"
)

// Seeds a user from the command line and prints a bearer token for it.
// Expects DATABASE_URL and JWT_SECRET env vars.
func main() {
	username := flag.String("username", "testuser", "username for the new user")
	email := flag.String("email", "test@example.com", "email for the new user")
	password := flag.String("password", "password123", "password for the new user")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewUserRepository(pool)
	ctx := context.Background()

	u, err := repo.GetByEmail(ctx, *email)
	if err == nil {
		log.Printf("user already exists id=%d\n", u.ID)
	} else {
		hash, err := service.HashPassword(*password)
		if err != nil {
			log.Fatalf("hash password failed: %v", err)
		}

		u = &domain.User{
			Username:     *username,
			Email:        *email,
			PasswordHash: hash,
		}
		if err := repo.Create(ctx, u); err != nil {
			log.Fatalf("create user failed: %v", err)
		}
		log.Printf("user created id=%d\n", u.ID)
	}

	service.InitJWT()
	token, err := service.GenerateJWT(u.ID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
