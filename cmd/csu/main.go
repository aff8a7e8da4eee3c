// Command csu creates the bootstrap superuser from ADMIN_EMAIL and
// ADMIN_PASSWORD.
package main

import (
	"context"
	"log"

	"github.com/ncgordeev/phone-shop/config"
	"github.com/ncgordeev/phone-shop/database"
	"github.com/ncgordeev/phone-shop/models"
)

func main() {
	admin, err := config.LoadAdmin()
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	user, err := models.NewUsersRepository(db).CreateAdmin(context.Background(), admin.Email, admin.Password)
	if err != nil {
		database.Close(db)
		log.Fatalf("Failed to create admin: %v", err)
	}
	log.Printf("Created superuser %s", user)
}
