package migration

import (
	"fmt"
	"log"

	"github.com/Hakheem/TibaPoint-sub001/entities"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities.User{}); err != nil {
		log.Fatalf("Error migrating user database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.CreditAccount{}); err != nil {
		log.Fatalf("Error migrating credit account database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.CreditPackage{}); err != nil {
		log.Fatalf("Error migrating credit package database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.CreditTransaction{}); err != nil {
		log.Fatalf("Error migrating credit transaction database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.AvailabilitySlot{}); err != nil {
		log.Fatalf("Error migrating availability slot database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Appointment{}); err != nil {
		log.Fatalf("Error migrating appointment database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.PaymentRecord{}); err != nil {
		log.Fatalf("Error migrating payment record database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Notification{}); err != nil {
		log.Fatalf("Error migrating notification database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
