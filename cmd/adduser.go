package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"AriaFM/core/auth"
	"AriaFM/db"
	"AriaFM/model"
	"AriaFM/repository"
)

var (
	addUserUsername string
	addUserPassword string
	addUserEmail    string
	addUserAdmin    bool
)

var addUserCmd = &cobra.Command{
	Use:   "adduser",
	Short: "Create a user account",
	Long: `Create a user account directly in the database. The password is stored
as a bcrypt hash for the JSON API and as a reversible ciphertext for the
Subsonic token scheme.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := initRuntime()

		if addUserUsername == "" || addUserPassword == "" || addUserEmail == "" {
			log.Fatal("--username, --password and --email are required")
		}

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.DB.Close()
		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database schema: %v", err)
		}

		cipher, err := auth.NewPasswordCipher(cfg.PasswordEncryptionKey)
		if err != nil {
			log.Fatalf("Failed to initialize password cipher: %v", err)
		}

		passwordHash, err := auth.HashPassword(addUserPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		encryptedPassword, err := cipher.Encrypt(addUserPassword)
		if err != nil {
			log.Fatalf("Failed to encrypt password: %v", err)
		}

		user := &model.User{
			ApiKey:            uuid.NewString(),
			Username:          addUserUsername,
			Email:             addUserEmail,
			PasswordHash:      passwordHash,
			EncryptedPassword: encryptedPassword,
			PublicKey:         uuid.NewString(),
			IsAdmin:           addUserAdmin,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		userRepo := repository.NewMySQLUserRepository(db.DB)
		id, err := userRepo.CreateUser(ctx, user)
		if err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}

		fmt.Printf("Created user %s (id %d, api key %s)\n", user.Username, id, user.ApiKey)
	},
}

func init() {
	addUserCmd.Flags().StringVar(&addUserUsername, "username", "", "username of the new account")
	addUserCmd.Flags().StringVar(&addUserPassword, "password", "", "password of the new account")
	addUserCmd.Flags().StringVar(&addUserEmail, "email", "", "email of the new account")
	addUserCmd.Flags().BoolVar(&addUserAdmin, "admin", false, "grant the account admin rights")
	rootCmd.AddCommand(addUserCmd)
}
