package db

import (
	"database/sql"
	"fmt"
	"log"

	"AriaFM/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createArtistsTable(); err != nil {
		return err
	}
	if err := createAlbumsTable(); err != nil {
		return err
	}
	if err := createSongsTable(); err != nil {
		return err
	}
	if err := createPlayStatsTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		api_key CHAR(36) NOT NULL UNIQUE,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		encrypted_password VARCHAR(512) NOT NULL,
		public_key CHAR(36) NOT NULL,
		is_admin TINYINT(1) NOT NULL DEFAULT 0,
		is_locked TINYINT(1) NOT NULL DEFAULT 0,
		last_login_at TIMESTAMP NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createArtistsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS artists (
		id INT AUTO_INCREMENT PRIMARY KEY,
		api_key CHAR(36) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		directory VARCHAR(767) NOT NULL,
		musicbrainz_id CHAR(36),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create artists table: %w", err)
	}
	return nil
}

func createAlbumsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS albums (
		id INT AUTO_INCREMENT PRIMARY KEY,
		api_key CHAR(36) NOT NULL UNIQUE,
		artist_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		year INT,
		directory VARCHAR(767) NOT NULL,
		cover_art_path VARCHAR(767),
		musicbrainz_id CHAR(36),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_album_artist FOREIGN KEY (artist_id) REFERENCES artists(id) ON DELETE CASCADE
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create albums table: %w", err)
	}
	return nil
}

func createSongsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS songs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		api_key CHAR(36) NOT NULL UNIQUE,
		artist_id INT NOT NULL,
		album_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		track_number INT,
		duration FLOAT,
		bit_rate INT,
		content_type VARCHAR(100),
		file_name VARCHAR(767) NOT NULL,
		file_size BIGINT,
		musicbrainz_id CHAR(36),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_song_artist FOREIGN KEY (artist_id) REFERENCES artists(id) ON DELETE CASCADE,
		CONSTRAINT fk_song_album FOREIGN KEY (album_id) REFERENCES albums(id) ON DELETE CASCADE
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create songs table: %w", err)
	}
	return nil
}

func createPlayStatsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS play_stats (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_api_key CHAR(36) NOT NULL,
		song_id INT NOT NULL,
		player_name VARCHAR(255),
		is_randomized TINYINT(1) NOT NULL DEFAULT 0,
		played_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_play_stats_song (song_id),
		INDEX idx_play_stats_user (user_api_key)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create play_stats table: %w", err)
	}
	return nil
}
