package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id     TEXT PRIMARY KEY,
    email       VARCHAR(254) UNIQUE NOT NULL,
    password    VARCHAR(100) NOT NULL,
    full_name   VARCHAR(100) NOT NULL,
    profession  VARCHAR(100) NOT NULL DEFAULT '',
    avatar_url  TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS user_roles (
    user_id  TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    role     TEXT NOT NULL CHECK (role IN ('admin', 'channel_admin', 'user')),
    PRIMARY KEY (user_id, role)
);`

func InitDB(config Config) (*sql.DB, error) {
	DBpath := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName)
	DB, err := sql.Open("postgres", DBpath)
	if err != nil {
		log.Println("Failed to Connect with DB", err.Error())
		return nil, err
	}
	if _, err = DB.Exec(schema); err != nil {
		log.Println("Failed to create Users tables: ", err.Error())
		DB.Close()
		return nil, err
	}
	return DB, nil
}
